// ABOUTME: Shared plumbing for the entity services
// ABOUTME: Holds the store, logger, read-failure policy, and clock
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/dealdeck/recordstore"
	"go.uber.org/zap"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrContactNotFound  = fmt.Errorf("contact %w", ErrNotFound)
	ErrDealNotFound     = fmt.Errorf("deal %w", ErrNotFound)
	ErrStageNotFound    = fmt.Errorf("stage %w", ErrNotFound)
	ErrActivityNotFound = fmt.Errorf("activity %w", ErrNotFound)
)

// ReadPolicy decides what collection reads do when the store fails.
type ReadPolicy string

const (
	// ReadDegrade logs the failure and returns an empty list.
	ReadDegrade ReadPolicy = "degrade"
	// ReadFail returns the error to the caller.
	ReadFail ReadPolicy = "fail"
)

// ParseReadPolicy maps a config string onto a policy, defaulting to ReadDegrade.
func ParseReadPolicy(s string) (ReadPolicy, error) {
	switch ReadPolicy(s) {
	case "", ReadDegrade:
		return ReadDegrade, nil
	case ReadFail:
		return ReadFail, nil
	}
	return "", fmt.Errorf("unknown read policy %q (valid: degrade, fail)", s)
}

type Options struct {
	Logger     *zap.Logger
	ReadPolicy ReadPolicy
	Now        func() time.Time
}

type base struct {
	store  recordstore.Store
	log    *zap.Logger
	policy ReadPolicy
	now    func() time.Time
}

func newBase(store recordstore.Store, opts Options) base {
	b := base{store: store, log: opts.Logger, policy: opts.ReadPolicy, now: opts.Now}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.policy == "" {
		b.policy = ReadDegrade
	}
	if b.now == nil {
		b.now = func() time.Time { return time.Now().UTC() }
	}
	return b
}

// readFailed applies the read policy to a failed collection read.
func (b base) readFailed(what string, err error) error {
	b.log.Error("failed to fetch "+what, zap.Error(err), zap.String("policy", string(b.policy)))
	if b.policy == ReadFail {
		return fmt.Errorf("failed to fetch %s: %w", what, err)
	}
	return nil
}

// logFailures records each failed item of a batch write.
func (b base) logFailures(what string, result recordstore.BatchResult) {
	for _, o := range result.Failures() {
		b.log.Warn("failed to write "+what,
			zap.String("code", o.Code),
			zap.String("message", o.Message))
	}
}

// Services bundles one service per entity over a shared store.
type Services struct {
	Contacts   *ContactService
	Deals      *DealService
	Activities *ActivityService
	Stages     *StageService

	now func() time.Time
}

func New(store recordstore.Store, opts Options) *Services {
	b := newBase(store, opts)
	return &Services{
		Contacts:   &ContactService{base: b},
		Deals:      &DealService{base: b},
		Activities: &ActivityService{base: b},
		Stages:     &StageService{base: b},
		now:        b.now,
	}
}

// Now is the clock the services stamp records with.
func (s *Services) Now() time.Time {
	return s.now()
}

// writeOne runs a single-item batch write and unwraps its outcome.
func (b base) writeOne(what string, result recordstore.BatchResult, err error) (recordstore.Record, error) {
	if err != nil {
		b.log.Error("failed to write "+what, zap.Error(err))
		return nil, fmt.Errorf("failed to write %s: %w", what, err)
	}
	if err := result.Err(); err != nil {
		b.logFailures(what, result)
		return nil, err
	}
	first := result.First()
	if !first.Success {
		b.log.Error("failed to write "+what, zap.String("reason", first.Message))
		return nil, fmt.Errorf("failed to write %s: %s", what, first.Message)
	}
	return first.Record, nil
}
