// ABOUTME: Kanban stage board with an explicit drag state machine
// ABOUTME: Grab, move, and release a deal to change its stage with one update call
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
)

// State is the drag state of a board.
type State int

const (
	Idle State = iota
	Dragging
	Pending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Pending:
		return "pending"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNotDragging     = errors.New("no deal is being dragged")
	ErrAlreadyDragging = errors.New("a deal is already being dragged")
	ErrUpdatePending   = errors.New("a stage update is in flight")
	ErrUnknownDeal     = errors.New("deal is not on the board")
	ErrUnknownStage    = errors.New("stage is not on the board")
)

// Notice messages shown after a drop.
const (
	MsgMoveFailed = "Failed to update deal stage"
	movedFormat   = "Deal moved to %s"
)

// StageUpdater persists a deal's new stage.
type StageUpdater interface {
	UpdateStage(ctx context.Context, id int64, stage string) (*models.Deal, error)
}

// Column is one stage with its deals and summed value.
type Column struct {
	Stage models.Stage
	Deals []models.Deal
	Total float64
}

// Board holds the deals of one pipeline view and tracks a single drag at a time.
type Board struct {
	mu       sync.Mutex
	updater  StageUpdater
	deals    []models.Deal
	stages   []models.Stage
	contacts map[int64]string

	state   State
	dragged *models.Deal
	over    string
}

// New builds a board over copies of the given deals and stages.
func New(updater StageUpdater, deals []models.Deal, stages []models.Stage, contacts []models.Contact) *Board {
	return &Board{
		updater:  updater,
		deals:    append([]models.Deal(nil), deals...),
		stages:   append([]models.Stage(nil), stages...),
		contacts: services.ContactNames(contacts),
	}
}

// FromPipeline builds a board from loaded pipeline data.
func FromPipeline(updater StageUpdater, data *services.PipelineData) *Board {
	return New(updater, data.Deals, data.Stages, data.Contacts)
}

func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stages returns the board's stages in display order.
func (b *Board) Stages() []models.Stage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Stage(nil), b.stages...)
}

// Deal returns a copy of the deal with id.
func (b *Board) Deal(id int64) (models.Deal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d := b.find(id); d != nil {
		return *d, true
	}
	return models.Deal{}, false
}

// Dragged returns the deal being dragged, if any.
func (b *Board) Dragged() (models.Deal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dragged == nil {
		return models.Deal{}, false
	}
	return *b.dragged, true
}

// Hovered returns the stage key the dragged deal is over.
func (b *Board) Hovered() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.over
}

// ContactName resolves a deal's contact, falling back to the unknown placeholder.
func (b *Board) ContactName(id int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return services.ContactName(b.contacts, id)
}

// DealsByStage returns deals whose stage equals name, ignoring case.
func (b *Board) DealsByStage(name string) []models.Deal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dealsByStage(strings.ToLower(name))
}

func (b *Board) dealsByStage(key string) []models.Deal {
	out := []models.Deal{}
	for _, d := range b.deals {
		if strings.ToLower(d.Stage) == key {
			out = append(out, d)
		}
	}
	return out
}

// StageValue sums the value of the deals in a stage.
func (b *Board) StageValue(name string) float64 {
	var total float64
	for _, d := range b.DealsByStage(name) {
		total += d.Value
	}
	return total
}

// Columns lays the deals out by stage. Deals whose stage matches no column are omitted.
func (b *Board) Columns() []Column {
	b.mu.Lock()
	defer b.mu.Unlock()

	cols := make([]Column, 0, len(b.stages))
	for _, st := range b.stages {
		col := Column{Stage: st, Deals: b.dealsByStage(st.Key())}
		for _, d := range col.Deals {
			col.Total += d.Value
		}
		cols = append(cols, col)
	}
	return cols
}

func (b *Board) find(id int64) *models.Deal {
	for i := range b.deals {
		if b.deals[i].ID == id {
			return &b.deals[i]
		}
	}
	return nil
}

func (b *Board) knownStage(key string) bool {
	if len(b.stages) == 0 {
		return true
	}
	for _, st := range b.stages {
		if st.Key() == key {
			return true
		}
	}
	return false
}

// Grab starts dragging a deal. Only valid while idle.
func (b *Board) Grab(dealID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Dragging:
		return ErrAlreadyDragging
	case Pending:
		return ErrUpdatePending
	}
	d := b.find(dealID)
	if d == nil {
		return fmt.Errorf("%w: %d", ErrUnknownDeal, dealID)
	}
	b.dragged = d
	b.over = strings.ToLower(d.Stage)
	b.state = Dragging
	return nil
}

// Move records the stage column the dragged deal is hovering over.
func (b *Board) Move(stage string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Dragging {
		return ErrNotDragging
	}
	key := strings.ToLower(strings.TrimSpace(stage))
	if !b.knownStage(key) {
		return fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	b.over = key
	return nil
}

// Cancel abandons the drag without any update.
func (b *Board) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Dragging {
		b.reset()
	}
}

func (b *Board) reset() {
	b.state = Idle
	b.dragged = nil
	b.over = ""
}

// Release drops the dragged deal on the hovered stage.
func (b *Board) Release(ctx context.Context) (Notice, error) {
	return b.ReleaseOver(ctx, b.Hovered())
}

// ReleaseOver drops the dragged deal on stage. Dropping on the deal's
// current stage is a no-op. Otherwise exactly one stage update is issued;
// on success only the local stage field is patched, on failure local state
// is left as it was.
func (b *Board) ReleaseOver(ctx context.Context, stage string) (Notice, error) {
	b.mu.Lock()
	if b.state != Dragging || b.dragged == nil {
		b.mu.Unlock()
		return Notice{}, ErrNotDragging
	}
	target := strings.ToLower(strings.TrimSpace(stage))
	if !b.knownStage(target) {
		b.mu.Unlock()
		return Notice{}, fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	if target == "" || target == strings.ToLower(b.dragged.Stage) {
		b.reset()
		b.mu.Unlock()
		return Notice{}, nil
	}
	dealID := b.dragged.ID
	b.state = Pending
	b.mu.Unlock()

	_, err := b.updater.UpdateStage(ctx, dealID, target)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
	if err != nil {
		return Notice{Kind: NoticeError, Message: MsgMoveFailed}, fmt.Errorf("failed to move deal %d: %w", dealID, err)
	}
	if d := b.find(dealID); d != nil {
		d.Stage = target
	}
	return Notice{Kind: NoticeSuccess, Message: fmt.Sprintf(movedFormat, target)}, nil
}

// Drop is Grab followed by ReleaseOver, for callers without pointer events.
func (b *Board) Drop(ctx context.Context, dealID int64, stage string) (Notice, error) {
	if err := b.Grab(dealID); err != nil {
		return Notice{}, err
	}
	n, err := b.ReleaseOver(ctx, stage)
	if errors.Is(err, ErrUnknownStage) {
		b.Cancel()
	}
	return n, err
}
