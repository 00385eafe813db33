// ABOUTME: Activity data access over the record store
// ABOUTME: Lists newest first and supports contact, deal, recent, and external-ref lookups
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/recordstore"
	"go.uber.org/zap"
)

// DefaultRecentLimit is the GetRecent limit when the caller passes zero.
const DefaultRecentLimit = 10

type ActivityService struct {
	base
}

func newestFirst(q recordstore.Query) recordstore.Query {
	return q.Sorted(FieldTimestamp, recordstore.SortDesc)
}

func (s *ActivityService) fetch(ctx context.Context, q recordstore.Query) ([]models.Activity, error) {
	records, err := s.store.FetchRecords(ctx, recordstore.TableActivities, q)
	if err != nil {
		return []models.Activity{}, s.readFailed("activities", err)
	}
	activities := make([]models.Activity, 0, len(records))
	for _, r := range records {
		activities = append(activities, activityFromRecord(r))
	}
	return activities, nil
}

func (s *ActivityService) GetAll(ctx context.Context) ([]models.Activity, error) {
	return s.fetch(ctx, newestFirst(recordstore.Query{}))
}

func (s *ActivityService) GetByContactID(ctx context.Context, contactID int64) ([]models.Activity, error) {
	return s.fetch(ctx, newestFirst(recordstore.Where(FieldContactID, recordstore.OpEqualTo, contactID)))
}

func (s *ActivityService) GetByDealID(ctx context.Context, dealID int64) ([]models.Activity, error) {
	return s.fetch(ctx, newestFirst(recordstore.Where(FieldDealID, recordstore.OpEqualTo, dealID)))
}

// GetRecent returns at most limit activities, newest first.
func (s *ActivityService) GetRecent(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.fetch(ctx, newestFirst(recordstore.Query{}).Limit(limit, 0))
}

// FindByExternalRef returns the activity imported from ref, or ErrActivityNotFound.
func (s *ActivityService) FindByExternalRef(ctx context.Context, ref string) (*models.Activity, error) {
	q := recordstore.Where(FieldExternalRef, recordstore.OpExactMatch, ref).Limit(1, 0)
	records, err := s.store.FetchRecords(ctx, recordstore.TableActivities, q)
	if err != nil {
		s.log.Error("failed to look up activity", zap.String("external_ref", ref), zap.Error(err))
		return nil, fmt.Errorf("failed to look up activity %s: %w", ref, err)
	}
	if len(records) == 0 {
		return nil, ErrActivityNotFound
	}
	a := activityFromRecord(records[0])
	return &a, nil
}

func (s *ActivityService) prepareNew(a models.Activity) (models.Activity, error) {
	a.Description = strings.TrimSpace(a.Description)
	if a.Description == "" {
		return a, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if a.Type == "" {
		a.Type = models.ActivityOther
	}
	if !models.IsValidActivityType(a.Type) {
		return a, fmt.Errorf("%w: invalid activity type %q (valid: email, call, meeting, other)", ErrInvalidInput, a.Type)
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	a.ID = 0
	return a, nil
}

func (s *ActivityService) Create(ctx context.Context, a models.Activity) (*models.Activity, error) {
	a, err := s.prepareNew(a)
	if err != nil {
		return nil, err
	}
	result, err := s.store.CreateRecords(ctx, recordstore.TableActivities, []recordstore.Record{activityToRecord(a)})
	r, err := s.writeOne("activity", result, err)
	if err != nil {
		return nil, err
	}
	created := activityFromRecord(r)
	return &created, nil
}

// CreateMany creates activities in one batch, logging and skipping failures.
func (s *ActivityService) CreateMany(ctx context.Context, activities []models.Activity) ([]models.Activity, error) {
	payload := make([]recordstore.Record, 0, len(activities))
	for _, a := range activities {
		prepared, err := s.prepareNew(a)
		if err != nil {
			s.log.Warn("skipping activity", zap.String("description", a.Description), zap.Error(err))
			continue
		}
		payload = append(payload, activityToRecord(prepared))
	}
	if len(payload) == 0 {
		return []models.Activity{}, nil
	}

	result, err := s.store.CreateRecords(ctx, recordstore.TableActivities, payload)
	if err != nil {
		s.log.Error("failed to create activities", zap.Error(err))
		return nil, fmt.Errorf("failed to create activities: %w", err)
	}
	s.logFailures("activity", result)

	created := make([]models.Activity, 0, len(payload))
	for _, r := range result.Records() {
		created = append(created, activityFromRecord(r))
	}
	return created, nil
}
