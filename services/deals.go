// ABOUTME: Deal data access over the record store
// ABOUTME: Implements list, lookup by id and contact, create, update, stage change, and delete
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/recordstore"
	"go.uber.org/zap"
)

type DealService struct {
	base
}

func (s *DealService) GetAll(ctx context.Context) ([]models.Deal, error) {
	return s.fetch(ctx, recordstore.Query{})
}

func (s *DealService) fetch(ctx context.Context, q recordstore.Query) ([]models.Deal, error) {
	records, err := s.store.FetchRecords(ctx, recordstore.TableDeals, q)
	if err != nil {
		return []models.Deal{}, s.readFailed("deals", err)
	}
	deals := make([]models.Deal, 0, len(records))
	for _, r := range records {
		deals = append(deals, dealFromRecord(r))
	}
	return deals, nil
}

func (s *DealService) GetByID(ctx context.Context, id int64) (*models.Deal, error) {
	r, err := s.store.GetRecordByID(ctx, recordstore.TableDeals, id, recordstore.Query{})
	if errors.Is(err, recordstore.ErrRecordNotFound) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		s.log.Error("failed to fetch deal", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch deal %d: %w", id, err)
	}
	d := dealFromRecord(r)
	return &d, nil
}

func (s *DealService) GetByContactID(ctx context.Context, contactID int64) ([]models.Deal, error) {
	return s.fetch(ctx, recordstore.Where(FieldContactID, recordstore.OpEqualTo, contactID))
}

func (s *DealService) Create(ctx context.Context, d models.Deal) (*models.Deal, error) {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if d.Value < 0 {
		return nil, fmt.Errorf("%w: value must not be negative", ErrInvalidInput)
	}
	if d.Probability < 0 || d.Probability > 100 {
		return nil, fmt.Errorf("%w: probability must be between 0 and 100", ErrInvalidInput)
	}
	if d.Stage == "" {
		d.Stage = models.StageDiscovery
	}
	d.Stage = strings.ToLower(d.Stage)

	now := s.now()
	d.ID = 0
	d.CreatedAt = now
	d.UpdatedAt = now

	result, err := s.store.CreateRecords(ctx, recordstore.TableDeals, []recordstore.Record{dealToRecord(d)})
	r, err := s.writeOne("deal", result, err)
	if err != nil {
		return nil, err
	}
	created := dealFromRecord(r)
	return &created, nil
}

func (s *DealService) Update(ctx context.Context, d models.Deal) (*models.Deal, error) {
	if d.ID <= 0 {
		return nil, fmt.Errorf("%w: deal id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(d.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	d.UpdatedAt = s.now()

	r := dealToRecord(d)
	delete(r, FieldCreatedOn)
	return s.update(ctx, r)
}

// UpdateStage changes only the stage field (and the modification time).
func (s *DealService) UpdateStage(ctx context.Context, id int64, stage string) (*models.Deal, error) {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return nil, fmt.Errorf("%w: stage is required", ErrInvalidInput)
	}
	return s.update(ctx, recordstore.Record{
		recordstore.FieldID: id,
		FieldStage:          stage,
		FieldModifiedOn:     formatTime(s.now()),
	})
}

func (s *DealService) update(ctx context.Context, r recordstore.Record) (*models.Deal, error) {
	result, err := s.store.UpdateRecords(ctx, recordstore.TableDeals, []recordstore.Record{r})
	updated, err := s.writeOne("deal", result, err)
	if errors.Is(err, recordstore.ErrRecordNotFound) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, err
	}
	d := dealFromRecord(updated)
	return &d, nil
}

func (s *DealService) Delete(ctx context.Context, id int64) error {
	result, err := s.store.DeleteRecords(ctx, recordstore.TableDeals, []int64{id})
	_, err = s.writeOne("deal", result, err)
	if errors.Is(err, recordstore.ErrRecordNotFound) {
		return ErrDealNotFound
	}
	return err
}
