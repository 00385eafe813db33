// ABOUTME: Stage reference data access
// ABOUTME: Lists stages in display order and looks them up by id
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/recordstore"
	"go.uber.org/zap"
)

type StageService struct {
	base
}

func (s *StageService) GetAll(ctx context.Context) ([]models.Stage, error) {
	q := recordstore.Query{}.Sorted(FieldOrder, recordstore.SortAsc)
	records, err := s.store.FetchRecords(ctx, recordstore.TableStages, q)
	if err != nil {
		return []models.Stage{}, s.readFailed("stages", err)
	}
	stages := make([]models.Stage, 0, len(records))
	for _, r := range records {
		stages = append(stages, stageFromRecord(r))
	}
	return stages, nil
}

func (s *StageService) GetByID(ctx context.Context, id int64) (*models.Stage, error) {
	r, err := s.store.GetRecordByID(ctx, recordstore.TableStages, id, recordstore.Query{})
	if errors.Is(err, recordstore.ErrRecordNotFound) {
		return nil, ErrStageNotFound
	}
	if err != nil {
		s.log.Error("failed to fetch stage", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch stage %d: %w", id, err)
	}
	st := stageFromRecord(r)
	return &st, nil
}
