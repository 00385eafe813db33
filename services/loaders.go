// ABOUTME: Page loaders that fan out parallel reads and join them
// ABOUTME: Any failed read fails the whole load so the page can offer a retry
package services

import (
	"context"
	"fmt"

	"github.com/harperreed/dealdeck/models"
	"golang.org/x/sync/errgroup"
)

type DashboardData struct {
	Contacts         []models.Contact
	Deals            []models.Deal
	RecentActivities []models.Activity
}

type PipelineData struct {
	Deals    []models.Deal
	Contacts []models.Contact
	Stages   []models.Stage
}

type ContactDetail struct {
	Contact    models.Contact    `json:"contact"`
	Deals      []models.Deal     `json:"deals"`
	Activities []models.Activity `json:"activities"`
}

// LoadDashboard fetches contacts, deals, and the most recent activities in parallel.
func (s *Services) LoadDashboard(ctx context.Context, recent int) (*DashboardData, error) {
	data := &DashboardData{}
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		data.Contacts, err = s.Contacts.GetAll(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		data.Deals, err = s.Deals.GetAll(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		data.RecentActivities, err = s.Activities.GetRecent(egCtx, recent)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return data, nil
}

// LoadPipeline fetches deals, contacts, and stages in parallel.
func (s *Services) LoadPipeline(ctx context.Context) (*PipelineData, error) {
	data := &PipelineData{}
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		data.Deals, err = s.Deals.GetAll(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		data.Contacts, err = s.Contacts.GetAll(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		data.Stages, err = s.Stages.GetAll(egCtx)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	return data, nil
}

// LoadContactDetail fetches a contact and then its deals and activities in parallel.
func (s *Services) LoadContactDetail(ctx context.Context, id int64) (*ContactDetail, error) {
	contact, err := s.Contacts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &ContactDetail{Contact: *contact}
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		detail.Deals, err = s.Deals.GetByContactID(egCtx, id)
		return err
	})
	eg.Go(func() error {
		var err error
		detail.Activities, err = s.Activities.GetByContactID(egCtx, id)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load contact %d: %w", id, err)
	}
	return detail, nil
}
