// ABOUTME: Tests for deal MCP tool handlers
// ABOUTME: Covers deal creation, filtering, updates, and stage moves
package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/dealdeck/board"
	"github.com/harperreed/dealdeck/services"
)

func TestCreateDealHandler(t *testing.T) {
	svc, _ := setupTestServices(t)
	handler := NewDealHandlers(svc)

	_, out, err := handler.CreateDeal(context.Background(), nil, CreateDealInput{
		Title:             "Support Renewal",
		Value:             12000,
		Stage:             "Proposal",
		Probability:       50,
		ContactID:         3,
		ExpectedCloseDate: "2024-06-30",
	})
	if err != nil {
		t.Fatalf("CreateDeal failed: %v", err)
	}
	if out.Stage != "proposal" {
		t.Errorf("Expected lowercased stage, got %s", out.Stage)
	}
	if out.ContactName != "Emily Rodriguez" {
		t.Errorf("Expected contact name, got %s", out.ContactName)
	}
	if out.ExpectedCloseDate != "2024-06-30" {
		t.Errorf("Expected close date 2024-06-30, got %s", out.ExpectedCloseDate)
	}
}

func TestCreateDealValidation(t *testing.T) {
	svc, _ := setupTestServices(t)
	handler := NewDealHandlers(svc)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateDealInput
	}{
		{"missing title", CreateDealInput{Value: 10}},
		{"bad probability", CreateDealInput{Title: "x", Probability: 120}},
		{"bad date", CreateDealInput{Title: "x", ExpectedCloseDate: "next week"}},
		{"unknown contact", CreateDealInput{Title: "x", ContactID: 999}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := handler.CreateDeal(ctx, nil, tt.input); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestFindDealsHandler(t *testing.T) {
	svc, _ := setupTestServices(t)
	handler := NewDealHandlers(svc)
	ctx := context.Background()

	_, out, err := handler.FindDeals(ctx, nil, FindDealsInput{Stage: "Negotiation"})
	if err != nil {
		t.Fatalf("FindDeals failed: %v", err)
	}
	if out.Count != 2 {
		t.Errorf("Expected 2 negotiation deals, got %d", out.Count)
	}
	if out.TotalValue != 163000 {
		t.Errorf("Expected total 163000, got %v", out.TotalValue)
	}
	for _, d := range out.Deals {
		if d.ContactName != "Sarah Johnson" {
			t.Errorf("Expected Sarah Johnson, got %s", d.ContactName)
		}
	}

	_, out, err = handler.FindDeals(ctx, nil, FindDealsInput{ContactID: 3})
	if err != nil {
		t.Fatalf("FindDeals failed: %v", err)
	}
	if out.Count != 1 || out.Deals[0].Title != "Retail Analytics Suite" {
		t.Errorf("Expected Retail Analytics Suite, got %+v", out.Deals)
	}
}

func TestFindDealsLimitKeepsTotals(t *testing.T) {
	svc, _ := setupTestServices(t)
	handler := NewDealHandlers(svc)

	_, out, err := handler.FindDeals(context.Background(), nil, FindDealsInput{Stage: "negotiation", Limit: 1})
	if err != nil {
		t.Fatalf("FindDeals failed: %v", err)
	}
	if len(out.Deals) != 1 {
		t.Errorf("Expected 1 listed deal, got %d", len(out.Deals))
	}
	if out.Count != 2 {
		t.Errorf("Expected count of all 2 matches, got %d", out.Count)
	}
	if out.TotalValue != 163000 {
		t.Errorf("Expected total 163000 across all matches, got %v", out.TotalValue)
	}
}

func TestUpdateDealHandler(t *testing.T) {
	svc, _ := setupTestServices(t)
	handler := NewDealHandlers(svc)
	ctx := context.Background()

	value := 30000.0
	_, out, err := handler.UpdateDeal(ctx, nil, UpdateDealInput{ID: 2, Value: &value})
	if err != nil {
		t.Fatalf("UpdateDeal failed: %v", err)
	}
	if out.Value != 30000 || out.Title != "Startup Growth Package" {
		t.Errorf("Unexpected deal %+v", out)
	}
	if out.Stage != "discovery" {
		t.Errorf("Stage should be unchanged, got %s", out.Stage)
	}

	bad := 101
	if _, _, err := handler.UpdateDeal(ctx, nil, UpdateDealInput{ID: 2, Probability: &bad}); !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestMoveDealStageHandler(t *testing.T) {
	svc, _ := setupTestServices(t)
	handler := NewDealHandlers(svc)
	ctx := context.Background()

	_, out, err := handler.MoveDealStage(ctx, nil, MoveDealStageInput{ID: 2, Stage: "Qualified"})
	if err != nil {
		t.Fatalf("MoveDealStage failed: %v", err)
	}
	if !out.Moved || out.Stage != "qualified" || out.Message != "Deal moved to qualified" {
		t.Errorf("Unexpected output %+v", out)
	}

	saved, err := svc.Deals.GetByID(ctx, 2)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if saved.Stage != "qualified" {
		t.Errorf("Stored stage = %s, want qualified", saved.Stage)
	}

	_, out, err = handler.MoveDealStage(ctx, nil, MoveDealStageInput{ID: 2, Stage: "qualified"})
	if err != nil {
		t.Fatalf("MoveDealStage failed: %v", err)
	}
	if out.Moved {
		t.Error("Moving to the current stage should be a no-op")
	}
}

func TestMoveDealStageErrors(t *testing.T) {
	svc, _ := setupTestServices(t)
	handler := NewDealHandlers(svc)
	ctx := context.Background()

	if _, _, err := handler.MoveDealStage(ctx, nil, MoveDealStageInput{ID: 999, Stage: "qualified"}); !errors.Is(err, services.ErrDealNotFound) {
		t.Errorf("Expected ErrDealNotFound, got %v", err)
	}
	if _, _, err := handler.MoveDealStage(ctx, nil, MoveDealStageInput{ID: 2, Stage: "won"}); !errors.Is(err, board.ErrUnknownStage) {
		t.Errorf("Expected ErrUnknownStage, got %v", err)
	}
}
