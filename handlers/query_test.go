// ABOUTME: Tests for the universal query tool
// ABOUTME: Exercises filters, free-text search, ordering, paging, and validation
package handlers

import (
	"context"
	"testing"

	"github.com/harperreed/dealdeck/recordstore"
)

func TestQueryCRMFiltersAndSorts(t *testing.T) {
	_, store := setupTestServices(t)
	handler := NewQueryHandlers(store)

	_, out, err := handler.QueryCRM(context.Background(), nil, QueryCRMInput{
		EntityType: "deal",
		Filters: []QueryFilter{
			{Field: "stage_c", Values: []any{"negotiation"}},
		},
		OrderBy:    "value_c",
		Descending: true,
	})
	if err != nil {
		t.Fatalf("QueryCRM failed: %v", err)
	}
	if out.Count != 2 {
		t.Fatalf("Expected 2 results, got %d", out.Count)
	}
	if out.Results[0].ID() != 1 || out.Results[1].ID() != 8 {
		t.Errorf("Expected deals 1 then 8, got %d then %d", out.Results[0].ID(), out.Results[1].ID())
	}
}

func TestQueryCRMSearchAndProjection(t *testing.T) {
	_, store := setupTestServices(t)
	handler := NewQueryHandlers(store)

	_, out, err := handler.QueryCRM(context.Background(), nil, QueryCRMInput{
		EntityType: "contact",
		Query:      "techcorp",
		Fields:     []string{"Name"},
	})
	if err != nil {
		t.Fatalf("QueryCRM failed: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("Expected 1 result, got %d", out.Count)
	}
	if out.Results[0].String("Name") != "Sarah Johnson" {
		t.Errorf("Expected Sarah Johnson, got %v", out.Results[0])
	}
	if _, ok := out.Results[0]["email_c"]; ok {
		t.Error("Projection should drop unrequested fields")
	}
}

func TestQueryCRMPaging(t *testing.T) {
	_, store := setupTestServices(t)
	handler := NewQueryHandlers(store)

	_, out, err := handler.QueryCRM(context.Background(), nil, QueryCRMInput{
		EntityType: "activity",
		OrderBy:    recordstore.FieldID,
		Limit:      3,
		Offset:     6,
	})
	if err != nil {
		t.Fatalf("QueryCRM failed: %v", err)
	}
	if out.Count != 3 || out.Results[0].ID() != 7 {
		t.Errorf("Expected activities 7-9, got %+v", out.Results)
	}
}

func TestQueryCRMRejectsBadInput(t *testing.T) {
	_, store := setupTestServices(t)
	handler := NewQueryHandlers(store)
	ctx := context.Background()

	if _, _, err := handler.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "company"}); err == nil {
		t.Error("Expected error for unknown entity type")
	}
	_, _, err := handler.QueryCRM(ctx, nil, QueryCRMInput{
		EntityType: "deal",
		Filters:    []QueryFilter{{Field: "stage_c", Operator: "Like", Values: []any{"x"}}},
	})
	if err == nil {
		t.Error("Expected error for unsupported operator")
	}
}
