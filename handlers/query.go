// ABOUTME: Universal query tool handler
// ABOUTME: Runs filtered, sorted, paged record queries against any CRM table
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealdeck/recordstore"
	"github.com/harperreed/dealdeck/services"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type QueryHandlers struct {
	store recordstore.Store
}

func NewQueryHandlers(store recordstore.Store) *QueryHandlers {
	return &QueryHandlers{store: store}
}

var entityTables = map[string]string{
	"contact":  recordstore.TableContacts,
	"deal":     recordstore.TableDeals,
	"activity": recordstore.TableActivities,
	"stage":    recordstore.TableStages,
}

// searchFields are matched by the free-text query of each entity type.
var searchFields = map[string][]string{
	"contact":  {services.FieldName, services.FieldEmail, services.FieldCompany},
	"deal":     {services.FieldName, services.FieldNotes},
	"activity": {services.FieldDescription},
	"stage":    {services.FieldName},
}

type QueryFilter struct {
	Field    string `json:"field" jsonschema:"Record field name, e.g. stage_c or status_c"`
	Operator string `json:"operator,omitempty" jsonschema:"EqualTo, NotEqualTo, Contains, DoesNotContain, GreaterThan, LessThan, ExactMatch, In, or HasValue (default EqualTo)"`
	Values   []any  `json:"values,omitempty" jsonschema:"Values to compare against"`
}

type QueryCRMInput struct {
	EntityType string        `json:"entity_type" jsonschema:"Type of entity to query (contact, deal, activity, stage)"`
	Query      string        `json:"query,omitempty" jsonschema:"Free-text search across the entity's name-like fields"`
	Filters    []QueryFilter `json:"filters,omitempty" jsonschema:"Conditions that must all hold"`
	Fields     []string      `json:"fields,omitempty" jsonschema:"Fields to return (default all)"`
	OrderBy    string        `json:"order_by,omitempty" jsonschema:"Field to sort by"`
	Descending bool          `json:"descending,omitempty" jsonschema:"Sort descending"`
	Limit      int           `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
	Offset     int           `json:"offset,omitempty" jsonschema:"Number of results to skip"`
}

type QueryCRMOutput struct {
	EntityType string               `json:"entity_type"`
	Results    []recordstore.Record `json:"results"`
	Count      int                  `json:"count"`
}

func (h *QueryHandlers) QueryCRM(ctx context.Context, _ *mcp.CallToolRequest, input QueryCRMInput) (*mcp.CallToolResult, QueryCRMOutput, error) {
	entity := strings.ToLower(strings.TrimSpace(input.EntityType))
	table, ok := entityTables[entity]
	if !ok {
		return nil, QueryCRMOutput{}, fmt.Errorf("invalid entity_type: %s (valid: contact, deal, activity, stage)", input.EntityType)
	}

	q, err := buildQuery(entity, input)
	if err != nil {
		return nil, QueryCRMOutput{}, err
	}

	records, err := h.store.FetchRecords(ctx, table, q)
	if err != nil {
		return nil, QueryCRMOutput{}, fmt.Errorf("failed to query %s: %w", entity, err)
	}
	if records == nil {
		records = []recordstore.Record{}
	}

	return nil, QueryCRMOutput{
		EntityType: entity,
		Results:    records,
		Count:      len(records),
	}, nil
}

func buildQuery(entity string, input QueryCRMInput) (recordstore.Query, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}

	q := recordstore.Query{Fields: input.Fields}
	for _, f := range input.Filters {
		op := recordstore.Operator(f.Operator)
		if op == "" {
			op = recordstore.OpEqualTo
		}
		q.Where = append(q.Where, recordstore.Condition{FieldName: f.Field, Operator: op, Values: f.Values})
	}

	if text := strings.TrimSpace(input.Query); text != "" {
		group := recordstore.WhereGroup{Operator: recordstore.GroupOr}
		for _, field := range searchFields[entity] {
			group.Conditions = append(group.Conditions, recordstore.Condition{
				FieldName: field,
				Operator:  recordstore.OpContains,
				Values:    []any{text},
			})
		}
		q.WhereGroups = append(q.WhereGroups, group)
	}

	if input.OrderBy != "" {
		dir := recordstore.SortAsc
		if input.Descending {
			dir = recordstore.SortDesc
		}
		q = q.Sorted(input.OrderBy, dir)
	}
	q = q.Limit(limit, input.Offset)

	if err := q.Validate(); err != nil {
		return recordstore.Query{}, fmt.Errorf("invalid query: %w", err)
	}
	return q, nil
}
