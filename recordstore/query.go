// ABOUTME: Query model for record fetches and its in-process evaluator
// ABOUTME: Supports projection, where conditions, where groups, ordering, and paging
package recordstore

import (
	"fmt"
	"sort"
	"strings"
)

// Operator is a where-condition comparison.
type Operator string

const (
	OpEqualTo        Operator = "EqualTo"
	OpNotEqualTo     Operator = "NotEqualTo"
	OpContains       Operator = "Contains"
	OpDoesNotContain Operator = "DoesNotContain"
	OpGreaterThan    Operator = "GreaterThan"
	OpLessThan       Operator = "LessThan"
	OpExactMatch     Operator = "ExactMatch"
	OpIn             Operator = "In"
	OpHasValue       Operator = "HasValue"
)

// GroupOperator joins the conditions of a WhereGroup.
type GroupOperator string

const (
	GroupAnd GroupOperator = "AND"
	GroupOr  GroupOperator = "OR"
)

// SortType is an ordering direction.
type SortType string

const (
	SortAsc  SortType = "ASC"
	SortDesc SortType = "DESC"
)

type Condition struct {
	FieldName string   `json:"FieldName"`
	Operator  Operator `json:"Operator"`
	Values    []any    `json:"Values,omitempty"`
}

type WhereGroup struct {
	Operator   GroupOperator `json:"operator"`
	Conditions []Condition   `json:"conditions"`
}

type OrderBy struct {
	FieldName string   `json:"fieldName"`
	SortType  SortType `json:"sorttype"`
}

type PagingInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Query describes a record fetch. Where conditions are ANDed; each group is
// evaluated with its own operator and groups are ANDed with the conditions.
type Query struct {
	Fields      []string     `json:"fields,omitempty"`
	Where       []Condition  `json:"where,omitempty"`
	WhereGroups []WhereGroup `json:"whereGroups,omitempty"`
	OrderBy     []OrderBy    `json:"orderBy,omitempty"`
	PagingInfo  *PagingInfo  `json:"pagingInfo,omitempty"`
}

// Where builds a single-condition query.
func Where(field string, op Operator, values ...any) Query {
	return Query{Where: []Condition{{FieldName: field, Operator: op, Values: values}}}
}

// Sorted returns a copy of q with an ordering appended.
func (q Query) Sorted(field string, dir SortType) Query {
	q.OrderBy = append(append([]OrderBy(nil), q.OrderBy...), OrderBy{FieldName: field, SortType: dir})
	return q
}

// Limit returns a copy of q with paging set.
func (q Query) Limit(limit, offset int) Query {
	q.PagingInfo = &PagingInfo{Limit: limit, Offset: offset}
	return q
}

// Validate rejects operators the evaluator does not understand.
func (q Query) Validate() error {
	check := func(c Condition) error {
		switch c.Operator {
		case OpEqualTo, OpNotEqualTo, OpContains, OpDoesNotContain, OpGreaterThan,
			OpLessThan, OpExactMatch, OpIn, OpHasValue:
		default:
			return fmt.Errorf("unsupported operator %q on field %s", c.Operator, c.FieldName)
		}
		if c.FieldName == "" {
			return fmt.Errorf("condition missing field name")
		}
		return nil
	}
	for _, c := range q.Where {
		if err := check(c); err != nil {
			return err
		}
	}
	for _, g := range q.WhereGroups {
		if g.Operator != GroupAnd && g.Operator != GroupOr && g.Operator != "" {
			return fmt.Errorf("unsupported group operator %q", g.Operator)
		}
		for _, c := range g.Conditions {
			if err := check(c); err != nil {
				return err
			}
		}
	}
	if q.PagingInfo != nil && (q.PagingInfo.Limit < 0 || q.PagingInfo.Offset < 0) {
		return fmt.Errorf("paging values must not be negative")
	}
	return nil
}

// Matches reports whether r satisfies every condition and group of q.
func (q Query) Matches(r Record) bool {
	for _, c := range q.Where {
		if !c.Matches(r) {
			return false
		}
	}
	for _, g := range q.WhereGroups {
		if !g.Matches(r) {
			return false
		}
	}
	return true
}

func (g WhereGroup) Matches(r Record) bool {
	if len(g.Conditions) == 0 {
		return true
	}
	if g.Operator == GroupOr {
		for _, c := range g.Conditions {
			if c.Matches(r) {
				return true
			}
		}
		return false
	}
	for _, c := range g.Conditions {
		if !c.Matches(r) {
			return false
		}
	}
	return true
}

func (c Condition) Matches(r Record) bool {
	field, present := r[c.FieldName]

	switch c.Operator {
	case OpHasValue:
		return present && !isEmpty(field)
	case OpNotEqualTo:
		return !anyValue(c.Values, func(v any) bool { return looseEqual(field, v) })
	case OpDoesNotContain:
		return !anyValue(c.Values, func(v any) bool { return contains(field, v) })
	}

	if !present {
		return false
	}

	switch c.Operator {
	case OpEqualTo, OpIn:
		return anyValue(c.Values, func(v any) bool { return looseEqual(field, v) })
	case OpExactMatch:
		return anyValue(c.Values, func(v any) bool { return fmt.Sprint(field) == fmt.Sprint(v) })
	case OpContains:
		return anyValue(c.Values, func(v any) bool { return contains(field, v) })
	case OpGreaterThan:
		return anyValue(c.Values, func(v any) bool { return compare(field, v) > 0 })
	case OpLessThan:
		return anyValue(c.Values, func(v any) bool { return compare(field, v) < 0 })
	}
	return false
}

// Apply filters, orders, pages, and projects records. The input slice is not modified.
func (q Query) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if q.Matches(r) {
			out = append(out, r)
		}
	}

	if len(q.OrderBy) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.OrderBy {
				cmp := compare(out[i][o.FieldName], out[j][o.FieldName])
				if cmp == 0 {
					continue
				}
				if o.SortType == SortDesc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if p := q.PagingInfo; p != nil {
		if p.Offset >= len(out) {
			out = out[:0]
		} else {
			out = out[p.Offset:]
		}
		if p.Limit > 0 && p.Limit < len(out) {
			out = out[:p.Limit]
		}
	}

	projected := make([]Record, len(out))
	for i, r := range out {
		projected[i] = r.Project(q.Fields)
	}
	return projected
}

func anyValue(values []any, fn func(any) bool) bool {
	for _, v := range values {
		if fn(v) {
			return true
		}
	}
	return false
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	}
	return false
}

func looseEqual(field, v any) bool {
	if a, ok := toFloat(field); ok {
		if b, ok := toFloat(v); ok {
			return a == b
		}
	}
	return strings.EqualFold(fmt.Sprint(field), fmt.Sprint(v))
}

// contains does case-insensitive substring matching on strings and
// membership on lists.
func contains(field, v any) bool {
	needle := strings.ToLower(fmt.Sprint(v))
	switch val := field.(type) {
	case []string:
		for _, item := range val {
			if strings.EqualFold(item, needle) {
				return true
			}
		}
		return false
	case []any:
		for _, item := range val {
			if strings.EqualFold(fmt.Sprint(item), needle) {
				return true
			}
		}
		return false
	case nil:
		return false
	}
	return strings.Contains(strings.ToLower(fmt.Sprint(field)), needle)
}

// compare orders numbers numerically and everything else as strings.
// Missing values sort first.
func compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
