// ABOUTME: Tests for the query evaluator
// ABOUTME: Covers operators, groups, ordering, paging, and projection
package recordstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{FieldID: int64(1), "Name": "Jane Doe", "status_c": "lead", "value_c": 1000.0, "Tags": []string{"vip"}},
		{FieldID: int64(2), "Name": "Sam Lee", "status_c": "active", "value_c": 3000.0, "Tags": []string{}},
		{FieldID: int64(3), "Name": "Ana Ruiz", "status_c": "Active", "value_c": 2000.0},
	}
}

func ids(records []Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID()
	}
	return out
}

func TestConditionOperators(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []int64
	}{
		{"equal ignores case", Where("status_c", OpEqualTo, "active"), []int64{2, 3}},
		{"exact match is strict", Where("status_c", OpExactMatch, "active"), []int64{2}},
		{"not equal", Where("status_c", OpNotEqualTo, "lead"), []int64{2, 3}},
		{"contains substring", Where("Name", OpContains, "LEE"), []int64{2}},
		{"contains list member", Where("Tags", OpContains, "VIP"), []int64{1}},
		{"does not contain", Where("Name", OpDoesNotContain, "a"), []int64{}},
		{"greater than", Where("value_c", OpGreaterThan, 1500), []int64{2, 3}},
		{"less than", Where("value_c", OpLessThan, 1500), []int64{1}},
		{"in", Where(FieldID, OpIn, 1, 3), []int64{1, 3}},
		{"has value", Where("Tags", OpHasValue), []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.q.Apply(sampleRecords())
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestWhereGroups(t *testing.T) {
	q := Query{WhereGroups: []WhereGroup{{
		Operator: GroupOr,
		Conditions: []Condition{
			{FieldName: "Name", Operator: OpContains, Values: []any{"jane"}},
			{FieldName: "Name", Operator: OpContains, Values: []any{"ana"}},
		},
	}}}
	assert.Equal(t, []int64{1, 3}, ids(q.Apply(sampleRecords())))

	q.Where = []Condition{{FieldName: "status_c", Operator: OpEqualTo, Values: []any{"lead"}}}
	assert.Equal(t, []int64{1}, ids(q.Apply(sampleRecords())))
}

func TestOrderAndPaging(t *testing.T) {
	q := Query{}.Sorted("value_c", SortDesc)
	assert.Equal(t, []int64{2, 3, 1}, ids(q.Apply(sampleRecords())))

	q = q.Limit(2, 1)
	assert.Equal(t, []int64{3, 1}, ids(q.Apply(sampleRecords())))

	q = q.Limit(2, 10)
	assert.Empty(t, q.Apply(sampleRecords()))
}

func TestProjectionKeepsID(t *testing.T) {
	got := Query{Fields: []string{"Name"}}.Apply(sampleRecords())
	require.Len(t, got, 3)
	assert.Equal(t, Record{FieldID: int64(1), "Name": "Jane Doe"}, got[0])
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := sampleRecords()
	out := Query{}.Apply(in)
	out[0]["Name"] = "changed"
	assert.Equal(t, "Jane Doe", in[0]["Name"])
}

func TestValidateRejectsUnknownOperator(t *testing.T) {
	err := Where("Name", Operator("Like"), "x").Validate()
	assert.Error(t, err)

	err = Query{PagingInfo: &PagingInfo{Limit: -1}}.Validate()
	assert.Error(t, err)

	assert.NoError(t, Where("Name", OpContains, "x").Validate())
}

func TestRecordAccessors(t *testing.T) {
	r := Record{
		"n":    "42",
		"f":    12.5,
		"when": "2024-01-15T10:30:00Z",
		"day":  "2024-02-01",
		"tags": "a, b,,c",
	}
	assert.Equal(t, int64(42), r.Int64("n"))
	assert.Equal(t, 12.5, r.Float("f"))
	assert.Equal(t, 2024, r.Time("when").Year())
	assert.Equal(t, 2, int(r.Time("day").Month()))
	assert.Nil(t, r.TimePtr("missing"))
	assert.Equal(t, []string{"a", "b", "c"}, r.Strings("tags"))
	assert.Equal(t, []string{}, r.Strings("missing"))
}
