// ABOUTME: Behavioral test suite every record store backend must pass
// ABOUTME: Backends call Run from their own tests with a fresh-store factory
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/dealdeck/recordstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) recordstore.Store

// Run exercises the full Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAssignsIDs", func(t *testing.T) { testCreate(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("UpdateMerges", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("DeleteReportsMissing", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("FetchAppliesQuery", func(t *testing.T) { testFetch(t, newStore(t)) })
	t.Run("UnknownTable", func(t *testing.T) { testUnknownTable(t, newStore(t)) })
	t.Run("Seed", func(t *testing.T) { testSeed(t, newStore(t)) })
}

func testCreate(t *testing.T, s recordstore.Store) {
	ctx := context.Background()
	result, err := s.CreateRecords(ctx, recordstore.TableContacts, []recordstore.Record{
		{"Name": "Jane Doe", "status_c": "lead"},
		{"Name": "Sam Lee", "status_c": "active"},
	})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	created := result.Records()
	require.Len(t, created, 2)
	assert.Greater(t, created[0].ID(), int64(0))
	assert.Greater(t, created[1].ID(), created[0].ID())

	got, err := s.GetRecordByID(ctx, recordstore.TableContacts, created[1].ID(), recordstore.Query{})
	require.NoError(t, err)
	assert.Equal(t, "Sam Lee", got.String("Name"))
	assert.Equal(t, created[1].ID(), got.ID())
}

func testGetMissing(t *testing.T, s recordstore.Store) {
	_, err := s.GetRecordByID(context.Background(), recordstore.TableDeals, 12345, recordstore.Query{})
	assert.True(t, errors.Is(err, recordstore.ErrRecordNotFound), "got %v", err)
}

func testUpdate(t *testing.T, s recordstore.Store) {
	ctx := context.Background()
	result, err := s.CreateRecords(ctx, recordstore.TableDeals, []recordstore.Record{
		{"Name": "Deal", "stage_c": "discovery", "value_c": 1000},
	})
	require.NoError(t, err)
	id := result.First().Record.ID()

	updated, err := s.UpdateRecords(ctx, recordstore.TableDeals, []recordstore.Record{
		{recordstore.FieldID: id, "stage_c": "proposal"},
		{recordstore.FieldID: id + 1000, "stage_c": "proposal"},
	})
	require.NoError(t, err)
	require.Len(t, updated.Outcomes, 2)
	assert.True(t, updated.Outcomes[0].Success)
	assert.Equal(t, "proposal", updated.Outcomes[0].Record.String("stage_c"))
	assert.Equal(t, "Deal", updated.Outcomes[0].Record.String("Name"))
	assert.False(t, updated.Outcomes[1].Success)
	assert.Equal(t, recordstore.CodeNotFound, updated.Outcomes[1].Code)

	got, err := s.GetRecordByID(ctx, recordstore.TableDeals, id, recordstore.Query{})
	require.NoError(t, err)
	assert.Equal(t, "proposal", got.String("stage_c"))
	assert.Equal(t, 1000.0, got.Float("value_c"))
}

func testDelete(t *testing.T, s recordstore.Store) {
	ctx := context.Background()
	result, err := s.CreateRecords(ctx, recordstore.TableActivities, []recordstore.Record{{"description_c": "x"}})
	require.NoError(t, err)
	id := result.First().Record.ID()

	deleted, err := s.DeleteRecords(ctx, recordstore.TableActivities, []int64{id})
	require.NoError(t, err)
	require.NoError(t, deleted.Err())

	again, err := s.DeleteRecords(ctx, recordstore.TableActivities, []int64{id})
	require.NoError(t, err)
	assert.True(t, errors.Is(again.Err(), recordstore.ErrRecordNotFound))

	_, err = s.GetRecordByID(ctx, recordstore.TableActivities, id, recordstore.Query{})
	assert.True(t, errors.Is(err, recordstore.ErrRecordNotFound))
}

func testFetch(t *testing.T, s recordstore.Store) {
	ctx := context.Background()
	_, err := s.CreateRecords(ctx, recordstore.TableDeals, []recordstore.Record{
		{"Name": "A", "value_c": 300, "contact_id_c": 1},
		{"Name": "B", "value_c": 100, "contact_id_c": 2},
		{"Name": "C", "value_c": 200, "contact_id_c": 1},
	})
	require.NoError(t, err)

	all, err := s.FetchRecords(ctx, recordstore.TableDeals, recordstore.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	q := recordstore.Where("contact_id_c", recordstore.OpEqualTo, 1).Sorted("value_c", recordstore.SortAsc)
	byContact, err := s.FetchRecords(ctx, recordstore.TableDeals, q)
	require.NoError(t, err)
	require.Len(t, byContact, 2)
	assert.Equal(t, "C", byContact[0].String("Name"))
	assert.Equal(t, "A", byContact[1].String("Name"))

	paged, err := s.FetchRecords(ctx, recordstore.TableDeals,
		recordstore.Query{Fields: []string{"Name"}}.Sorted("value_c", recordstore.SortDesc).Limit(1, 0))
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "A", paged[0].String("Name"))
	_, hasValue := paged[0]["value_c"]
	assert.False(t, hasValue)
}

func testUnknownTable(t *testing.T, s recordstore.Store) {
	_, err := s.FetchRecords(context.Background(), "bogus_c", recordstore.Query{})
	assert.True(t, errors.Is(err, recordstore.ErrUnknownTable), "got %v", err)
}

func testSeed(t *testing.T, s recordstore.Store) {
	ctx := context.Background()
	report, err := recordstore.Seed(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 8, report[recordstore.TableDeals])

	deals, err := s.FetchRecords(ctx, recordstore.TableDeals, recordstore.Query{})
	require.NoError(t, err)
	for _, d := range deals {
		if cid := d.Int64("contact_id_c"); cid != 0 {
			_, err := s.GetRecordByID(ctx, recordstore.TableContacts, cid, recordstore.Query{})
			assert.NoError(t, err, "deal %d references contact %d", d.ID(), cid)
		}
	}
}
