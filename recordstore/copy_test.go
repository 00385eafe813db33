package recordstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	_, err := Seed(context.Background(), s)
	require.NoError(t, err)
	return s
}

func TestCopyIntoEmptyStore(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t)
	dst := NewMemoryStore()

	report, err := Copy(ctx, src, dst, false)
	require.NoError(t, err)
	assert.Equal(t, 4, report[TableStages])
	assert.Equal(t, 8, report[TableContacts])
	assert.Equal(t, 8, report[TableDeals])
	assert.Equal(t, 9, report[TableActivities])

	for _, table := range Tables() {
		assert.Equal(t, src.Len(table), dst.Len(table), table)
	}
}

func TestCopySkipsPopulatedTablesWithoutForce(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t)
	dst := NewMemoryStore()
	_, err := dst.CreateRecords(ctx, TableStages, []Record{{"Name": "Won"}})
	require.NoError(t, err)

	report, err := Copy(ctx, src, dst, false)
	require.NoError(t, err)
	_, copied := report[TableStages]
	assert.False(t, copied)
	assert.Equal(t, 1, dst.Len(TableStages))
	assert.Equal(t, 8, dst.Len(TableContacts))
}

func TestCopyForceRemapsReferences(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t)
	dst := NewMemoryStore()
	_, err := dst.CreateRecords(ctx, TableContacts, []Record{{"Name": "Already Here"}})
	require.NoError(t, err)

	report, err := Copy(ctx, src, dst, true)
	require.NoError(t, err)
	assert.Equal(t, 8, report[TableContacts])
	assert.Equal(t, 9, dst.Len(TableContacts))

	deals, err := dst.FetchRecords(ctx, TableDeals, Where("Name", OpEqualTo, "Retail Analytics Suite"))
	require.NoError(t, err)
	require.Len(t, deals, 1)

	contact, err := dst.GetRecordByID(ctx, TableContacts, deals[0].Int64("contact_id_c"), Query{})
	require.NoError(t, err)
	assert.Equal(t, "Emily Rodriguez", contact.String("Name"))
}
