package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/harperreed/dealdeck/recordstore"
	"github.com/harperreed/dealdeck/recordstore/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RecordStore {
	t.Helper()
	conn, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	store := NewRecordStore(conn, SQLite)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) recordstore.Store {
		return newTestStore(t)
	})
}

func TestRecordStoreSequencesPerTable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	contacts, err := store.CreateRecords(ctx, recordstore.TableContacts, []recordstore.Record{{"Name": "A"}, {"Name": "B"}})
	require.NoError(t, err)
	deals, err := store.CreateRecords(ctx, recordstore.TableDeals, []recordstore.Record{{"Name": "D"}})
	require.NoError(t, err)

	assert.Equal(t, int64(1), contacts.Outcomes[0].Record.ID())
	assert.Equal(t, int64(2), contacts.Outcomes[1].Record.ID())
	assert.Equal(t, int64(1), deals.First().Record.ID())
}

func TestRecordStoreIgnoresProvidedID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result, err := store.CreateRecords(ctx, recordstore.TableStages, []recordstore.Record{
		{recordstore.FieldID: 99, "Name": "Discovery"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.First().Record.ID())

	_, err = store.GetRecordByID(ctx, recordstore.TableStages, 99, recordstore.Query{})
	assert.ErrorIs(t, err, recordstore.ErrRecordNotFound)
}

func TestRecordStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	conn, err := OpenDatabase(path)
	require.NoError(t, err)
	store := NewRecordStore(conn, SQLite)
	_, err = store.CreateRecords(ctx, recordstore.TableContacts, []recordstore.Record{{"Name": "Kept", "Tags": "vip,tech"}})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	conn, err = OpenDatabase(path)
	require.NoError(t, err)
	store = NewRecordStore(conn, SQLite)
	defer store.Close()

	got, err := store.GetRecordByID(ctx, recordstore.TableContacts, 1, recordstore.Query{Fields: []string{"Name", "Tags"}})
	require.NoError(t, err)
	assert.Equal(t, "Kept", got.String("Name"))
	assert.Equal(t, []string{"vip", "tech"}, got.Strings("Tags"))

	next, err := store.CreateRecords(ctx, recordstore.TableContacts, []recordstore.Record{{"Name": "Next"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.First().Record.ID())
}

func TestRecordStoreRejectsMissingID(t *testing.T) {
	store := newTestStore(t)

	result, err := store.UpdateRecords(context.Background(), recordstore.TableDeals, []recordstore.Record{{"stage_c": "proposal"}})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, recordstore.CodeInvalid, result.Outcomes[0].Code)
	assert.ErrorIs(t, result.Err(), recordstore.ErrInvalidRecord)
}
