// ABOUTME: Tests for the activity service
// ABOUTME: Covers newest-first ordering, recent limits, lookups, and external refs
package services

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/dealdeck/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertNewestFirst(t *testing.T, activities []models.Activity) {
	t.Helper()
	for i := 1; i < len(activities); i++ {
		assert.False(t, activities[i].Timestamp.After(activities[i-1].Timestamp),
			"activity %d is newer than activity %d", activities[i].ID, activities[i-1].ID)
	}
}

func TestActivitiesNewestFirst(t *testing.T) {
	svc, _ := setupServices(t)

	all, err := svc.Activities.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 9)
	assertNewestFirst(t, all)
	assert.Equal(t, "Discussed contract terms with Sarah", all[0].Description)
}

func TestActivitiesGetRecent(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()

	recent, err := svc.Activities.GetRecent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assertNewestFirst(t, recent)

	defaulted, err := svc.Activities.GetRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, defaulted, 9)
}

func TestActivitiesByContactAndDeal(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()

	byContact, err := svc.Activities.GetByContactID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byContact, 2)
	assertNewestFirst(t, byContact)

	byDeal, err := svc.Activities.GetByDealID(ctx, 3)
	require.NoError(t, err)
	require.Len(t, byDeal, 1)
	assert.Equal(t, models.ActivityMeeting, byDeal[0].Type)
}

func TestActivityCreateAndExternalRef(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()

	_, err := svc.Activities.FindByExternalRef(ctx, "gcal:abc")
	assert.ErrorIs(t, err, ErrActivityNotFound)

	when := time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)
	created, err := svc.Activities.Create(ctx, models.Activity{
		Type:        models.ActivityMeeting,
		Description: "Quarterly review",
		Timestamp:   when,
		ContactID:   1,
		ExternalRef: "gcal:abc",
	})
	require.NoError(t, err)
	assert.True(t, created.Timestamp.Equal(when))

	found, err := svc.Activities.FindByExternalRef(ctx, "gcal:abc")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	recent, err := svc.Activities.GetRecent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly review", recent[0].Description)
}

func TestActivityCreateDefaults(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()

	created, err := svc.Activities.Create(ctx, models.Activity{Description: "Note"})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityOther, created.Type)
	assert.True(t, created.Timestamp.Equal(fixedNow))

	_, err = svc.Activities.Create(ctx, models.Activity{Type: "fax", Description: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	batch, err := svc.Activities.CreateMany(ctx, []models.Activity{{Description: "a"}, {Description: ""}})
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}
