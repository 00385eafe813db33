// ABOUTME: Tests for the web pages, pipeline drop target, and JSON API
// ABOUTME: Drives the echo router with httptest against a seeded memory store
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/dealdeck/board"
	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/recordstore"
	"github.com/harperreed/dealdeck/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

type countingStore struct {
	recordstore.Store
	updates int
}

func (c *countingStore) UpdateRecords(ctx context.Context, table string, records []recordstore.Record) (recordstore.BatchResult, error) {
	c.updates++
	return c.Store.UpdateRecords(ctx, table, records)
}

type brokenStore struct {
	recordstore.Store
}

func (brokenStore) FetchRecords(context.Context, string, recordstore.Query) ([]recordstore.Record, error) {
	return nil, errors.New("store unavailable")
}

func newTestServer(t *testing.T) (*Server, *countingStore) {
	t.Helper()
	mem := recordstore.NewMemoryStore()
	_, err := recordstore.Seed(context.Background(), mem)
	require.NoError(t, err)

	store := &countingStore{Store: mem}
	svc := services.New(store, services.Options{Now: func() time.Time { return fixedNow }})
	srv, err := NewServer(svc, Options{Store: store, RecordsToken: testRecordsToken})
	require.NoError(t, err)
	return srv, store
}

const testRecordsToken = "records-secret"

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func get(srv *Server, target string) *httptest.ResponseRecorder {
	return do(srv, httptest.NewRequest(http.MethodGet, target, nil))
}

func postForm(srv *Server, target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return do(srv, req)
}

func noticeOf(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return loc.Query().Get("notice"), loc.Query().Get("kind")
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(srv, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestDashboardPage(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `data-metric="active-deals">8<`)
	assert.Contains(t, body, `data-metric="pipeline-value">$428K<`)
	assert.Contains(t, body, `data-stage-total="negotiation"`)
}

func TestContactsPageFilters(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/contacts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Manage your 8 contacts")
	assert.Contains(t, rec.Body.String(), "Sarah Johnson")

	rec = get(srv, "/contacts?status=lead")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Michael Chen")
	assert.NotContains(t, body, "Sarah Johnson")

	rec = get(srv, "/contacts?q=nobody-matches-this")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No contacts found")
	assert.Contains(t, rec.Body.String(), "Try adjusting your filters or search query")
}

func TestCreateContactRedirectsWithNotice(t *testing.T) {
	srv, store := newTestServer(t)

	rec := postForm(srv, "/contacts", url.Values{
		"name":   {"Nina Patel"},
		"email":  {"nina@example.com"},
		"status": {"lead"},
		"tags":   {"new, inbound"},
	}, false)
	msg, kind := noticeOf(t, rec)
	assert.Equal(t, board.MsgContactAdded, msg)
	assert.Equal(t, "success", kind)
	assert.Equal(t, 9, store.Store.(*recordstore.MemoryStore).Len(recordstore.TableContacts))

	rec = postForm(srv, "/contacts", url.Values{"email": {"nobody@example.com"}}, false)
	msg, kind = noticeOf(t, rec)
	assert.Equal(t, board.MsgContactAddFailed, msg)
	assert.Equal(t, "error", kind)
}

func TestDeleteContact(t *testing.T) {
	srv, _ := newTestServer(t)

	msg, kind := noticeOf(t, postForm(srv, "/contacts/4/delete", nil, false))
	assert.Equal(t, board.MsgContactDeleted, msg)
	assert.Equal(t, "success", kind)

	msg, kind = noticeOf(t, postForm(srv, "/contacts/4/delete", nil, false))
	assert.Equal(t, board.MsgContactDelFailed, msg)
	assert.Equal(t, "error", kind)
}

func TestNoticeFromQueryIsShown(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(srv, "/contacts?notice=Contact+added+successfully%21&kind=success")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Contact added successfully!")
	assert.Contains(t, rec.Body.String(), "bg-green-600")
}

func TestEditContactIsComingSoon(t *testing.T) {
	srv, _ := newTestServer(t)
	msg, kind := noticeOf(t, get(srv, "/contacts/1/edit"))
	assert.Equal(t, board.MsgEditComingSoon, msg)
	assert.Equal(t, "info", kind)
}

func TestContactDetail(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/contacts/1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Sarah Johnson")
	assert.Contains(t, body, "Enterprise Platform License")
	assert.Contains(t, body, "Compliance Reporting Module")

	assert.Equal(t, http.StatusNotFound, get(srv, "/contacts/999").Code)
	assert.Equal(t, http.StatusBadRequest, get(srv, "/contacts/abc").Code)
}

func TestPipelinePage(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(srv, "/pipeline")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "$428K total value across 8 deals")
	assert.Contains(t, body, `data-stage="discovery"`)
	assert.Contains(t, body, `data-deal-id="4"`)
	assert.Contains(t, body, "Lisa Thompson")
}

func TestPipelineEmptyState(t *testing.T) {
	svc := services.New(recordstore.NewMemoryStore(), services.Options{})
	srv, err := NewServer(svc, Options{})
	require.NoError(t, err)

	rec := get(srv, "/pipeline")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No deals in pipeline")
}

func TestMoveDealWithHTMXReturnsBoard(t *testing.T) {
	srv, store := newTestServer(t)

	rec := postForm(srv, "/pipeline/move", url.Values{"deal_id": {"2"}, "stage": {"qualified"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(strings.TrimSpace(body), `<div id="board"`))
	assert.Contains(t, body, "Deal moved to qualified")
	assert.NotContains(t, body, "<html")
	assert.Equal(t, 1, store.updates)

	deal, err := services.New(store, services.Options{}).Deals.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, models.StageQualified, deal.Stage)
}

func TestMoveDealToSameStageIsNoOp(t *testing.T) {
	srv, store := newTestServer(t)

	rec := postForm(srv, "/pipeline/move", url.Values{"deal_id": {"2"}, "stage": {"discovery"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Deal moved")
	assert.Zero(t, store.updates)
}

func TestMoveDealWithoutHTMXRedirects(t *testing.T) {
	srv, _ := newTestServer(t)

	msg, kind := noticeOf(t, postForm(srv, "/pipeline/move", url.Values{"deal_id": {"5"}, "stage": {"proposal"}}, false))
	assert.Equal(t, "Deal moved to proposal", msg)
	assert.Equal(t, "success", kind)

	msg, kind = noticeOf(t, postForm(srv, "/pipeline/move", url.Values{"deal_id": {"5"}, "stage": {"bogus"}}, false))
	assert.Equal(t, "Failed to update deal stage", msg)
	assert.Equal(t, "error", kind)

	rec := postForm(srv, "/pipeline/move", url.Values{"deal_id": {"x"}, "stage": {"proposal"}}, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPipelineGraphDot(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(srv, "/pipeline/graph?format=dot")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/vnd.graphviz")
	assert.Contains(t, rec.Body.String(), "digraph")

	assert.Equal(t, http.StatusBadRequest, get(srv, "/pipeline/graph?format=png").Code)
}

func TestErrorPageOnStoreFailure(t *testing.T) {
	svc := services.New(brokenStore{Store: recordstore.NewMemoryStore()}, services.Options{ReadPolicy: services.ReadFail})
	srv, err := NewServer(svc, Options{})
	require.NoError(t, err)

	rec := get(srv, "/pipeline")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Oops! Something went wrong")
	assert.Contains(t, body, `href="/pipeline"`)
	assert.Contains(t, body, "Try Again")
}

func TestAPIContacts(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(srv, "/api/v1/contacts?status=inactive")
	require.Equal(t, http.StatusOK, rec.Code)
	var contacts []models.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contacts))
	require.Len(t, contacts, 1)
	assert.Equal(t, "David Park", contacts[0].Name)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contacts", strings.NewReader(`{"name":"Omar Reyes","email":"omar@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = do(srv, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, models.StatusLead, created.Status)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/contacts", strings.NewReader(`{"email":"x@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(srv, req).Code)

	rec = get(srv, "/api/v1/contacts/1")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail services.ContactDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Len(t, detail.Deals, 2)

	assert.Equal(t, http.StatusNotFound, get(srv, "/api/v1/contacts/404").Code)
	assert.Equal(t, http.StatusNoContent, do(srv, httptest.NewRequest(http.MethodDelete, "/api/v1/contacts/9", nil)).Code)
}

func TestAPIMoveDeal(t *testing.T) {
	srv, store := newTestServer(t)

	patch := func(target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return do(srv, req)
	}

	rec := patch("/api/v1/deals/3/stage", `{"stage":"negotiation"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp moveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Deal moved to negotiation", resp.Notice.Message)
	assert.Equal(t, "negotiation", resp.Deal.Stage)
	assert.Equal(t, 1, store.updates)

	assert.Equal(t, http.StatusNotFound, patch("/api/v1/deals/99/stage", `{"stage":"proposal"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch("/api/v1/deals/3/stage", `{"stage":"bogus"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch("/api/v1/deals/3/stage", `{}`).Code)
	assert.Equal(t, 1, store.updates)
}

func TestAPIListings(t *testing.T) {
	srv, _ := newTestServer(t)

	var deals []models.Deal
	rec := get(srv, "/api/v1/deals?stage=discovery")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deals))
	assert.Len(t, deals, 2)

	rec = get(srv, "/api/v1/deals?stage=Discovery")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deals))
	assert.Len(t, deals, 2)

	rec = get(srv, "/api/v1/deals?contact_id=1")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deals))
	assert.Len(t, deals, 2)

	var stages []models.Stage
	rec = get(srv, "/api/v1/stages")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stages))
	require.Len(t, stages, 4)
	assert.Equal(t, "Discovery", stages[0].Name)

	var activities []models.Activity
	rec = get(srv, "/api/v1/activities?limit=3")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &activities))
	assert.Len(t, activities, 3)
	assert.Equal(t, http.StatusBadRequest, get(srv, "/api/v1/activities?limit=0").Code)

	var metrics map[string]any
	rec = get(srv, "/api/v1/dashboard")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.EqualValues(t, 8, metrics["total_contacts"])
}

func TestRecordAPIMounted(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/contact_c/1", nil)
	req.Header.Set("Authorization", "Bearer "+testRecordsToken)
	rec := do(srv, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Success bool               `json:"success"`
		Data    recordstore.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "Sarah Johnson", env.Data["Name"])
}

func TestRecordAPIRequiresToken(t *testing.T) {
	srv, store := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/records/contact_c", strings.NewReader(`{"recordIds":[1]}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnauthorized, do(srv, req).Code)

	_, err := store.GetRecordByID(context.Background(), recordstore.TableContacts, 1, recordstore.Query{})
	assert.NoError(t, err)
}

func TestRecordAPINeedsConfiguredToken(t *testing.T) {
	svc := services.New(recordstore.NewMemoryStore(), services.Options{})
	_, err := NewServer(svc, Options{Store: recordstore.NewMemoryStore()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "records_token")
}

func TestCrossOriginWritesRefused(t *testing.T) {
	srv, store := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/contacts/1", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := do(srv, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/deals/2/stage", strings.NewReader(`{"stage":"qualified"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, do(srv, req).Code)
	assert.Equal(t, 0, store.updates)

	_, err := store.GetRecordByID(context.Background(), recordstore.TableContacts, 1, recordstore.Query{})
	assert.NoError(t, err)

	// httptest requests target example.com
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/contacts/1", nil)
	req.Header.Set("Origin", "http://example.com")
	assert.Equal(t, http.StatusNoContent, do(srv, req).Code)
}

func TestAllowedOriginGetsCORS(t *testing.T) {
	mem := recordstore.NewMemoryStore()
	_, err := recordstore.Seed(context.Background(), mem)
	require.NoError(t, err)
	svc := services.New(mem, services.Options{})
	srv, err := NewServer(svc, Options{AllowedOrigins: []string{"https://crm.example.com"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stages", nil)
	req.Header.Set("Origin", "https://crm.example.com")
	rec := do(srv, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://crm.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/contacts/2", nil)
	req.Header.Set("Origin", "https://crm.example.com")
	assert.Equal(t, http.StatusNoContent, do(srv, req).Code)
}
