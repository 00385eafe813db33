// ABOUTME: Tests for the Google Contacts importer
// ABOUTME: Uses a fake People API pager over a seeded memory store
package sync

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/api/people/v1"

	"github.com/harperreed/dealdeck/models"
)

type fakePeople struct {
	pages [][]*people.Person
	err   error
	calls []string
}

func (f *fakePeople) ListConnections(_ context.Context, pageToken string) (*people.ListConnectionsResponse, error) {
	f.calls = append(f.calls, pageToken)
	if f.err != nil {
		return nil, f.err
	}
	idx := 0
	if pageToken != "" {
		idx = int(pageToken[0] - '0')
	}
	resp := &people.ListConnectionsResponse{Connections: f.pages[idx]}
	if idx+1 < len(f.pages) {
		resp.NextPageToken = string(rune('0' + idx + 1))
	}
	return resp, nil
}

func person(name, email, phone, company string) *people.Person {
	p := &people.Person{ResourceName: "people/" + name}
	if name != "" {
		p.Names = []*people.Name{{DisplayName: name}}
	}
	if email != "" {
		p.EmailAddresses = []*people.EmailAddress{{Value: email}}
	}
	if phone != "" {
		p.PhoneNumbers = []*people.PhoneNumber{{Value: phone}}
	}
	if company != "" {
		p.Organizations = []*people.Organization{{Name: company}}
	}
	return p
}

func TestImportContactsCreatesLeads(t *testing.T) {
	svc, state := setupTestServices(t)
	ctx := context.Background()
	src := &fakePeople{pages: [][]*people.Person{
		{
			person("Alice Smith", "alice@acme.test", "555-1234", "Acme Corp"),
			person("No Email", "", "555-0000", ""),
		},
		{
			person("Bob Jones", "bob@gmail.com", "", ""),
			person("Alice Again", "ALICE@acme.test", "", ""),
		},
	}}

	importer := NewContactsImporter(svc, state, nil)
	report, err := importer.Import(ctx, src)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if report.Fetched != 4 {
		t.Errorf("expected 4 fetched, got %d", report.Fetched)
	}
	if report.Created != 2 {
		t.Errorf("expected 2 created, got %d", report.Created)
	}
	if report.SkipCounts["incomplete"] != 1 {
		t.Errorf("expected 1 incomplete skip, got %v", report.SkipCounts)
	}
	if len(src.calls) != 2 || src.calls[1] != "1" {
		t.Errorf("expected two paged calls, got %v", src.calls)
	}

	all, err := svc.Contacts.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 10 {
		t.Fatalf("expected 10 contacts, got %d", len(all))
	}
	var alice, bob *models.Contact
	for i := range all {
		switch all[i].Email {
		case "alice@acme.test":
			alice = &all[i]
		case "bob@gmail.com":
			bob = &all[i]
		}
	}
	if alice == nil || bob == nil {
		t.Fatal("imported contacts not found")
	}
	if alice.Status != models.StatusLead || !alice.HasTag(ImportTag) {
		t.Errorf("expected tagged lead, got %+v", alice)
	}
	if alice.Company != "Acme Corp" {
		t.Errorf("expected company Acme Corp, got %s", alice.Company)
	}
	if bob.Company != "" {
		t.Errorf("free mail domains should not become a company, got %s", bob.Company)
	}

	st, err := state.Get(ServiceContacts)
	if err != nil {
		t.Fatalf("state.Get failed: %v", err)
	}
	if st == nil || st.Status != models.SyncStatusIdle || st.LastSyncTime == nil {
		t.Errorf("expected idle state with sync time, got %+v", st)
	}
}

func TestImportContactsFillsBlanksOnly(t *testing.T) {
	svc, state := setupTestServices(t)
	ctx := context.Background()

	c, err := svc.Contacts.GetByID(ctx, 3)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	src := &fakePeople{pages: [][]*people.Person{{
		func() *people.Person {
			p := person("Emily R", c.Email, "999", "Other Co")
			p.Biographies = []*people.Biography{{Value: "Met at retail expo"}}
			return p
		}(),
	}}}

	report, err := NewContactsImporter(svc, state, nil).Import(ctx, src)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if report.Created != 0 || report.Updated != 1 {
		t.Errorf("expected one update and no creates, got %+v", report)
	}

	updated, err := svc.Contacts.GetByID(ctx, 3)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Name != c.Name || updated.Phone != c.Phone || updated.Company != c.Company {
		t.Errorf("existing fields should win, got %+v", updated)
	}
	if updated.Notes != "Met at retail expo" {
		t.Errorf("blank notes should be filled, got %q", updated.Notes)
	}
}

func TestImportContactsRecordsError(t *testing.T) {
	svc, state := setupTestServices(t)
	src := &fakePeople{err: errors.New("quota exceeded")}

	if _, err := NewContactsImporter(svc, state, nil).Import(context.Background(), src); err == nil {
		t.Fatal("expected error")
	}
	st, err := state.Get(ServiceContacts)
	if err != nil {
		t.Fatalf("state.Get failed: %v", err)
	}
	if st.Status != models.SyncStatusError || st.ErrorMessage == "" {
		t.Errorf("expected error state, got %+v", st)
	}
}

func TestConvertPersonPrefersPrimary(t *testing.T) {
	p := &people.Person{
		Names: []*people.Name{{DisplayName: "Dana"}},
		EmailAddresses: []*people.EmailAddress{
			{Value: "old@example.com"},
			{Value: "dana@example.com", Metadata: &people.FieldMetadata{Primary: true}},
		},
		Organizations: []*people.Organization{{Name: "Example", Title: "CTO"}},
	}
	gc := convertPerson(p)
	if gc.Email != "dana@example.com" {
		t.Errorf("expected primary email, got %s", gc.Email)
	}
	if gc.JobTitle != "CTO" {
		t.Errorf("expected job title, got %s", gc.JobTitle)
	}
}
