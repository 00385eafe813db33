// ABOUTME: Google Contacts API importer
// ABOUTME: Fetches contacts from the People API and imports them as leads with deduplication
package sync

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/people/v1"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
)

const (
	ServiceContacts = "contacts"
	// ImportTag marks contacts that came from Google.
	ImportTag = "google"
)

type GoogleContact struct {
	ResourceName string
	Name         string
	Email        string
	Phone        string
	Company      string
	JobTitle     string
	Notes        string
}

// ImportReport summarizes one import run.
type ImportReport struct {
	Fetched    int
	Created    int
	Updated    int
	Skipped    int
	SkipCounts map[string]int
}

func (r *ImportReport) skip(reason string) {
	r.Skipped++
	if r.SkipCounts == nil {
		r.SkipCounts = map[string]int{}
	}
	r.SkipCounts[reason]++
}

type ContactsImporter struct {
	svc     *services.Services
	state   *StateStore
	log     *zap.Logger
	matcher *ContactMatcher
}

func NewContactsImporter(svc *services.Services, state *StateStore, log *zap.Logger) *ContactsImporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactsImporter{svc: svc, state: state, log: log}
}

// Import pages through the user's Google contacts and creates a lead for
// every new e-mail address. Known contacts only have blank fields filled in.
func (ci *ContactsImporter) Import(ctx context.Context, src PeopleLister) (ImportReport, error) {
	var report ImportReport
	if err := ci.state.SetStatus(ServiceContacts, models.SyncStatusSyncing, ""); err != nil {
		return report, fmt.Errorf("failed to update sync status: %w", err)
	}

	fail := func(err error) (ImportReport, error) {
		_ = ci.state.SetStatus(ServiceContacts, models.SyncStatusError, err.Error())
		return report, err
	}

	// Load all existing contacts for matching once, not per contact
	existing, err := ci.svc.Contacts.GetAll(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to load existing contacts: %w", err))
	}
	ci.matcher = NewContactMatcher(existing)

	pageToken := ""
	for {
		response, err := src.ListConnections(ctx, pageToken)
		if err != nil {
			return fail(fmt.Errorf("failed to fetch contacts: %w", err))
		}
		if response == nil {
			break
		}
		report.Fetched += len(response.Connections)

		var pending []models.Contact
		for _, person := range response.Connections {
			gc := convertPerson(person)

			// Skip contacts without email or name (both are required)
			if gc.Email == "" || gc.Name == "" {
				report.skip("incomplete")
				continue
			}

			if match, found := ci.matcher.FindMatch(gc.Email); found {
				if match.ID == 0 {
					report.skip("duplicate")
					continue
				}
				updated, err := ci.updateContact(ctx, match, gc)
				if err != nil {
					ci.log.Warn("failed to update contact", zap.String("name", gc.Name), zap.Error(err))
					report.skip("error")
					continue
				}
				if updated {
					report.Updated++
				} else {
					report.skip("unchanged")
				}
				continue
			}

			c := newLead(gc)
			pending = append(pending, c)
			ci.matcher.AddContact(&c)
		}

		if len(pending) > 0 {
			created, err := ci.svc.Contacts.CreateMany(ctx, pending)
			if err != nil {
				return fail(fmt.Errorf("failed to create contacts: %w", err))
			}
			report.Created += len(created)
			for i := range created {
				ci.matcher.AddContact(&created[i])
			}
			if failed := len(pending) - len(created); failed > 0 {
				report.Skipped += failed
			}
			ci.log.Info("imported contacts page", zap.Int("created", len(created)), zap.Int("total", report.Created))
		}

		pageToken = response.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if err := ci.state.Complete(ServiceContacts, ""); err != nil {
		return report, fmt.Errorf("failed to update sync status: %w", err)
	}
	return report, nil
}

func newLead(gc *GoogleContact) models.Contact {
	company := gc.Company
	if company == "" {
		company = companyDomain(gc.Email)
	}
	notes := gc.Notes
	if gc.JobTitle != "" {
		notes = strings.TrimSpace(gc.JobTitle + "\n" + notes)
	}
	return models.Contact{
		Name:    gc.Name,
		Email:   gc.Email,
		Phone:   gc.Phone,
		Company: company,
		Status:  models.StatusLead,
		Tags:    []string{ImportTag},
		Notes:   notes,
	}
}

// updateContact fills fields that are blank locally. Local data always wins.
func (ci *ContactsImporter) updateContact(ctx context.Context, existing *models.Contact, gc *GoogleContact) (bool, error) {
	fresh, err := ci.svc.Contacts.GetByID(ctx, existing.ID)
	if err != nil {
		return false, fmt.Errorf("failed to load contact: %w", err)
	}

	updated := false
	if gc.Phone != "" && fresh.Phone == "" {
		fresh.Phone = gc.Phone
		updated = true
	}
	if gc.Company != "" && fresh.Company == "" {
		fresh.Company = gc.Company
		updated = true
	}
	if gc.Notes != "" && fresh.Notes == "" {
		fresh.Notes = gc.Notes
		updated = true
	}
	if !updated {
		return false, nil
	}

	saved, err := ci.svc.Contacts.Update(ctx, *fresh)
	if err != nil {
		return false, err
	}
	ci.matcher.AddContact(saved)
	return true, nil
}

// convertPerson converts a People API Person to GoogleContact.
func convertPerson(person *people.Person) *GoogleContact {
	gc := &GoogleContact{
		ResourceName: person.ResourceName,
	}

	if len(person.Names) > 0 && person.Names[0].DisplayName != "" {
		gc.Name = person.Names[0].DisplayName
	}

	// Prefer the primary email, otherwise the first available
	for _, email := range person.EmailAddresses {
		if email.Value != "" {
			if gc.Email == "" {
				gc.Email = email.Value
			}
			if email.Metadata != nil && email.Metadata.Primary {
				gc.Email = email.Value
				break
			}
		}
	}

	// Same preference for phone numbers
	for _, phone := range person.PhoneNumbers {
		if phone.Value != "" {
			if gc.Phone == "" {
				gc.Phone = phone.Value
			}
			if phone.Metadata != nil && phone.Metadata.Primary {
				gc.Phone = phone.Value
				break
			}
		}
	}

	if len(person.Organizations) > 0 {
		org := person.Organizations[0]
		gc.Company = org.Name
		gc.JobTitle = org.Title
	}

	if len(person.Biographies) > 0 && person.Biographies[0].Value != "" {
		gc.Notes = person.Biographies[0].Value
	}

	return gc
}
