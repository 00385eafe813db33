// ABOUTME: Contact data access over the record store
// ABOUTME: Implements list, lookup, create, update, delete, search, and bulk create
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/recordstore"
	"go.uber.org/zap"
)

type ContactService struct {
	base
}

func (s *ContactService) GetAll(ctx context.Context) ([]models.Contact, error) {
	return s.fetch(ctx, recordstore.Query{})
}

func (s *ContactService) fetch(ctx context.Context, q recordstore.Query) ([]models.Contact, error) {
	records, err := s.store.FetchRecords(ctx, recordstore.TableContacts, q)
	if err != nil {
		return []models.Contact{}, s.readFailed("contacts", err)
	}
	contacts := make([]models.Contact, 0, len(records))
	for _, r := range records {
		contacts = append(contacts, contactFromRecord(r))
	}
	return contacts, nil
}

func (s *ContactService) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	r, err := s.store.GetRecordByID(ctx, recordstore.TableContacts, id, recordstore.Query{})
	if errors.Is(err, recordstore.ErrRecordNotFound) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		s.log.Error("failed to fetch contact", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch contact %d: %w", id, err)
	}
	c := contactFromRecord(r)
	return &c, nil
}

// prepareNew applies creation defaults: lead status, empty tags, and
// creation plus last-contact timestamps of now.
func (s *ContactService) prepareNew(c models.Contact) (models.Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return c, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if c.Status == "" {
		c.Status = models.StatusLead
	}
	if !models.IsValidStatus(c.Status) {
		return c, fmt.Errorf("%w: invalid status %q (valid: active, inactive, lead)", ErrInvalidInput, c.Status)
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	now := s.now()
	c.ID = 0
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.LastContactDate.IsZero() {
		c.LastContactDate = now
	}
	return c, nil
}

func (s *ContactService) Create(ctx context.Context, c models.Contact) (*models.Contact, error) {
	c, err := s.prepareNew(c)
	if err != nil {
		return nil, err
	}
	result, err := s.store.CreateRecords(ctx, recordstore.TableContacts, []recordstore.Record{contactToRecord(c)})
	r, err := s.writeOne("contact", result, err)
	if err != nil {
		return nil, err
	}
	created := contactFromRecord(r)
	return &created, nil
}

// CreateMany creates contacts in one batch. Invalid inputs and failed
// items are logged and skipped; the successfully created contacts are returned.
func (s *ContactService) CreateMany(ctx context.Context, contacts []models.Contact) ([]models.Contact, error) {
	payload := make([]recordstore.Record, 0, len(contacts))
	for _, c := range contacts {
		prepared, err := s.prepareNew(c)
		if err != nil {
			s.log.Warn("skipping contact", zap.String("name", c.Name), zap.Error(err))
			continue
		}
		payload = append(payload, contactToRecord(prepared))
	}
	if len(payload) == 0 {
		return []models.Contact{}, nil
	}

	result, err := s.store.CreateRecords(ctx, recordstore.TableContacts, payload)
	if err != nil {
		s.log.Error("failed to create contacts", zap.Error(err))
		return nil, fmt.Errorf("failed to create contacts: %w", err)
	}
	s.logFailures("contact", result)

	created := make([]models.Contact, 0, len(payload))
	for _, r := range result.Records() {
		created = append(created, contactFromRecord(r))
	}
	return created, nil
}

func (s *ContactService) Update(ctx context.Context, c models.Contact) (*models.Contact, error) {
	if c.ID <= 0 {
		return nil, fmt.Errorf("%w: contact id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !models.IsValidStatus(c.Status) {
		return nil, fmt.Errorf("%w: invalid status %q (valid: active, inactive, lead)", ErrInvalidInput, c.Status)
	}
	c.UpdatedAt = s.now()

	r := contactToRecord(c)
	// Creation time is owned by the store.
	delete(r, FieldCreatedOn)

	result, err := s.store.UpdateRecords(ctx, recordstore.TableContacts, []recordstore.Record{r})
	updated, err := s.writeOne("contact", result, err)
	if errors.Is(err, recordstore.ErrRecordNotFound) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	out := contactFromRecord(updated)
	return &out, nil
}

func (s *ContactService) Delete(ctx context.Context, id int64) error {
	result, err := s.store.DeleteRecords(ctx, recordstore.TableContacts, []int64{id})
	_, err = s.writeOne("contact", result, err)
	if errors.Is(err, recordstore.ErrRecordNotFound) {
		return ErrContactNotFound
	}
	return err
}

// Search matches name, email, or company case-insensitively. An empty
// query returns every contact.
func (s *ContactService) Search(ctx context.Context, query string) ([]models.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.GetAll(ctx)
	}
	q := recordstore.Query{WhereGroups: []recordstore.WhereGroup{{
		Operator: recordstore.GroupOr,
		Conditions: []recordstore.Condition{
			{FieldName: FieldName, Operator: recordstore.OpContains, Values: []any{query}},
			{FieldName: FieldEmail, Operator: recordstore.OpContains, Values: []any{query}},
			{FieldName: FieldCompany, Operator: recordstore.OpContains, Values: []any{query}},
		},
	}}}
	return s.fetch(ctx, q)
}
