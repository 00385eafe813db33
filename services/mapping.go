// ABOUTME: Field mapping between models and record-store records
// ABOUTME: Single place that knows the table column names
package services

import (
	"time"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/recordstore"
)

// Record field names.
const (
	FieldName        = "Name"
	FieldTags        = "Tags"
	FieldCreatedOn   = "CreatedOn"
	FieldModifiedOn  = "ModifiedOn"
	FieldEmail       = "email_c"
	FieldPhone       = "phone_c"
	FieldCompany     = "company_c"
	FieldStatus      = "status_c"
	FieldNotes       = "notes_c"
	FieldLastContact = "last_contact_date_c"
	FieldValue       = "value_c"
	FieldStage       = "stage_c"
	FieldProbability = "probability_c"
	FieldContactID   = "contact_id_c"
	FieldDealID      = "deal_id_c"
	FieldCloseDate   = "expected_close_date_c"
	FieldType        = "type_c"
	FieldDescription = "description_c"
	FieldTimestamp   = "timestamp_c"
	FieldExternalRef = "external_ref_c"
	FieldOrder       = "order_c"
	FieldColor       = "color_c"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func contactToRecord(c models.Contact) recordstore.Record {
	r := recordstore.Record{
		FieldName:        c.Name,
		FieldEmail:       c.Email,
		FieldPhone:       c.Phone,
		FieldCompany:     c.Company,
		FieldStatus:      c.Status,
		FieldTags:        recordstore.JoinTags(c.Tags),
		FieldNotes:       c.Notes,
		FieldLastContact: formatTime(c.LastContactDate),
		FieldCreatedOn:   formatTime(c.CreatedAt),
		FieldModifiedOn:  formatTime(c.UpdatedAt),
	}
	if c.ID > 0 {
		r[recordstore.FieldID] = c.ID
	}
	return r
}

func contactFromRecord(r recordstore.Record) models.Contact {
	return models.Contact{
		ID:              r.ID(),
		Name:            r.String(FieldName),
		Email:           r.String(FieldEmail),
		Phone:           r.String(FieldPhone),
		Company:         r.String(FieldCompany),
		Status:          r.String(FieldStatus),
		Tags:            r.Strings(FieldTags),
		Notes:           r.String(FieldNotes),
		LastContactDate: r.Time(FieldLastContact),
		CreatedAt:       r.Time(FieldCreatedOn),
		UpdatedAt:       r.Time(FieldModifiedOn),
	}
}

func dealToRecord(d models.Deal) recordstore.Record {
	r := recordstore.Record{
		FieldName:        d.Title,
		FieldValue:       d.Value,
		FieldStage:       d.Stage,
		FieldProbability: d.Probability,
		FieldNotes:       d.Notes,
		FieldCreatedOn:   formatTime(d.CreatedAt),
		FieldModifiedOn:  formatTime(d.UpdatedAt),
	}
	if d.ID > 0 {
		r[recordstore.FieldID] = d.ID
	}
	if d.ContactID > 0 {
		r[FieldContactID] = d.ContactID
	}
	if d.ExpectedCloseDate != nil {
		r[FieldCloseDate] = formatTime(*d.ExpectedCloseDate)
	}
	return r
}

func dealFromRecord(r recordstore.Record) models.Deal {
	return models.Deal{
		ID:                r.ID(),
		Title:             r.String(FieldName),
		Value:             r.Float(FieldValue),
		Stage:             r.String(FieldStage),
		Probability:       int(r.Int64(FieldProbability)),
		ContactID:         r.Int64(FieldContactID),
		ExpectedCloseDate: r.TimePtr(FieldCloseDate),
		Notes:             r.String(FieldNotes),
		CreatedAt:         r.Time(FieldCreatedOn),
		UpdatedAt:         r.Time(FieldModifiedOn),
	}
}

func activityToRecord(a models.Activity) recordstore.Record {
	r := recordstore.Record{
		FieldType:        a.Type,
		FieldDescription: a.Description,
		FieldTimestamp:   formatTime(a.Timestamp),
	}
	if a.ID > 0 {
		r[recordstore.FieldID] = a.ID
	}
	if a.ContactID > 0 {
		r[FieldContactID] = a.ContactID
	}
	if a.DealID > 0 {
		r[FieldDealID] = a.DealID
	}
	if a.ExternalRef != "" {
		r[FieldExternalRef] = a.ExternalRef
	}
	return r
}

func activityFromRecord(r recordstore.Record) models.Activity {
	return models.Activity{
		ID:          r.ID(),
		Type:        r.String(FieldType),
		Description: r.String(FieldDescription),
		Timestamp:   r.Time(FieldTimestamp),
		ContactID:   r.Int64(FieldContactID),
		DealID:      r.Int64(FieldDealID),
		ExternalRef: r.String(FieldExternalRef),
	}
}

func stageFromRecord(r recordstore.Record) models.Stage {
	return models.Stage{
		ID:    r.ID(),
		Name:  r.String(FieldName),
		Order: int(r.Int64(FieldOrder)),
		Color: r.String(FieldColor),
	}
}
