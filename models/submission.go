package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SheetColumns is the fixed 14-column schema of the survey register, in
// append order. Every submission writes all 14 cells; not-applicable cells
// are empty strings, never omitted.
var SheetColumns = []string{
	"ACCT_ID", "REMARK", "ZONE", "CIRCLE", "DIVISION", "SUB_DIVISION",
	"MOBILE_NO", "REQUIRED_REMARK", "METER_SERIAL_NUMBER", "READING", "DEMAND",
	"METER_IMAGE", "PREMISES_IMAGE", "DOCUMENT_RELATED_TO_PDC",
}

// Submission is one completed field-survey record.
type Submission struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	AcctID       string   `gorm:"column:acct_id;index;not null" json:"acctId"`
	Category     Category `gorm:"column:category;not null"      json:"category"`
	Zone         string   `gorm:"column:zone;not null"          json:"zone"`
	Circle       string   `gorm:"column:circle;not null"        json:"circle"`
	Division     string   `gorm:"column:division;not null"      json:"division"`
	SubDivision  string   `gorm:"column:sub_division;not null"  json:"subDivision"`
	MobileNo     string   `gorm:"column:mobile_no"              json:"mobileNo"`
	AdvisoryNote string   `gorm:"column:advisory_note"          json:"advisoryNote"`

	MeterSerialNumber string `gorm:"column:meter_serial_number" json:"meterSerialNumber"`
	Reading           string `gorm:"column:reading"             json:"reading"`
	Demand            string `gorm:"column:demand"              json:"demand"`

	MeterImageURL    string `gorm:"column:meter_image_url"    json:"meterImageUrl"`
	PremisesImageURL string `gorm:"column:premises_image_url" json:"premisesImageUrl"`
	PDCDocumentURL   string `gorm:"column:pdc_document_url"   json:"pdcDocumentUrl"`

	// AttachmentLinks keeps the full field-key -> link map as stored;
	// UploadedFields records which attachment slots were actually filled.
	AttachmentLinks datatypes.JSON `gorm:"column:attachment_links;type:jsonb" json:"attachmentLinks,omitempty"`
	UploadedFields  pq.StringArray `gorm:"column:uploaded_fields;type:text[]" json:"uploadedFields,omitempty"`

	SurveyorName  string   `gorm:"column:surveyor_name"  json:"surveyorName"`
	SurveyorPhone string   `gorm:"column:surveyor_phone" json:"surveyorPhone"`
	Latitude      *float64 `gorm:"column:latitude"       json:"latitude,omitempty"`
	Longitude     *float64 `gorm:"column:longitude"      json:"longitude,omitempty"`
	OutOfArea     bool     `gorm:"column:out_of_area"    json:"outOfArea"`

	SubmittedAt JSONTime `gorm:"column:submitted_at;not null" json:"submittedAt"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index"          json:"-"`
}

// SheetRow renders the submission as the fixed 14-cell register row,
// aligned with SheetColumns.
func (s *Submission) SheetRow() []interface{} {
	return []interface{}{
		s.AcctID,
		string(s.Category),
		s.Zone,
		s.Circle,
		s.Division,
		s.SubDivision,
		s.MobileNo,
		s.AdvisoryNote,
		s.MeterSerialNumber,
		s.Reading,
		s.Demand,
		s.MeterImageURL,
		s.PremisesImageURL,
		s.PDCDocumentURL,
	}
}
