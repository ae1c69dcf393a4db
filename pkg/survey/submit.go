package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"p9e.in/idfsurvey/models"
	"p9e.in/idfsurvey/pkg/storage"
)

// ErrAppendFailed means every upload succeeded but the register append did
// not. Uploaded blobs are intentionally left in place; a retry re-uploads
// them under a fresh timestamp.
var ErrAppendFailed = errors.New("failed to append submission row")

// UploadError reports which attachment failed to upload. The whole
// submission aborts; no row is written.
type UploadError struct {
	Field string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed for %s: %v", e.Field, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Meta carries per-submission context that is not part of the form itself:
// who filed it and where they were standing.
type Meta struct {
	SurveyorName  string
	SurveyorPhone string
	Latitude      *float64
	Longitude     *float64
	OutOfArea     bool
}

// Pipeline executes a confirmed submission: upload evidence, compose the
// fixed register row, append it, mark the session done.
type Pipeline struct {
	Blobs storage.BlobStore
	Rows  storage.RowSink

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewPipeline(blobs storage.BlobStore, rows storage.RowSink) *Pipeline {
	return &Pipeline{Blobs: blobs, Rows: rows, Now: time.Now}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Submit runs the pipeline for a session that the supervisor explicitly
// confirmed. Preconditions: the session is ReadyToSubmit and has no missing
// fields. A second confirm while Submitting or after Submitted is rejected
// rather than duplicated.
//
// On UploadError or ErrAppendFailed the session returns to ReadyToSubmit
// with all typed and captured input preserved, so the supervisor can retry.
func (p *Pipeline) Submit(ctx context.Context, s *Session, meta Meta) (*models.Submission, error) {
	switch s.state {
	case StateSubmitting:
		return nil, ErrSubmitInFlight
	case StateSubmitted:
		return nil, ErrAlreadySubmitted
	case StateReadyToSubmit:
	default:
		return nil, ErrNotReady
	}
	if missing := s.Missing(); len(missing) > 0 {
		s.state = StateFieldsPending
		return nil, fmt.Errorf("%w: missing %s", ErrNotReady, strings.Join(missing, ", "))
	}
	s.state = StateSubmitting

	rule, _ := models.RulesFor(s.Category)
	now := p.now()
	stamp := now.Format("20060102150405")

	links := make(map[string]string)
	var uploaded []string
	for _, field := range rule.Fields {
		if !models.FieldIsAttachment(field) {
			continue
		}
		name := fmt.Sprintf("%s_%s_%s.png", s.AcctID, strings.ReplaceAll(field, " ", "_"), stamp)
		url, err := p.Blobs.Put(ctx, name, s.Attachments[field], "image/png")
		if err != nil {
			s.state = StateReadyToSubmit
			return nil, &UploadError{Field: field, Err: err}
		}
		key := models.FieldKey(field)
		links[key] = url
		uploaded = append(uploaded, key)
	}

	sub := p.compose(s, rule, links, uploaded, now, meta)
	if err := p.Rows.Append(ctx, sub); err != nil {
		// Uploaded blobs are not rolled back; orphans are accepted.
		s.state = StateReadyToSubmit
		return nil, fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}

	s.state = StateSubmitted
	return sub, nil
}

// compose builds the fixed 14-column register row. Fields not applicable
// to the category stay empty strings; the READING column carries whichever
// reading field the category uses.
func (p *Pipeline) compose(s *Session, rule models.CategoryRule, links map[string]string, uploaded []string, now time.Time, meta Meta) *models.Submission {
	mobile := s.MobileNo
	if s.Category.MobileExempt() {
		mobile = ""
	}

	reading := s.TextValues["READING"]
	if reading == "" {
		reading = s.TextValues["METER READING"]
	}

	linksJSON, _ := json.Marshal(links)

	return &models.Submission{
		AcctID:       s.AcctID,
		Category:     s.Category,
		Zone:         s.Record.Zone,
		Circle:       s.Record.Circle,
		Division:     s.Record.Division,
		SubDivision:  s.Record.SubDivision,
		MobileNo:     mobile,
		AdvisoryNote: rule.AdvisoryNote,

		MeterSerialNumber: s.TextValues["METER SERIAL NUMBER"],
		Reading:           reading,
		Demand:            s.TextValues["DEMAND"],

		MeterImageURL:    links["METER_IMAGE"],
		PremisesImageURL: links["PREMISES_IMAGE"],
		PDCDocumentURL:   links["DOCUMENT_RELATED_TO_PDC"],

		AttachmentLinks: linksJSON,
		UploadedFields:  uploaded,

		SurveyorName:  meta.SurveyorName,
		SurveyorPhone: meta.SurveyorPhone,
		Latitude:      meta.Latitude,
		Longitude:     meta.Longitude,
		OutOfArea:     meta.OutOfArea,

		SubmittedAt: models.JSONTime(now),
	}
}
