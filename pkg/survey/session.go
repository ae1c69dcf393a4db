// Package survey implements the field-survey workflow: one session per
// in-progress submission, a pure validator over the category rule table,
// and the pipeline that uploads evidence and appends the register row.
package survey

import (
	"errors"

	"p9e.in/idfsurvey/models"
	"p9e.in/idfsurvey/pkg/refdata"
)

// State tracks where a session is in the workflow.
type State int

const (
	StateEmpty State = iota
	StateIdentifierEntered
	StateRejected
	StateMatched
	StateCategorySelected
	StateFieldsPending
	StateReadyToSubmit
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateIdentifierEntered:
		return "identifier_entered"
	case StateRejected:
		return "rejected"
	case StateMatched:
		return "matched"
	case StateCategorySelected:
		return "category_selected"
	case StateFieldsPending:
		return "fields_pending"
	case StateReadyToSubmit:
		return "ready_to_submit"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

var (
	ErrNoMatch          = errors.New("no matched account for this session")
	ErrNotReady         = errors.New("session is not ready to submit")
	ErrSubmitInFlight   = errors.New("submission already in progress")
	ErrAlreadySubmitted = errors.New("session already submitted")
)

// Session holds one supervisor's in-progress submission. It is not safe
// for concurrent use; one live session belongs to one interactive user.
type Session struct {
	state State

	AcctID   string
	Record   refdata.Record
	Category models.Category
	MobileNo string

	// Keyed by display field name, e.g. "METER SERIAL NUMBER".
	TextValues  map[string]string
	Attachments map[string][]byte
}

func NewSession() *Session {
	return &Session{
		state:       StateEmpty,
		TextValues:  make(map[string]string),
		Attachments: make(map[string][]byte),
	}
}

// State returns the current workflow state.
func (s *Session) State() State { return s.state }

// EnterAcctID records the identifier and resolves it against the reference
// table. A shape failure or miss moves the session to Rejected; the
// supervisor may re-enter a corrected identifier from there.
func (s *Session) EnterAcctID(acctID string, table *refdata.Table) (refdata.Record, error) {
	if s.state == StateSubmitting || s.state == StateSubmitted {
		return refdata.Record{}, ErrAlreadySubmitted
	}
	s.AcctID = acctID
	s.state = StateIdentifierEntered

	rec, err := table.Lookup(acctID)
	if err != nil {
		s.state = StateRejected
		return refdata.Record{}, err
	}
	s.Record = rec
	s.AcctID = rec.AcctID
	s.state = StateMatched
	return rec, nil
}

// SelectCategory picks the condition code and resets any field input from a
// previously selected category.
func (s *Session) SelectCategory(c models.Category) (models.CategoryRule, error) {
	if s.state == StateSubmitting || s.state == StateSubmitted {
		return models.CategoryRule{}, ErrAlreadySubmitted
	}
	if s.state != StateMatched && s.state != StateCategorySelected &&
		s.state != StateFieldsPending && s.state != StateReadyToSubmit {
		return models.CategoryRule{}, ErrNoMatch
	}
	rule, ok := models.RulesFor(c)
	if !ok {
		return models.CategoryRule{}, errors.New("unknown category: " + string(c))
	}
	s.Category = c
	s.TextValues = make(map[string]string)
	s.Attachments = make(map[string][]byte)
	s.state = StateCategorySelected
	s.refresh()
	return rule, nil
}

// SetMobile records the consumer mobile number. Validation happens in
// Missing, not here; every edit just re-derives the state.
func (s *Session) SetMobile(mobile string) {
	s.MobileNo = mobile
	s.refresh()
}

// SetText records a free-text field value by display name.
func (s *Session) SetText(field, value string) {
	s.TextValues[field] = value
	s.refresh()
}

// Capture records an attachment blob for a field. A nil blob clears the
// capture.
func (s *Session) Capture(field string, blob []byte) {
	if blob == nil {
		delete(s.Attachments, field)
	} else {
		s.Attachments[field] = blob
	}
	s.refresh()
}

// Missing recomputes the currently missing fields. Empty means ready.
func (s *Session) Missing() []string {
	if s.Category == "" {
		return nil
	}
	rule, ok := models.RulesFor(s.Category)
	if !ok {
		return nil
	}
	return Validate(s, rule)
}

// Reset discards all session state, returning to Empty for a fresh form.
func (s *Session) Reset() {
	*s = *NewSession()
}

// refresh re-derives FieldsPending vs ReadyToSubmit after every edit while
// a category is selected. Submitting/Submitted are left alone.
func (s *Session) refresh() {
	switch s.state {
	case StateCategorySelected, StateFieldsPending, StateReadyToSubmit:
		if len(s.Missing()) == 0 {
			s.state = StateReadyToSubmit
		} else {
			s.state = StateFieldsPending
		}
	}
}
