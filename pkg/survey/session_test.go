package survey

import (
	"errors"
	"testing"

	"p9e.in/idfsurvey/models"
	"p9e.in/idfsurvey/pkg/refdata"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	if s.State() != StateEmpty {
		t.Fatalf("new session state = %v, expected Empty", s.State())
	}

	rec, err := s.EnterAcctID("1234567", testRefTable())
	if err != nil {
		t.Fatalf("EnterAcctID failed: %v", err)
	}
	if rec.Zone != "Z1" {
		t.Errorf("zone = %q, expected Z1", rec.Zone)
	}
	if s.State() != StateMatched {
		t.Errorf("state = %v, expected Matched", s.State())
	}

	if _, err := s.SelectCategory(models.CategoryHouseLock); err != nil {
		t.Fatalf("SelectCategory failed: %v", err)
	}
	if s.State() != StateFieldsPending {
		t.Errorf("state = %v, expected FieldsPending", s.State())
	}

	s.Capture("PREMISES IMAGE", []byte{1})
	if s.State() != StateReadyToSubmit {
		t.Errorf("state = %v, expected ReadyToSubmit", s.State())
	}

	// clearing the capture drops the session back to pending
	s.Capture("PREMISES IMAGE", nil)
	if s.State() != StateFieldsPending {
		t.Errorf("state after clearing capture = %v, expected FieldsPending", s.State())
	}
}

func TestSessionRejectedIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		acctID  string
		wantErr error
	}{
		{"bad shape", "12ab", refdata.ErrInvalidAcctID},
		{"absent", "99", refdata.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			_, err := s.EnterAcctID(tt.acctID, testRefTable())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, expected %v", err, tt.wantErr)
			}
			if s.State() != StateRejected {
				t.Errorf("state = %v, expected Rejected", s.State())
			}
			// category selection must stay blocked
			if _, err := s.SelectCategory(models.CategoryOK); err == nil {
				t.Error("SelectCategory should fail on a rejected session")
			}
		})
	}
}

func TestSessionRejectedThenCorrected(t *testing.T) {
	s := NewSession()
	if _, err := s.EnterAcctID("99", testRefTable()); err == nil {
		t.Fatal("expected lookup miss")
	}
	if _, err := s.EnterAcctID("1234567", testRefTable()); err != nil {
		t.Fatalf("corrected identifier rejected: %v", err)
	}
	if s.State() != StateMatched {
		t.Errorf("state = %v, expected Matched", s.State())
	}
}

func TestSessionCategoryChangeResetsFields(t *testing.T) {
	s := matchedSession(t, models.CategoryOK)
	s.SetText("METER SERIAL NUMBER", "MTR-1")
	s.Capture("METER IMAGE", []byte{1})

	if _, err := s.SelectCategory(models.CategoryHouseLock); err != nil {
		t.Fatalf("re-selection failed: %v", err)
	}
	if len(s.TextValues) != 0 || len(s.Attachments) != 0 {
		t.Error("changing category must reset field input")
	}
}

func TestSessionSelectCategoryBeforeMatch(t *testing.T) {
	s := NewSession()
	if _, err := s.SelectCategory(models.CategoryOK); !errors.Is(err, ErrNoMatch) {
		t.Errorf("err = %v, expected ErrNoMatch", err)
	}
}

func TestSessionReset(t *testing.T) {
	s := matchedSession(t, models.CategoryOK)
	s.SetText("READING", "42")
	s.Reset()

	if s.State() != StateEmpty {
		t.Errorf("state after reset = %v, expected Empty", s.State())
	}
	if s.AcctID != "" || s.Category != "" || len(s.TextValues) != 0 {
		t.Error("reset must discard all session state")
	}
}
