package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"p9e.in/idfsurvey/models"
	"p9e.in/idfsurvey/pkg/refdata"
)

type fakeBlobStore struct {
	fail  bool
	names []string
}

func (f *fakeBlobStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if f.fail {
		return "", errors.New("blob store unavailable")
	}
	f.names = append(f.names, name)
	return "https://blob.test/" + name, nil
}

type fakeSink struct {
	rows []*models.Submission
}

func (f *fakeSink) Append(ctx context.Context, sub *models.Submission) error {
	f.rows = append(f.rows, sub)
	return nil
}

func testRouter(blobs *fakeBlobStore, sink *fakeSink) http.Handler {
	table := refdata.New([]refdata.Record{
		{AcctID: "1234567", Zone: "Z1", Circle: "C1", Division: "D1", SubDivision: "SD1"},
	})
	h := NewSurveyHandler(table, "", blobs, sink, nil)

	r := mux.NewRouter()
	r.HandleFunc("/survey/accounts/{acctId}", h.LookupAccount).Methods("GET")
	r.HandleFunc("/survey/categories", h.ListCategories).Methods("GET")
	r.HandleFunc("/survey/categories/{category}", h.GetCategoryRule).Methods("GET")
	r.HandleFunc("/survey/submissions", h.CreateSubmission).Methods("POST")
	return r
}

func TestLookupAccount(t *testing.T) {
	router := testRouter(&fakeBlobStore{}, &fakeSink{})

	tests := []struct {
		name     string
		acctID   string
		wantCode int
	}{
		{"invalid shape", "12ab", http.StatusBadRequest},
		{"too long", "12345678901", http.StatusBadRequest},
		{"not found", "99", http.StatusNotFound},
		{"found", "1234567", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/survey/accounts/"+tt.acctID, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, expected %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusOK {
				var got refdata.Record
				if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if got.Zone != "Z1" || got.SubDivision != "SD1" {
					t.Errorf("record = %+v", got)
				}
			}
		})
	}
}

func TestListCategories(t *testing.T) {
	router := testRouter(&fakeBlobStore{}, &fakeSink{})
	req := httptest.NewRequest("GET", "/survey/categories", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp struct {
		Categories []models.Category `json:"categories"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 8 {
		t.Errorf("categories = %d, expected 8", len(resp.Categories))
	}
}

func TestGetCategoryRule(t *testing.T) {
	router := testRouter(&fakeBlobStore{}, &fakeSink{})

	req := httptest.NewRequest("GET", "/survey/categories/HOUSE%20LOCK", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var rule ruleResponse
	if err := json.NewDecoder(rec.Body).Decode(&rule); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rule.MobileRequired {
		t.Error("HOUSE LOCK must not require a mobile number")
	}
	if len(rule.Fields) != 1 || rule.Fields[0].Type != "attachment" {
		t.Errorf("fields = %+v", rule.Fields)
	}

	req = httptest.NewRequest("GET", "/survey/categories/NOPE", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown category status = %d, expected 404", rec.Code)
	}
}

type formPart struct {
	key, value string
	file       bool
}

func multipartRequest(t *testing.T, parts []formPart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.file {
			fw, err := w.CreateFormFile(p.key, p.key+".png")
			if err != nil {
				t.Fatalf("form file: %v", err)
			}
			if _, err := fw.Write([]byte(p.value)); err != nil {
				t.Fatalf("write file: %v", err)
			}
			continue
		}
		if err := w.WriteField(p.key, p.value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	w.Close()

	req := httptest.NewRequest("POST", "/survey/submissions", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestCreateSubmissionMissingFields(t *testing.T) {
	router := testRouter(&fakeBlobStore{}, &fakeSink{})

	// OK category with a short mobile number and nothing else
	req := multipartRequest(t, []formPart{
		{key: "acct_id", value: "1234567"},
		{key: "category", value: "OK"},
		{key: "mobile_no", value: "98765"},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Missing []string `json:"missing"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, m := range resp.Missing {
		if m == models.MobileFieldKey {
			found = true
		}
	}
	if !found {
		t.Errorf("missing list %v must contain %s", resp.Missing, models.MobileFieldKey)
	}
}

func TestCreateSubmissionOK(t *testing.T) {
	blobs := &fakeBlobStore{}
	sink := &fakeSink{}
	router := testRouter(blobs, sink)

	req := multipartRequest(t, []formPart{
		{key: "acct_id", value: "1234567"},
		{key: "category", value: "OK"},
		{key: "mobile_no", value: "9876543210"},
		{key: "METER_SERIAL_NUMBER", value: "MTR-77"},
		{key: "READING", value: "1042"},
		{key: "DEMAND", value: "3.2"},
		{key: "METER_IMAGE", value: "pngbytes", file: true},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(sink.rows) != 1 {
		t.Fatalf("appended rows = %d, expected 1", len(sink.rows))
	}
	row := sink.rows[0]
	if row.AdvisoryNote != "BILL REVISION REQUIRED" {
		t.Errorf("advisory note = %q", row.AdvisoryNote)
	}
	if row.Zone != "Z1" || row.MeterSerialNumber != "MTR-77" {
		t.Errorf("row = %+v", row)
	}
	if !strings.HasPrefix(row.MeterImageURL, "https://blob.test/1234567_METER_IMAGE_") {
		t.Errorf("meter image link = %q", row.MeterImageURL)
	}
}

func TestCreateSubmissionNotFoundAccount(t *testing.T) {
	router := testRouter(&fakeBlobStore{}, &fakeSink{})
	req := multipartRequest(t, []formPart{
		{key: "acct_id", value: "99"},
		{key: "category", value: "OK"},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, expected 404", rec.Code)
	}
}

func TestCreateSubmissionUploadFailure(t *testing.T) {
	blobs := &fakeBlobStore{fail: true}
	sink := &fakeSink{}
	router := testRouter(blobs, sink)

	req := multipartRequest(t, []formPart{
		{key: "acct_id", value: "1234567"},
		{key: "category", value: "HOUSE LOCK"},
		{key: "PREMISES_IMAGE", value: "pngbytes", file: true},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(sink.rows) != 0 {
		t.Error("no row may be appended when an upload fails")
	}
}
