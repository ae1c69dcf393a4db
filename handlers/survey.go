package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"p9e.in/idfsurvey/config"
	"p9e.in/idfsurvey/middleware"
	"p9e.in/idfsurvey/models"
	"p9e.in/idfsurvey/pkg/refdata"
	"p9e.in/idfsurvey/pkg/storage"
	"p9e.in/idfsurvey/pkg/survey"
	"p9e.in/idfsurvey/utils"
)

// SurveyHandler wires the survey workflow to HTTP: reference lookups,
// category rules, and the submission pipeline.
type SurveyHandler struct {
	Blobs   storage.BlobStore
	Rows    storage.RowSink
	Area    *utils.ServiceArea // nil when no boundary file is configured
	RefPath string             // reference file, re-read on admin reload

	mu  sync.RWMutex
	ref *refdata.Table
}

func NewSurveyHandler(ref *refdata.Table, refPath string, blobs storage.BlobStore, rows storage.RowSink, area *utils.ServiceArea) *SurveyHandler {
	return &SurveyHandler{ref: ref, RefPath: refPath, Blobs: blobs, Rows: rows, Area: area}
}

func (h *SurveyHandler) table() *refdata.Table {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ref
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// LookupAccount resolves an account identifier against the reference table.
func (h *SurveyHandler) LookupAccount(w http.ResponseWriter, r *http.Request) {
	acctID := mux.Vars(r)["acctId"]

	rec, err := h.table().Lookup(acctID)
	switch {
	case errors.Is(err, refdata.ErrInvalidAcctID):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, refdata.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListCategories returns the closed category set in selector order.
func (h *SurveyHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": models.Categories()})
}

type fieldSpec struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	Type string `json:"type"` // "text" or "attachment"
}

type ruleResponse struct {
	Category       models.Category `json:"category"`
	Fields         []fieldSpec     `json:"fields"`
	AdvisoryNote   string          `json:"advisoryNote,omitempty"`
	MobileRequired bool            `json:"mobileRequired"`
}

// GetCategoryRule returns the ordered field list and advisory note for one
// category; clients render exactly these fields, no more, no fewer.
func (h *SurveyHandler) GetCategoryRule(w http.ResponseWriter, r *http.Request) {
	cat, ok := models.ParseCategory(mux.Vars(r)["category"])
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown category"})
		return
	}
	rule, _ := models.RulesFor(cat)

	fields := make([]fieldSpec, len(rule.Fields))
	for i, f := range rule.Fields {
		kind := "text"
		if models.FieldIsAttachment(f) {
			kind = "attachment"
		}
		fields[i] = fieldSpec{Name: f, Key: models.FieldKey(f), Type: kind}
	}
	writeJSON(w, http.StatusOK, ruleResponse{
		Category:       cat,
		Fields:         fields,
		AdvisoryNote:   rule.AdvisoryNote,
		MobileRequired: !cat.MobileExempt(),
	})
}

// CreateSubmission runs the whole workflow for one confirmed form: lookup,
// category rules, validation, evidence upload, register append.
//
// Multipart form keys: acct_id, category, mobile_no, latitude, longitude,
// plus one value or file per required field under its column key
// (e.g. METER_SERIAL_NUMBER text value, METER_IMAGE file part).
func (h *SurveyHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	sess := survey.NewSession()
	if _, err := sess.EnterAcctID(r.FormValue("acct_id"), h.table()); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, refdata.ErrNotFound) {
			code = http.StatusNotFound
		}
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}

	cat, ok := models.ParseCategory(r.FormValue("category"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
		return
	}
	rule, err := sess.SelectCategory(cat)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sess.SetMobile(r.FormValue("mobile_no"))
	for _, field := range rule.Fields {
		key := models.FieldKey(field)
		if models.FieldIsAttachment(field) {
			blob, err := formFileBytes(r, key)
			if err != nil {
				http.Error(w, "bad file for "+key+": "+err.Error(), http.StatusBadRequest)
				return
			}
			sess.Capture(field, blob)
			continue
		}
		sess.SetText(field, r.FormValue(key))
	}

	if missing := sess.Missing(); len(missing) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "please fill required fields",
			"missing": missing,
		})
		return
	}

	meta := survey.Meta{}
	if user := middleware.GetUser(r); user.Name != "" {
		meta.SurveyorName = user.Name
		meta.SurveyorPhone = user.Phone
	} else if claims := middleware.GetClaims(r); claims != nil {
		meta.SurveyorName = claims.Name
		meta.SurveyorPhone = claims.Phone
	}
	h.fillLocation(r, &meta)

	pipeline := survey.NewPipeline(h.Blobs, h.Rows)
	sub, err := pipeline.Submit(r.Context(), sess, meta)
	if err != nil {
		var upErr *survey.UploadError
		switch {
		case errors.As(err, &upErr):
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"error": upErr.Error(),
				"field": upErr.Field,
			})
		case errors.Is(err, survey.ErrAppendFailed):
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		case errors.Is(err, survey.ErrSubmitInFlight), errors.Is(err, survey.ErrAlreadySubmitted):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

// fillLocation parses optional capture coordinates and flags submissions
// outside the service area.
func (h *SurveyHandler) fillLocation(r *http.Request, meta *survey.Meta) {
	latStr, lngStr := r.FormValue("latitude"), r.FormValue("longitude")
	if latStr == "" || lngStr == "" {
		return
	}
	lat, errLat := strconv.ParseFloat(latStr, 64)
	lng, errLng := strconv.ParseFloat(lngStr, 64)
	if errLat != nil || errLng != nil || !utils.ValidCoordinate(lat, lng) {
		return
	}
	meta.Latitude = &lat
	meta.Longitude = &lng
	if h.Area != nil {
		meta.OutOfArea = !h.Area.Contains(lat, lng)
	}
}

func formFileBytes(r *http.Request, key string) ([]byte, error) {
	file, _, err := r.FormFile(key)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// ListSubmissions pages through stored submissions, newest first, with
// optional acct_id and category filters.
func (h *SurveyHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	if config.DB == nil {
		http.Error(w, "submission listing requires a database", http.StatusNotImplemented)
		return
	}
	page, limit := 1, 20
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	q := config.DB.Model(&models.Submission{})
	if acct := r.URL.Query().Get("acct_id"); acct != "" {
		q = q.Where("acct_id = ?", acct)
	}
	if c := r.URL.Query().Get("category"); c != "" {
		if cat, ok := models.ParseCategory(c); ok {
			q = q.Where("category = ?", cat)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var items []models.Submission
	if err := q.Order("submitted_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&items).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  items,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}

// GetSubmission fetches one stored submission by id.
func (h *SurveyHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	if config.DB == nil {
		http.Error(w, "submission lookup requires a database", http.StatusNotImplemented)
		return
	}
	id := mux.Vars(r)["id"]
	var item models.Submission
	if err := config.DB.First(&item, "id = ?", id).Error; err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ReloadRefdata re-reads the reference file. Admin only.
func (h *SurveyHandler) ReloadRefdata(w http.ResponseWriter, r *http.Request) {
	if h.RefPath == "" {
		http.Error(w, "no reference file configured", http.StatusNotImplemented)
		return
	}
	table, err := refdata.Load(h.RefPath)
	if err != nil {
		http.Error(w, "reload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.mu.Lock()
	h.ref = table
	h.mu.Unlock()

	log.Printf("reference table reloaded: %d rows", table.Len())
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": table.Len()})
}
