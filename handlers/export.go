package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"p9e.in/idfsurvey/config"
	"p9e.in/idfsurvey/models"
)

// ExportSubmissionsToExcel streams the survey register as an .xlsx
// download, optionally filtered by category and submitted-at range
// (from/to, YYYY-MM-DD).
func (h *SurveyHandler) ExportSubmissionsToExcel(w http.ResponseWriter, r *http.Request) {
	subs, err := h.exportQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(models.SheetColumns))
	for i, c := range models.SheetColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		http.Error(w, "failed to generate Excel file", http.StatusInternalServerError)
		return
	}
	for i, sub := range subs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := sub.SheetRow()
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			http.Error(w, "failed to generate Excel file", http.StatusInternalServerError)
			return
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		http.Error(w, "failed to write Excel file", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("idf_survey_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

// ExportSubmissionsToCSV is the CSV variant of the register export.
func (h *SurveyHandler) ExportSubmissionsToCSV(w http.ResponseWriter, r *http.Request) {
	subs, err := h.exportQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(models.SheetColumns); err != nil {
		http.Error(w, "failed to generate CSV file", http.StatusInternalServerError)
		return
	}
	for _, sub := range subs {
		cells := sub.SheetRow()
		record := make([]string, len(cells))
		for i, c := range cells {
			record[i] = fmt.Sprint(c)
		}
		if err := cw.Write(record); err != nil {
			http.Error(w, "failed to generate CSV file", http.StatusInternalServerError)
			return
		}
	}
	cw.Flush()

	filename := fmt.Sprintf("idf_survey_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *SurveyHandler) exportQuery(r *http.Request) ([]models.Submission, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("export requires a database")
	}
	q := config.DB.Model(&models.Submission{})
	if c := r.URL.Query().Get("category"); c != "" {
		if cat, ok := models.ParseCategory(c); ok {
			q = q.Where("category = ?", cat)
		}
	}
	if from := r.URL.Query().Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			q = q.Where("submitted_at >= ?", t)
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			q = q.Where("submitted_at < ?", t.AddDate(0, 0, 1))
		}
	}

	var subs []models.Submission
	if err := q.Order("submitted_at ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return subs, nil
}
