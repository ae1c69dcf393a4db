package storage

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"p9e.in/idfsurvey/models"
)

// WorkbookSink appends submission rows to a local .xlsx register. It
// mirrors the hosted spreadsheet the survey originally fed and serves as
// the sink when no database is configured.
type WorkbookSink struct {
	Path  string
	Sheet string

	mu sync.Mutex
}

func NewWorkbookSink(path, sheet string) *WorkbookSink {
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &WorkbookSink{Path: path, Sheet: sheet}
}

func (s *WorkbookSink) Append(ctx context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(s.Sheet)
	if err != nil {
		return fmt.Errorf("read register sheet: %w", err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	row := sub.SheetRow()
	if err := f.SetSheetRow(s.Sheet, cell, &row); err != nil {
		return fmt.Errorf("append register row: %w", err)
	}
	if err := f.SaveAs(s.Path); err != nil {
		return fmt.Errorf("save register workbook: %w", err)
	}
	return nil
}

// open loads the workbook, creating it with the fixed header row when the
// file does not exist yet.
func (s *WorkbookSink) open() (*excelize.File, error) {
	if _, err := os.Stat(s.Path); os.IsNotExist(err) {
		f := excelize.NewFile()
		f.SetSheetName(f.GetSheetName(0), s.Sheet)
		header := make([]interface{}, len(models.SheetColumns))
		for i, c := range models.SheetColumns {
			header[i] = c
		}
		if err := f.SetSheetRow(s.Sheet, "A1", &header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write register header: %w", err)
		}
		return f, nil
	}

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open register workbook: %w", err)
	}
	return f, nil
}
