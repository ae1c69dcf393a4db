// Package refdata loads the IDF account reference table and answers
// account lookups. The table is read once at startup and is read-only
// afterwards, so concurrent lookups need no locking.
package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrInvalidAcctID means the identifier fails the 1-10 digit shape
	// check; no lookup is attempted for such input.
	ErrInvalidAcctID = errors.New("ACCT_ID should be numeric and 1 to 10 digits only")
	// ErrNotFound means the identifier is well-formed but absent from the
	// reference table.
	ErrNotFound = errors.New("ACCT_ID not found")
)

var acctIDPattern = regexp.MustCompile(`^[0-9]{1,10}$`)

// ValidAcctID reports whether id matches the 1-10 ASCII digit shape.
func ValidAcctID(id string) bool {
	return acctIDPattern.MatchString(id)
}

// Record is one row of the reference table.
type Record struct {
	AcctID      string `json:"acctId"`
	Zone        string `json:"zone"`
	Circle      string `json:"circle"`
	Division    string `json:"division"`
	SubDivision string `json:"subDivision"`
}

// Table holds the loaded reference data.
type Table struct {
	byID map[string]Record
	n    int
}

// New builds a table from records. Duplicate identifiers keep the first
// occurrence.
func New(records []Record) *Table {
	t := &Table{byID: make(map[string]Record, len(records)), n: len(records)}
	for _, rec := range records {
		id := strings.TrimSpace(rec.AcctID)
		if _, dup := t.byID[id]; !dup {
			rec.AcctID = id
			t.byID[id] = rec
		}
	}
	return t
}

// Len returns the number of source rows loaded (duplicates included).
func (t *Table) Len() int { return t.n }

// Lookup validates the identifier shape, then resolves it against the
// table. Shape failures return ErrInvalidAcctID before any lookup.
func (t *Table) Lookup(acctID string) (Record, error) {
	acctID = strings.TrimSpace(acctID)
	if !ValidAcctID(acctID) {
		return Record{}, ErrInvalidAcctID
	}
	rec, ok := t.byID[acctID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Load reads the reference table from a .csv or .xlsx file.
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open reference file: %w", err)
		}
		defer f.Close()
		return LoadCSV(f)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported reference file format: %s", path)
	}
}

// LoadCSV parses reference records from CSV data. The header row names the
// columns; ACCT_ID values are normalized to trimmed string form.
func LoadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read reference header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read reference row: %w", err)
		}
		records = append(records, recordFromRow(row, cols))
	}
	return New(records), nil
}

func loadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open reference workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read reference sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return New(nil), nil
	}
	cols, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, recordFromRow(row, cols))
	}
	return New(records), nil
}

type colIndex struct {
	acctID, zone, circle, division, subDivision int
}

func columnIndex(header []string) (colIndex, error) {
	idx := colIndex{acctID: -1, zone: -1, circle: -1, division: -1, subDivision: -1}
	for i, name := range header {
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case "ACCT_ID":
			idx.acctID = i
		case "ZONE":
			idx.zone = i
		case "CIRCLE":
			idx.circle = i
		case "DIVISION":
			idx.division = i
		case "SUB-DIVISION", "SUB_DIVISION":
			idx.subDivision = i
		}
	}
	if idx.acctID < 0 {
		return idx, errors.New("reference file has no ACCT_ID column")
	}
	return idx, nil
}

func recordFromRow(row []string, cols colIndex) Record {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return Record{
		AcctID:      cell(cols.acctID),
		Zone:        cell(cols.zone),
		Circle:      cell(cols.circle),
		Division:    cell(cols.division),
		SubDivision: cell(cols.subDivision),
	}
}
