package tabular

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/staff-finder/internal/model"
)

// Format is the on-disk table format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Output column names appended when the table does not already carry them.
const (
	ColStaffURL   = "staff_url"
	ColConfidence = "confidence"
	ColReasoning  = "reasoning"
)

// Header aliases, compared after normalizeHeader.
var (
	nameAliases     = []string{"school_name", "name", "school"}
	cityAliases     = []string{"city"}
	stateAliases    = []string{"state"}
	districtAliases = []string{"district", "district_name"}
	urlAliases      = []string{"staff_directory_url", "staffdirectoryurl", "staff_directory_page", "staffdirectory", "directory_url", "staff_url"}
)

// ErrMissingName is returned when no name column is present.
var ErrMissingName = eris.New("tabular: no name column (expected one of school_name, name, school)")

// Table is a header row plus data rows. Rows are padded to the header width.
type Table struct {
	Format Format
	Header []string
	Rows   [][]string

	sheet string
	name  int
	city  int
	state int
	dist  int
	urls  []int

	staffURL   int
	confidence int
	reasoning  int
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", eris.Errorf("tabular: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
}

// Read loads a CSV or XLSX file.
func Read(ctx context.Context, path string) (*Table, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return ReadXLSX(path, XLSXOptions{})
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "tabular: open")
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(ctx, f)
}

// ReadForRun returns the table a run should work from. With resume set and
// an existing output file, the output is read so resolved rows are kept and
// only rows with nullish URLs are resolved again.
func ReadForRun(ctx context.Context, input, output string, resume bool) (*Table, string, error) {
	if resume && output != "" {
		if _, err := os.Stat(output); err == nil {
			t, err := Read(ctx, output)
			return t, output, err
		}
	}
	t, err := Read(ctx, input)
	return t, input, err
}

func newTable(format Format, rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, eris.New("tabular: empty file (no header row)")
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	t := &Table{Format: format, Header: header}
	for _, r := range rows[1:] {
		if blank(r) {
			continue
		}
		t.Rows = append(t.Rows, pad(r, len(header)))
	}
	t.index()
	return t, nil
}

func (t *Table) index() {
	norm := make([]string, len(t.Header))
	for i, h := range t.Header {
		norm[i] = normalizeHeader(h)
	}
	find := func(aliases []string) int {
		for _, a := range aliases {
			for i, h := range norm {
				if h == a {
					return i
				}
			}
		}
		return -1
	}

	t.name = find(nameAliases)
	t.city = find(cityAliases)
	t.state = find(stateAliases)
	t.dist = find(districtAliases)
	t.urls = t.urls[:0]
	for _, a := range urlAliases {
		for i, h := range norm {
			if h == a {
				t.urls = append(t.urls, i)
			}
		}
	}
	t.staffURL = find([]string{ColStaffURL})
	t.confidence = find([]string{ColConfidence})
	t.reasoning = find([]string{ColReasoning})
}

// Records converts the rows to SchoolRecords. Row numbers are 1-based data
// rows. Columns the pipeline does not use are kept in Extra.
func (t *Table) Records() ([]model.SchoolRecord, error) {
	if t.name < 0 {
		return nil, ErrMissingName
	}

	used := map[int]bool{t.name: true, t.city: true, t.state: true, t.dist: true}
	for _, i := range t.urls {
		used[i] = true
	}

	out := make([]model.SchoolRecord, len(t.Rows))
	for r, row := range t.Rows {
		rec := model.SchoolRecord{
			Row:      r + 1,
			Name:     cell(row, t.name),
			City:     cell(row, t.city),
			State:    cell(row, t.state),
			District: cell(row, t.dist),
		}
		for _, i := range t.urls {
			if v := cell(row, i); !model.IsNullish(v) {
				rec.ExistingURL = v
				break
			}
		}
		for i, h := range t.Header {
			if used[i] || i == t.confidence || i == t.reasoning || h == "" {
				continue
			}
			if v := cell(row, i); v != "" {
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				rec.Extra[h] = v
			}
		}
		out[r] = rec
	}
	return out, nil
}

// Apply writes results into the output columns, appending them to the
// header when missing. results[i] belongs to Rows[i]; pending results (empty
// Outcome) and rows abandoned by a cancelled run leave the row untouched, so
// a resumed file keeps what earlier runs found. For bypassed rows the
// existing confidence and reasoning cells are kept when already filled.
func (t *Table) Apply(results []model.Result) {
	t.ensureOutputColumns()
	for i, res := range results {
		if i >= len(t.Rows) || res.Outcome == "" || res.Cancelled() {
			continue
		}
		row := t.Rows[i]
		bypassed := res.School.HasExistingURL() && res.Outcome == model.OutcomeFound
		row[t.staffURL] = res.StaffURL
		if !bypassed || row[t.confidence] == "" {
			row[t.confidence] = res.OutputConfidence()
		}
		if !bypassed || row[t.reasoning] == "" {
			row[t.reasoning] = res.Reasoning
		}
	}
}

func (t *Table) ensureOutputColumns() {
	add := func(idx *int, name string) {
		if *idx >= 0 {
			return
		}
		*idx = len(t.Header)
		t.Header = append(t.Header, name)
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], "")
		}
	}
	add(&t.staffURL, ColStaffURL)
	add(&t.confidence, ColConfidence)
	add(&t.reasoning, ColReasoning)
}

// Write saves the table to path in the format implied by its extension.
// The file is written to a temp sibling first and renamed into place.
func (t *Table) Write(path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(t.Rows)+1)
	rows = append(rows, t.Header)
	rows = append(rows, t.Rows...)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "tabular: create output dir")
	}
	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp")

	switch format {
	case FormatXLSX:
		err = writeXLSX(tmp, t.sheet, rows)
	default:
		var f *os.File
		f, err = os.Create(tmp)
		if err != nil {
			return eris.Wrap(err, "tabular: create temp file")
		}
		err = writeCSV(f, rows)
		if cerr := f.Close(); err == nil && cerr != nil {
			err = eris.Wrap(cerr, "tabular: close temp file")
		}
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrap(err, "tabular: rename output")
	}
	return nil
}

// Writer checkpoints a table to one output path. Its Checkpoint method
// matches batch.Checkpoint and is safe for concurrent use.
type Writer struct {
	mu    sync.Mutex
	table *Table
	path  string
}

// NewWriter returns a Writer for t.
func NewWriter(t *Table, path string) *Writer {
	return &Writer{table: t, path: path}
}

// Checkpoint applies the completed results in snapshot and rewrites the file.
func (w *Writer) Checkpoint(_ context.Context, snapshot []model.Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.table.Apply(snapshot)
	return w.table.Write(w.path)
}

// Flush applies the final results and writes the file.
func (w *Writer) Flush(results []model.Result) error {
	return w.Checkpoint(context.Background(), results)
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// pad sizes row to exactly n cells.
func pad(row []string, n int) []string {
	if len(row) == n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
