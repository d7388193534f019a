package tabular

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/staff-finder/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Schools")
	require.NoError(t, err)
	for _, data := range rows {
		row := sheet.AddRow()
		for _, v := range data {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "schools.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadCSVRecords(t *testing.T) {
	path := writeFile(t, "in.csv", "\ufeffSchool Name,City,State,StaffDirectoryURL,NCES ID\n"+
		"Lincoln High School,Portland,OR,,4101\n"+
		"Grant High School,Portland,OR,https://www.pps.net/grant/staff,4102\n"+
		",,,,\n"+
		"Roosevelt,Portland,OR,NOT_FOUND,4103\n")

	tbl, err := Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, tbl.Format)
	require.Len(t, tbl.Rows, 3, "blank rows are skipped")

	recs, err := tbl.Records()
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, model.SchoolRecord{
		Row: 1, Name: "Lincoln High School", City: "Portland", State: "OR",
		Extra: map[string]string{"NCES ID": "4101"},
	}, recs[0])
	assert.Equal(t, "https://www.pps.net/grant/staff", recs[1].ExistingURL)
	assert.True(t, recs[1].HasExistingURL())
	assert.False(t, recs[2].HasExistingURL(), "sentinel from a previous run is nullish")
}

func TestReadCSVRaggedRows(t *testing.T) {
	path := writeFile(t, "in.csv", "name,city\nA\nB,Salem,extra\n")
	tbl, err := Read(context.Background(), path)
	require.NoError(t, err)
	for _, r := range tbl.Rows {
		assert.Len(t, r, 2)
	}
	recs, err := tbl.Records()
	require.NoError(t, err)
	assert.Equal(t, "Salem", recs[1].City)
}

func TestRecordsMissingName(t *testing.T) {
	path := writeFile(t, "in.csv", "city,state\nPortland,OR\n")
	tbl, err := Read(context.Background(), path)
	require.NoError(t, err)
	_, err = tbl.Records()
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestReadEmptyFile(t *testing.T) {
	path := writeFile(t, "in.csv", "")
	_, err := Read(context.Background(), path)
	assert.Error(t, err)
}

func TestReadUnsupportedExtension(t *testing.T) {
	_, err := Read(context.Background(), "schools.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestReadXLSX(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"name", "city", "state", "district"},
		{"Lincoln High School", "Portland", "OR", "Portland Public Schools"},
	})

	tbl, err := Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, tbl.Format)
	recs, err := tbl.Records()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Portland Public Schools", recs[0].District)
}

func TestReadXLSXSheetNotFound(t *testing.T) {
	path := createTestXLSX(t, [][]string{{"name"}})
	_, err := ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	assert.Error(t, err)
	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	assert.Error(t, err)
}

func TestApplyAndWriteCSV(t *testing.T) {
	in := writeFile(t, "in.csv", "name,city,staff_directory_url\nLincoln,Portland,\nGrant,Portland,https://grant.example/staff\nRoosevelt,Portland,\nJefferson,Portland,\n")
	tbl, err := Read(context.Background(), in)
	require.NoError(t, err)
	recs, err := tbl.Records()
	require.NoError(t, err)

	results := []model.Result{
		model.Found(recs[0], "https://lincoln.example/staff", model.ConfidenceHigh, "official"),
		model.Found(recs[1], "https://grant.example/staff", model.ConfidenceHigh, "pre-supplied URL"),
		model.NotFoundResult(recs[2], model.ConfidenceLow, "no search results"),
		{}, // pending
	}
	tbl.Apply(results)

	out := filepath.Join(t.TempDir(), "out", "results.csv")
	require.NoError(t, tbl.Write(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "name,city,staff_directory_url,staff_url,confidence,reasoning", lines[0])
	assert.Equal(t, "Lincoln,Portland,,https://lincoln.example/staff,high,official", lines[1])
	assert.Equal(t, "Grant,Portland,https://grant.example/staff,https://grant.example/staff,high,pre-supplied URL", lines[2])
	assert.Equal(t, "Roosevelt,Portland,,NOT_FOUND,,no search results", lines[3])
	assert.Equal(t, "Jefferson,Portland,,,,", lines[4])

	_, err = os.Stat(filepath.Join(filepath.Dir(out), ".results.csv.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestResumeFromOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("name\nLincoln\nGrant\n"), 0o644))
	require.NoError(t, os.WriteFile(out, []byte(
		"name,staff_url,confidence,reasoning\n"+
			"Lincoln,https://lincoln.example/staff,medium,earlier run\n"+
			"Grant,ERROR_NOT_FOUND,,selector failed\n"), 0o644))

	tbl, src, err := ReadForRun(context.Background(), in, out, true)
	require.NoError(t, err)
	assert.Equal(t, out, src)

	recs, err := tbl.Records()
	require.NoError(t, err)
	assert.True(t, recs[0].HasExistingURL())
	assert.False(t, recs[1].HasExistingURL())

	tbl.Apply([]model.Result{
		model.Found(recs[0], "https://lincoln.example/staff", model.ConfidenceHigh, "pre-supplied URL"),
		model.Found(recs[1], "https://grant.example/staff", model.ConfidenceLow, "second try"),
	})
	assert.Equal(t, []string{"Lincoln", "https://lincoln.example/staff", "medium", "earlier run"}, tbl.Rows[0])
	assert.Equal(t, []string{"Grant", "https://grant.example/staff", "low", "second try"}, tbl.Rows[1])

	_, src, err = ReadForRun(context.Background(), in, out, false)
	require.NoError(t, err)
	assert.Equal(t, in, src)
}

func TestWriterCheckpointXLSX(t *testing.T) {
	in := createTestXLSX(t, [][]string{{"name"}, {"Lincoln"}, {"Grant"}})
	tbl, err := Read(context.Background(), in)
	require.NoError(t, err)
	recs, err := tbl.Records()
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.xlsx")
	w := NewWriter(tbl, out)
	require.NoError(t, w.Checkpoint(context.Background(), []model.Result{
		model.Found(recs[0], "https://lincoln.example/staff", model.ConfidenceHigh, "ok"),
		{},
	}))

	got, err := ReadXLSX(out, XLSXOptions{SheetName: "Schools"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "staff_url", "confidence", "reasoning"}, got.Header)
	assert.Equal(t, "https://lincoln.example/staff", got.Rows[0][1])
	assert.Equal(t, "", got.Rows[1][1])

	require.NoError(t, w.Flush([]model.Result{
		model.Found(recs[0], "https://lincoln.example/staff", model.ConfidenceHigh, "ok"),
		model.ErrorResult(recs[1], "selector failed: boom"),
	}))
	got, err = ReadXLSX(out, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.ErrorNotFound, got.Rows[1][1])
}

func TestApplySkipsCancelledRows(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "schools.csv")
	out := filepath.Join(dir, "schools_with_urls.csv")
	require.NoError(t, os.WriteFile(in, []byte("name,city\nLincoln High,Portland\nGrant High,Portland\n"), 0o644))
	require.NoError(t, os.WriteFile(out, []byte(
		"name,city,staff_url,confidence,reasoning\n"+
			"Lincoln High,Portland,https://www.pps.net/lincoln/staff,medium,picked by model\n"+
			"Grant High,Portland,,,\n"), 0o644))

	tbl, src, err := ReadForRun(context.Background(), in, out, true)
	require.NoError(t, err)
	require.Equal(t, out, src)
	recs, err := tbl.Records()
	require.NoError(t, err)
	require.Len(t, recs, 2)

	tbl.Apply([]model.Result{
		model.CancelledResult(recs[0]),
		model.CancelledResult(recs[1]),
	})
	require.NoError(t, tbl.Write(out))

	got, err := Read(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lincoln High", "Portland", "https://www.pps.net/lincoln/staff", "medium", "picked by model"}, got.Rows[0])
	assert.Equal(t, []string{"Grant High", "Portland", "", "", ""}, got.Rows[1])
}

func TestStreamCSVCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a,b\n1,2\n"), CSVOptions{})
	for range rowCh {
	}
	assert.Error(t, <-errCh)
}
