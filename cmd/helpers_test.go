package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/staff-finder/internal/config"
)

const fixtureYAML = `queries:
  "Lincoln High School Portland OR staff directory":
    - title: Staff Directory - Lincoln High School
      url: https://www.pps.net/lincoln/staff
      snippet: Staff contact information
    - title: Lincoln High School - Niche
      url: https://www.niche.com/k12/lincoln-high-school-portland-or/
  "Nowhere Academy Springfield staff directory": []
`

const schoolsCSV = `school_name,city,state,staff_directory_url
Lincoln High School,Portland,OR,
Nowhere Academy,Springfield,,
Grant High School,Portland,OR,https://www.pps.net/grant/staff
`

// offlineConfig chdirs into a temp dir and sets the global cfg to defaults
// with the fixture search provider, the heuristic selector and a temp SQLite
// store. It returns the temp dir.
func offlineConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })

	fixture := filepath.Join(dir, "hits.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(fixtureYAML), 0o644))

	c, err := config.Load()
	require.NoError(t, err)
	c.Search.Provider = "fixture"
	c.Search.FixtureFile = fixture
	c.Selector.Provider = "heuristic"
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(dir, "data", "staff.db")
	cfg = c
	return dir
}

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "schools.csv")
	require.NoError(t, os.WriteFile(path, []byte(schoolsCSV), 0o644))
	return path
}
