package search

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/staff-finder/internal/model"
)

// fixtureFile is the on-disk layout of a fixture:
//
//	queries:
//	  "lincoln high school portland or staff directory":
//	    - title: Staff Directory
//	      url: https://www.pps.net/lincoln/staff
type fixtureFile struct {
	Queries map[string][]fixtureHit `yaml:"queries"`
}

type fixtureHit struct {
	Title   string `yaml:"title"`
	URL     string `yaml:"url"`
	Snippet string `yaml:"snippet"`
}

// Fixture answers queries from a YAML file. Unknown queries return no hits.
// Used for offline runs and demos.
type Fixture struct {
	hits map[string][]model.SearchHit
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "search: read fixture %s", path)
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "search: parse fixture %s", path)
	}

	out := &Fixture{hits: make(map[string][]model.SearchHit, len(f.Queries))}
	for q, hits := range f.Queries {
		b := newHitBuilder(len(hits))
		for _, h := range hits {
			b.add(h.Title, h.URL, h.Snippet)
		}
		out.hits[fixtureKey(q)] = b.hits
	}
	return out, nil
}

// Search implements resolver.Gateway.
func (f *Fixture) Search(ctx context.Context, query string) ([]model.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hits := f.hits[fixtureKey(query)]
	out := make([]model.SearchHit, len(hits))
	copy(out, hits)
	return out, nil
}

func fixtureKey(q string) string {
	return cases.Fold().String(strings.Join(strings.Fields(q), " "))
}
