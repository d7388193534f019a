// Package planner builds search queries for a school.
package planner

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/staff-finder/internal/model"
)

// DefaultMaxQueries is used when Planner.MaxQueries is unset.
const DefaultMaxQueries = 3

// Planner turns a SchoolRecord into an ordered list of search queries,
// most specific first. It has no side effects.
type Planner struct {
	MaxQueries int
}

// New returns a Planner capped at maxQueries queries per school.
func New(maxQueries int) *Planner {
	if maxQueries <= 0 {
		maxQueries = DefaultMaxQueries
	}
	return &Planner{MaxQueries: maxQueries}
}

// Plan returns the queries for s. The first query is always
// "{name} {city} {state} staff directory" with empty fields omitted.
// Records with an existing URL or without a name yield no queries.
func (p *Planner) Plan(s model.SchoolRecord) []string {
	name := clean(s.Name)
	if name == "" || s.HasExistingURL() {
		return nil
	}
	where := join(s.City, s.State)
	quoted := `"` + name + `"`

	variants := []string{
		join(name, where, "staff directory"),
		join(quoted, "faculty staff", where),
		join(quoted, "our staff directory", where),
	}
	if district := clean(s.District); district != "" && !sameText(district, name) {
		variants = append(variants, join(`"`+district+`"`, name, "staff directory"))
	}

	limit := p.MaxQueries
	if limit <= 0 {
		limit = DefaultMaxQueries
	}
	return dedupe(variants, limit)
}

// dedupe drops case-insensitive repeats while keeping order.
func dedupe(queries []string, limit int) []string {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, min(len(queries), limit))
	for _, q := range queries {
		if q == "" {
			continue
		}
		key := fold.String(q)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
		if len(out) == limit {
			break
		}
	}
	return out
}

// clean normalizes to NFC and collapses runs of whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := clean(p); c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " ")
}

func sameText(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}
