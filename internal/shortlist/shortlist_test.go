package shortlist

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/staff-finder/internal/model"
)

func hit(pos int, title, url string) model.SearchHit {
	return model.SearchHit{Position: pos, Title: title, URL: url}
}

func TestShortlistLincolnScenario(t *testing.T) {
	s := New(DefaultRules())
	got := s.Shortlist([]model.SearchHit{
		hit(1, "Lincoln HS Staff Directory", "https://www.pps.net/lincoln/staff"),
		hit(2, "Lincoln High School - Niche", "https://www.niche.com/k12/lincoln-high-school-portland-or/"),
	})

	require.Len(t, got, 1)
	assert.Equal(t, "https://www.pps.net/lincoln/staff", got[0].URL)
	assert.Equal(t, "www.pps.net", got[0].Domain)
}

func TestShortlistScoring(t *testing.T) {
	s := New(DefaultRules())
	got := s.Shortlist([]model.SearchHit{
		hit(1, "Contact Us", "https://school.org/contact"),
		hit(2, "About our staff", "https://school.org/about/staff"),
		hit(3, "Home", "https://school.org/"),
	})

	require.Len(t, got, 3)
	assert.Equal(t, "https://school.org/about/staff", got[0].URL, "about+staff is not penalized")
	assert.InDelta(t, 3+0.5/2.0, got[0].Score, 1e-9)
	assert.Equal(t, "https://school.org/", got[1].URL)
	assert.InDelta(t, 0.5/3.0, got[1].Score, 1e-9)
	assert.Equal(t, "https://school.org/contact", got[2].URL)
	assert.InDelta(t, -1.5+0.5, got[2].Score, 1e-9)
}

func TestShortlistDenylistedWithStaffSignal(t *testing.T) {
	s := New(DefaultRules())
	got := s.Shortlist([]model.SearchHit{
		hit(1, "Lincoln Staff", "https://m.facebook.com/lincoln/staff"),
		hit(2, "Lincoln", "https://facebook.com/lincoln"),
	})

	require.Len(t, got, 1)
	assert.Equal(t, "m.facebook.com", got[0].Domain)
	assert.InDelta(t, 3-2+0.5, got[0].Score, 1e-9)
}

func TestShortlistDropsInvalidURLs(t *testing.T) {
	s := New(DefaultRules())
	got := s.Shortlist([]model.SearchHit{
		hit(1, "staff", "ftp://school.org/staff"),
		hit(2, "staff", "/relative/staff"),
		hit(3, "staff", "::not a url"),
	})
	assert.Empty(t, got)
}

func TestShortlistTieBreakByPosition(t *testing.T) {
	r := DefaultRules()
	r.Weights.Position = 0
	s := New(r)

	got := s.Shortlist([]model.SearchHit{
		hit(3, "Staff", "https://c.org/staff"),
		hit(1, "Staff", "https://a.org/staff"),
		hit(2, "Staff", "https://b.org/staff"),
	})
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].Position, got[1].Position, got[2].Position})
}

func TestShortlistEmpty(t *testing.T) {
	assert.Empty(t, New(DefaultRules()).Shortlist(nil))
}

func randomHits(r *rand.Rand, n int) []model.SearchHit {
	domains := []string{"school.org", "district.k12.us", "niche.com", "www.greatschools.org", "facebook.com", "x.com", "linkedin.com"}
	paths := []string{"/", "/staff", "/directory", "/about", "/about/staff", "/news", "/calendar", "/faculty", "/our-staff", "/contact"}
	titles := []string{"Home", "Staff Directory", "News", "Faculty", "Reviews", "Contact"}

	hits := make([]model.SearchHit, n)
	for i := range hits {
		hits[i] = model.SearchHit{
			Position: i + 1,
			Title:    titles[r.IntN(len(titles))],
			URL:      fmt.Sprintf("https://%s%s?i=%d", domains[r.IntN(len(domains))], paths[r.IntN(len(paths))], i),
		}
	}
	return hits
}

func TestShortlistProperties(t *testing.T) {
	rules := DefaultRules()
	rules.Size = 4
	s := New(rules)
	r := rand.New(rand.NewPCG(7, 11))

	for iter := 0; iter < 500; iter++ {
		hits := randomHits(r, r.IntN(15))
		got := s.Shortlist(hits)

		assert.LessOrEqual(t, len(got), rules.Size)

		for i, c := range got {
			if s.denied(c.Domain) {
				lowered := strings.ToLower(c.URL + " " + c.Title)
				assert.True(t, containsAny(lowered, s.rules.StaffTokens), "denylisted %s without staff token", c.URL)
			}
			if i > 0 {
				prev := got[i-1]
				ordered := prev.Score > c.Score || (prev.Score == c.Score && prev.Position < c.Position)
				assert.True(t, ordered, "candidates out of order at %d", i)
			}
		}
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
size: 3
denylist: [example.com]
weights:
  staff: 10
`), 0o644))

	r, err := LoadRules(path, DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, 3, r.Size)
	assert.Equal(t, []string{"example.com"}, r.Denylist)
	assert.InDelta(t, 10.0, r.Weights.Staff, 1e-9)
	assert.InDelta(t, 1.5, r.Weights.Penalty, 1e-9, "unset weights keep base")
	assert.Equal(t, DefaultRules().StaffTokens, r.StaffTokens)
}

func TestLoadRulesErrors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"), DefaultRules())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("size: 0\n"), 0o644))
	_, err = LoadRules(path, DefaultRules())
	assert.Error(t, err)
}
