// Package shortlist scores raw search hits and keeps the few most likely to
// be a staff directory.
package shortlist

import (
	"cmp"
	"net/url"
	"slices"
	"strings"

	"github.com/sells-group/staff-finder/internal/model"
)

// Weights are the scoring constants.
type Weights struct {
	Staff    float64 `yaml:"staff"`
	Penalty  float64 `yaml:"penalty"`
	Deny     float64 `yaml:"deny"`
	Position float64 `yaml:"position"`
}

// Rules configure the scorer.
type Rules struct {
	Size          int      `yaml:"size"`
	StaffTokens   []string `yaml:"staff_tokens"`
	PenaltyTokens []string `yaml:"penalty_tokens"`
	Denylist      []string `yaml:"denylist"`
	Weights       Weights  `yaml:"weights"`
}

// DefaultRules returns the built-in scoring rules.
func DefaultRules() Rules {
	return Rules{
		Size:          5,
		StaffTokens:   []string{"staff", "directory", "faculty", "our-staff"},
		PenaltyTokens: []string{"contact", "about", "news", "calendar"},
		Denylist: []string{
			"greatschools.org", "niche.com", "facebook.com", "twitter.com", "x.com",
			"linkedin.com", "instagram.com", "youtube.com",
		},
		Weights: Weights{Staff: 3, Penalty: 1.5, Deny: 2, Position: 0.5},
	}
}

// Shortlister applies Rules to search hits. It is immutable and safe for
// concurrent use.
type Shortlister struct {
	rules Rules
}

// New returns a Shortlister. Tokens and denylist entries are lower-cased.
func New(r Rules) *Shortlister {
	if r.Size <= 0 {
		r.Size = DefaultRules().Size
	}
	r.StaffTokens = lowerAll(r.StaffTokens)
	r.PenaltyTokens = lowerAll(r.PenaltyTokens)
	r.Denylist = lowerAll(r.Denylist)
	return &Shortlister{rules: r}
}

// Size returns the maximum shortlist length.
func (s *Shortlister) Size() int {
	return s.rules.Size
}

// Shortlist scores hits, drops denylisted domains that carry no staff
// signal, and returns at most Size candidates ordered by descending score,
// then ascending position.
func (s *Shortlister) Shortlist(hits []model.SearchHit) []model.Candidate {
	out := make([]model.Candidate, 0, len(hits))
	for _, h := range hits {
		c, ok := s.score(h)
		if ok {
			out = append(out, c)
		}
	}

	slices.SortStableFunc(out, func(a, b model.Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})

	if len(out) > s.rules.Size {
		out = out[:s.rules.Size]
	}
	return out
}

func (s *Shortlister) score(h model.SearchHit) (model.Candidate, bool) {
	u, err := url.Parse(strings.TrimSpace(h.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return model.Candidate{}, false
	}
	domain := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.EscapedPath())
	title := strings.ToLower(h.Title)

	staff := containsAny(path, s.rules.StaffTokens) || containsAny(title, s.rules.StaffTokens)
	denied := s.denied(domain)
	if denied && !staff {
		return model.Candidate{}, false
	}

	var score float64
	if staff {
		score += s.rules.Weights.Staff
	}
	if denied {
		score -= s.rules.Weights.Deny
	}
	if !staff && containsAny(path, s.rules.PenaltyTokens) {
		score -= s.rules.Weights.Penalty
	}
	if h.Position > 0 {
		score += s.rules.Weights.Position / float64(h.Position)
	}

	return model.Candidate{SearchHit: h, Score: score, Domain: domain}, true
}

// denied reports whether domain or any parent domain is on the denylist.
func (s *Shortlister) denied(domain string) bool {
	for _, d := range s.rules.Denylist {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
