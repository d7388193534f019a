package shortlist

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadRules reads a YAML rules file and overlays it on base. Fields absent
// from the file keep their base values.
func LoadRules(path string, base Rules) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, eris.Wrapf(err, "shortlist: read rules %s", path)
	}

	var file struct {
		Size          *int     `yaml:"size"`
		StaffTokens   []string `yaml:"staff_tokens"`
		PenaltyTokens []string `yaml:"penalty_tokens"`
		Denylist      []string `yaml:"denylist"`
		Weights       *struct {
			Staff    *float64 `yaml:"staff"`
			Penalty  *float64 `yaml:"penalty"`
			Deny     *float64 `yaml:"deny"`
			Position *float64 `yaml:"position"`
		} `yaml:"weights"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return base, eris.Wrapf(err, "shortlist: parse rules %s", path)
	}

	out := base
	if file.Size != nil {
		out.Size = *file.Size
	}
	if file.StaffTokens != nil {
		out.StaffTokens = file.StaffTokens
	}
	if file.PenaltyTokens != nil {
		out.PenaltyTokens = file.PenaltyTokens
	}
	if file.Denylist != nil {
		out.Denylist = file.Denylist
	}
	if w := file.Weights; w != nil {
		setIf(&out.Weights.Staff, w.Staff)
		setIf(&out.Weights.Penalty, w.Penalty)
		setIf(&out.Weights.Deny, w.Deny)
		setIf(&out.Weights.Position, w.Position)
	}
	if out.Size <= 0 {
		return base, eris.Errorf("shortlist: rules %s: size must be positive", path)
	}
	return out, nil
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
