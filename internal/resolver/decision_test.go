package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/staff-finder/internal/model"
)

func candidates(urls ...string) []model.Candidate {
	out := make([]model.Candidate, len(urls))
	for i, u := range urls {
		out[i] = model.Candidate{SearchHit: model.SearchHit{Position: i + 1, URL: u}}
	}
	return out
}

func TestValidateDecision(t *testing.T) {
	cands := candidates("https://a.k12.us/staff", "https://b.k12.us/directory/")

	tests := []struct {
		name    string
		d       model.Decision
		want    string
		wantErr string
	}{
		{
			name: "exact match",
			d:    model.Decision{SelectedIndex: 1, SelectedURL: strPtr("https://a.k12.us/staff"), Confidence: model.ConfidenceHigh},
			want: "https://a.k12.us/staff",
		},
		{
			name: "default port matches candidate",
			d:    model.Decision{SelectedIndex: 1, SelectedURL: strPtr("https://a.k12.us:443/staff"), Confidence: model.ConfidenceHigh},
			want: "https://a.k12.us/staff",
		},
		{
			name: "normalized match returns candidate URL",
			d:    model.Decision{SelectedIndex: 2, SelectedURL: strPtr("HTTPS://B.k12.us/directory?x=1"), Confidence: model.ConfidenceMedium},
			want: "https://b.k12.us/directory/",
		},
		{
			name: "none",
			d:    model.Decision{SelectedIndex: 0, Confidence: model.ConfidenceLow},
			want: "",
		},
		{
			name:    "zero index with url",
			d:       model.Decision{SelectedIndex: 0, SelectedURL: strPtr("https://a.k12.us/staff"), Confidence: model.ConfidenceLow},
			wantErr: "selected_url is set",
		},
		{
			name:    "index without url",
			d:       model.Decision{SelectedIndex: 1, Confidence: model.ConfidenceHigh},
			wantErr: "selected_url is null",
		},
		{
			name:    "index out of range",
			d:       model.Decision{SelectedIndex: 3, SelectedURL: strPtr("https://a.k12.us/staff"), Confidence: model.ConfidenceHigh},
			wantErr: "out of range",
		},
		{
			name:    "negative index",
			d:       model.Decision{SelectedIndex: -1, SelectedURL: strPtr("https://a.k12.us/staff"), Confidence: model.ConfidenceHigh},
			wantErr: "out of range",
		},
		{
			name:    "url of another candidate",
			d:       model.Decision{SelectedIndex: 1, SelectedURL: strPtr("https://b.k12.us/directory"), Confidence: model.ConfidenceHigh},
			wantErr: "matches candidate 2",
		},
		{
			name:    "invented url",
			d:       model.Decision{SelectedIndex: 1, SelectedURL: strPtr("https://c.k12.us/staff"), Confidence: model.ConfidenceHigh},
			wantErr: "not a candidate",
		},
		{
			name:    "bad confidence",
			d:       model.Decision{SelectedIndex: 0, Confidence: "certain"},
			wantErr: "confidence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateDecision(tt.d, cands)
			if tt.wantErr != "" {
				require.Error(t, err)
				var ce *SelectorContractError
				assert.True(t, errors.As(err, &ce))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateDecisionIndexURLAgreement(t *testing.T) {
	cands := candidates("https://a.k12.us/staff", "https://b.k12.us/staff", "https://c.k12.us/staff")
	for i := 0; i <= len(cands); i++ {
		d := model.Decision{SelectedIndex: i, Confidence: model.ConfidenceMedium}
		if i > 0 {
			d.SelectedURL = strPtr(cands[i-1].URL)
		}
		got, err := ValidateDecision(d, cands)
		require.NoError(t, err)
		if i == 0 {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, cands[i-1].URL, got)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "selector contract violation: bad", NewContractError("bad", nil).Error())
	inner := errors.New("eof")
	ce := NewContractError("malformed JSON", inner)
	assert.ErrorIs(t, ce, inner)
	assert.Equal(t, "invalid row: name is required", (&ValidationError{Field: "name", Reason: "is required"}).Error())
}
