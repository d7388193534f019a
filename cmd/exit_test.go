package main

import (
	"context"
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/staff-finder/internal/config"
	"github.com/sells-group/staff-finder/internal/resilience"
	"github.com/sells-group/staff-finder/internal/tabular"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitOK},
		{name: "interrupted", err: eris.Wrap(context.Canceled, "batch: cancelled"), want: exitOK},
		{name: "missing keys", err: &config.ValidationError{Problems: []string{"jina.key is required"}, MissingKeys: []string{"jina.key"}}, want: exitAuth},
		{name: "bad value", err: &config.ValidationError{Problems: []string{"batch.concurrency must be >= 1"}}, want: exitValidation},
		{name: "mixed", err: &config.ValidationError{Problems: []string{"jina.key is required", "shortlist.size must be >= 1"}, MissingKeys: []string{"jina.key"}}, want: exitValidation},
		{name: "input file", err: invalidInput(tabular.ErrMissingName), want: exitValidation},
		{name: "provider", err: eris.Wrap(resilience.NewProviderError("postgres", 0, errors.New("dial")), "init"), want: exitNetwork},
		{name: "other", err: errors.New("boom"), want: exitUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestInvalidInputNil(t *testing.T) {
	assert.NoError(t, invalidInput(nil))
}
