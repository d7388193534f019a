package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "resolve", "serve", "runs", "cache"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "staff-finder", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
}

func TestRunCommand_Flags(t *testing.T) {
	for _, name := range []string{"input", "output", "resume", "limit", "dry-run", "json", "report", "debug", "concurrency"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "run should have --%s", name)
	}
	flag := runCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}

func TestResolveCommand_Flags(t *testing.T) {
	for _, name := range []string{"name", "city", "state", "district", "url"} {
		assert.NotNil(t, resolveCmd.Flags().Lookup(name), "resolve should have --%s", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsAndCache_HaveSubcommands(t *testing.T) {
	var runs []string
	for _, c := range runsCmd.Commands() {
		runs = append(runs, c.Name())
	}
	assert.ElementsMatch(t, []string{"list", "show"}, runs)

	require.Len(t, cacheCmd.Commands(), 1)
	assert.Equal(t, "prune", cacheCmd.Commands()[0].Name())
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "data/schools_with_urls.csv", defaultOutputPath("data/schools.csv"))
	assert.Equal(t, "schools_with_urls.xlsx", defaultOutputPath("schools.xlsx"))
}
