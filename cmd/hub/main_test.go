package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/navalhub/internal/outcome"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_StartupFailures(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	rules := writeFile(t, dir, "tiny.rules", "8 8\n1\n2\n")
	badRules := writeFile(t, dir, "bad.rules", "8 8\n0\n")
	roster := writeFile(t, dir, "hub.config", "/nonexistent/agent,a.map,/nonexistent/agent,b.map\n")
	badRoster := writeFile(t, dir, "bad.config", "only,three,fields\n")

	tests := []struct {
		name string
		args []string
		code outcome.Code
	}{
		{"no arguments", nil, outcome.BadArgCount},
		{"one argument", []string{rules}, outcome.BadArgCount},
		{"unknown flag", []string{"--bogus", rules, roster}, outcome.BadArgCount},
		{"missing roster", []string{rules, filepath.Join(dir, "none.config")}, outcome.InvalidConfig},
		{"bad roster", []string{rules, badRoster}, outcome.InvalidConfig},
		{"bad rules", []string{badRules, roster}, outcome.InvalidRules},
		{"roster is read first", []string{badRules, badRoster}, outcome.InvalidConfig},
		{"agent does not start", []string{rules, roster}, outcome.AgentStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.code, run(tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}

func TestHubMessages(t *testing.T) {
	assert.Equal(t, "Usage: hub rules config", outcome.BadArgCount.HubMessage())
	assert.Equal(t, 3, outcome.InvalidConfig.HubExitStatus())
}

func TestRun_EnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	rules := writeFile(t, dir, "tiny.rules", "8 8\n1\n2\n")
	roster := writeFile(t, dir, "hub.config", "/nonexistent/agent,a.map,/nonexistent/agent,b.map\n")
	writeFile(t, dir, "naval.broken.yaml", "agent:\n  strategy: cheat\n")

	t.Setenv("APP_ENV", "broken")
	var stdout, stderr bytes.Buffer
	assert.Equal(t, outcome.InvalidConfig, run([]string{rules, roster}, &stdout, &stderr))

	t.Setenv("APP_ENV", "missing")
	assert.Equal(t, outcome.AgentStart, run([]string{rules, roster}, &stdout, &stderr))
}
