package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/navalhub/internal/game/core"
	"github.com/mitchelldurbincs/navalhub/internal/outcome"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseRules(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    core.Rules
		wantErr bool
	}{
		{
			name:  "standard",
			input: "8 8\n5\n5\n4\n3\n2\n1\n",
			want:  core.StandardRules(),
		},
		{
			name:  "comments and trailing lines",
			input: "# a small board\n10 6\n\n# ships\n2\n3\n2\nignored\n",
			want:  core.Rules{Rows: 6, Cols: 10, NumShips: 2, ShipLengths: []int{3, 2}},
		},
		{name: "empty", input: "", wantErr: true},
		{name: "one dimension", input: "8\n1\n1\n", wantErr: true},
		{name: "bad width", input: "x 8\n1\n1\n", wantErr: true},
		{name: "too wide", input: "27 8\n1\n1\n", wantErr: true},
		{name: "no ships", input: "8 8\n0\n", wantErr: true},
		{name: "missing lengths", input: "8 8\n3\n1\n2\n", wantErr: true},
		{name: "zero length", input: "8 8\n1\n0\n", wantErr: true},
		{name: "bad length", input: "8 8\n1\nlong\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := ParseRules(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, outcome.InvalidRules, outcome.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rules)
		})
	}
}

func TestLoadRules(t *testing.T) {
	t.Run("File", func(t *testing.T) {
		path := writeFile(t, "small.rules", "4 3\n1\n2\n")
		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, core.Rules{Rows: 3, Cols: 4, NumShips: 1, ShipLengths: []int{2}}, rules)
	})

	t.Run("Missing standard rules", func(t *testing.T) {
		rules, err := LoadRules(filepath.Join(t.TempDir(), StandardRulesName))
		require.NoError(t, err)
		assert.Equal(t, core.StandardRules(), rules)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "other.rules"))
		require.Error(t, err)
		assert.Equal(t, outcome.InvalidRules, outcome.CodeOf(err))
	})

	t.Run("Bad file", func(t *testing.T) {
		path := writeFile(t, "bad.rules", "8 8\nmany\n")
		_, err := LoadRules(path)
		require.Error(t, err)
		assert.Equal(t, outcome.InvalidRules, outcome.CodeOf(err))
		assert.Contains(t, err.Error(), "bad.rules")
	})
}

func TestParseFleet(t *testing.T) {
	fleet, err := ParseFleet(strings.NewReader("# my fleet\nA1 E\n\nC3 S\n  H8 N  \n"))
	require.NoError(t, err)
	require.Len(t, fleet.Ships, 3)

	assert.Equal(t, core.Position{Row: 0, Col: 0}, fleet.Ships[0].Pos)
	assert.Equal(t, core.East, fleet.Ships[0].Dir)
	assert.Equal(t, core.Position{Row: 2, Col: 2}, fleet.Ships[1].Pos)
	assert.Equal(t, core.South, fleet.Ships[1].Dir)
	assert.Equal(t, core.Position{Row: 7, Col: 7}, fleet.Ships[2].Pos)
	assert.Equal(t, core.North, fleet.Ships[2].Dir)

	for _, input := range []string{
		"A1\n",
		"A1 E extra\n",
		"A1 X\n",
		"A1 EE\n",
		"11 E\n",
		"A0 E\n",
	} {
		t.Run(strings.TrimSpace(input), func(t *testing.T) {
			_, err := ParseFleet(strings.NewReader(input))
			require.Error(t, err)
			assert.Equal(t, outcome.InvalidMap, outcome.CodeOf(err))
		})
	}
}

func TestLoadFleet(t *testing.T) {
	path := writeFile(t, "p1.map", "A1 E\nA2 E\n")
	fleet, err := LoadFleet(path)
	require.NoError(t, err)
	assert.Len(t, fleet.Ships, 2)

	_, err = LoadFleet(filepath.Join(t.TempDir(), "missing.map"))
	require.Error(t, err)
	assert.Equal(t, outcome.InvalidMap, outcome.CodeOf(err))
}

func TestParseRoster(t *testing.T) {
	input := `# two sessions
./agent,p1.map,./agent --strategy sweep,p2.map

  ./other , a.map , ./other , b.map
`
	roster, err := ParseRoster(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, roster.Sessions, 2)

	first := roster.Sessions[0]
	assert.Equal(t, AgentSpec{Command: "./agent", Args: []string{}, Map: "p1.map"}, first.Agents[0])
	assert.Equal(t, AgentSpec{Command: "./agent", Args: []string{"--strategy", "sweep"}, Map: "p2.map"}, first.Agents[1])
	assert.Equal(t, "b.map", roster.Sessions[1].Agents[1].Map)

	for name, input := range map[string]string{
		"empty":         "# nothing\n",
		"three fields":  "a,b,c\n",
		"five fields":   "a,b,c,d,e\n",
		"empty program": " ,p1.map,b,p2.map\n",
		"empty map":     "a,,b,p2.map\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRoster(strings.NewReader(input))
			require.Error(t, err)
			assert.Equal(t, outcome.InvalidConfig, outcome.CodeOf(err))
		})
	}
}

func TestParseRosterYAML(t *testing.T) {
	input := `
sessions:
  - agents:
      - command: ./agent
        map: p1.map
      - command: ./agent
        args: ["--strategy", "random"]
        map: random
`
	roster, err := ParseRosterYAML(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, roster.Sessions, 1)
	assert.Equal(t, []string{"--strategy", "random"}, roster.Sessions[0].Agents[1].Args)
	assert.Equal(t, "random", roster.Sessions[0].Agents[1].Map)

	for name, input := range map[string]string{
		"empty":         "",
		"one agent":     "sessions:\n  - agents:\n      - {command: a, map: m}\n",
		"unknown field": "sessions:\n  - agents:\n      - {command: a, map: m, colour: red}\n      - {command: a, map: m}\n",
		"not yaml":      "sessions: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRosterYAML(strings.NewReader(input))
			require.Error(t, err)
			assert.Equal(t, outcome.InvalidConfig, outcome.CodeOf(err))
		})
	}
}

func TestLoadRoster(t *testing.T) {
	text := writeFile(t, "hub.conf", "a,p1.map,b,p2.map\n")
	roster, err := LoadRoster(text)
	require.NoError(t, err)
	assert.Len(t, roster.Sessions, 1)

	yml := writeFile(t, "hub.yml", "sessions:\n  - agents:\n      - {command: a, map: m1}\n      - {command: b, map: m2}\n")
	roster, err = LoadRoster(yml)
	require.NoError(t, err)
	assert.Equal(t, "b", roster.Sessions[0].Agents[1].Command)

	_, err = LoadRoster(filepath.Join(t.TempDir(), "missing.conf"))
	assert.Equal(t, outcome.InvalidConfig, outcome.CodeOf(err))
}
