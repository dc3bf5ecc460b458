package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mitchelldurbincs/navalhub/internal/outcome"
)

// AgentSpec is how the hub starts one agent
type AgentSpec struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
	Map     string   `yaml:"map"`
}

// SessionSpec pairs the two agents of one session, player 1 first
type SessionSpec struct {
	Agents []AgentSpec `yaml:"agents"`
}

// Roster lists the sessions the hub runs, in order
type Roster struct {
	Sessions []SessionSpec `yaml:"sessions"`
}

// LoadRoster reads a hub config file. Files ending in .yaml or .yml are
// parsed as YAML, anything else as the line form read by ParseRoster.
func LoadRoster(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, outcome.Wrap(outcome.InvalidConfig, err)
	}
	defer f.Close()

	var roster *Roster
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		roster, err = ParseRosterYAML(f)
	default:
		roster, err = ParseRoster(f)
	}
	if err != nil {
		return nil, outcome.Wrap(outcome.InvalidConfig, fmt.Errorf("%s: %w", path, err))
	}
	return roster, nil
}

// ParseRoster reads one session per line as
// "program1,map1,program2,map2". A program field may carry arguments
// separated by spaces.
func ParseRoster(r io.Reader) (*Roster, error) {
	lines, err := contentLines(r)
	if err != nil {
		return nil, outcome.Wrap(outcome.InvalidConfig, err)
	}

	roster := &Roster{Sessions: make([]SessionSpec, 0, len(lines))}
	for _, line := range lines {
		fields := strings.Split(line.text, ",")
		if len(fields) != 4 {
			return nil, outcome.Errorf(outcome.InvalidConfig, "line %d: want 4 comma separated fields, got %d", line.n, len(fields))
		}

		session := SessionSpec{Agents: make([]AgentSpec, 0, 2)}
		for i := 0; i < 4; i += 2 {
			program := strings.Fields(fields[i])
			mapPath := strings.TrimSpace(fields[i+1])
			if len(program) == 0 || mapPath == "" {
				return nil, outcome.Errorf(outcome.InvalidConfig, "line %d: empty program or map", line.n)
			}
			session.Agents = append(session.Agents, AgentSpec{
				Command: program[0],
				Args:    program[1:],
				Map:     mapPath,
			})
		}
		roster.Sessions = append(roster.Sessions, session)
	}

	if err := roster.Validate(); err != nil {
		return nil, err
	}
	return roster, nil
}

// ParseRosterYAML reads a roster in YAML form
func ParseRosterYAML(r io.Reader) (*Roster, error) {
	roster := &Roster{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(roster); err != nil && !errors.Is(err, io.EOF) {
		return nil, outcome.Wrap(outcome.InvalidConfig, err)
	}
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	return roster, nil
}

// Validate checks that every session has two runnable agents
func (r *Roster) Validate() error {
	if len(r.Sessions) == 0 {
		return outcome.Errorf(outcome.InvalidConfig, "no sessions")
	}
	for i, s := range r.Sessions {
		if len(s.Agents) != 2 {
			return outcome.Errorf(outcome.InvalidConfig, "session %d: want 2 agents, got %d", i+1, len(s.Agents))
		}
		for j, a := range s.Agents {
			if strings.TrimSpace(a.Command) == "" {
				return outcome.Errorf(outcome.InvalidConfig, "session %d agent %d: empty command", i+1, j+1)
			}
			if strings.TrimSpace(a.Map) == "" {
				return outcome.Errorf(outcome.InvalidConfig, "session %d agent %d: empty map", i+1, j+1)
			}
		}
	}
	return nil
}
