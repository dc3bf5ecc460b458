// Package loader reads the rules, map and roster files used by the hub
// and the agents. Every failure carries the outcome code its binary
// exits with.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchelldurbincs/navalhub/internal/game/core"
	"github.com/mitchelldurbincs/navalhub/internal/outcome"
)

// StandardRulesName is the rules file name that falls back to
// core.StandardRules when no such file exists
const StandardRulesName = "standard.rules"

// contentLines returns the trimmed lines of r that are neither blank nor
// '#' comments, each with its 1-based line number
func contentLines(r io.Reader) ([]numberedLine, error) {
	var lines []numberedLine
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		lines = append(lines, numberedLine{n: n, text: text})
	}
	return lines, scanner.Err()
}

type numberedLine struct {
	n    int
	text string
}

// LoadRules reads a rules file
func LoadRules(path string) (core.Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && filepath.Base(path) == StandardRulesName {
			return core.StandardRules(), nil
		}
		return core.Rules{}, outcome.Wrap(outcome.InvalidRules, err)
	}
	defer f.Close()

	rules, err := ParseRules(f)
	if err != nil {
		return core.Rules{}, outcome.Wrap(outcome.InvalidRules, fmt.Errorf("%s: %w", path, err))
	}
	return rules, nil
}

// ParseRules reads rules in file form: "width height", then the ship
// count, then one length per line. Lines after the last length are
// ignored.
func ParseRules(r io.Reader) (core.Rules, error) {
	lines, err := contentLines(r)
	if err != nil {
		return core.Rules{}, outcome.Wrap(outcome.InvalidRules, err)
	}
	if len(lines) < 2 {
		return core.Rules{}, outcome.Errorf(outcome.InvalidRules, "rules need dimensions and a ship count")
	}

	dims := strings.Fields(lines[0].text)
	if len(dims) != 2 {
		return core.Rules{}, outcome.Errorf(outcome.InvalidRules, "line %d: want \"width height\"", lines[0].n)
	}
	cols, err := strconv.Atoi(dims[0])
	if err != nil {
		return core.Rules{}, outcome.Errorf(outcome.InvalidRules, "line %d: bad width %q", lines[0].n, dims[0])
	}
	rows, err := strconv.Atoi(dims[1])
	if err != nil {
		return core.Rules{}, outcome.Errorf(outcome.InvalidRules, "line %d: bad height %q", lines[0].n, dims[1])
	}

	numShips, err := strconv.Atoi(lines[1].text)
	if err != nil {
		return core.Rules{}, outcome.Errorf(outcome.InvalidRules, "line %d: bad ship count %q", lines[1].n, lines[1].text)
	}
	if numShips < 1 {
		return core.Rules{}, outcome.Errorf(outcome.InvalidRules, "line %d: at least one ship required", lines[1].n)
	}
	if len(lines)-2 < numShips {
		return core.Rules{}, outcome.Errorf(outcome.InvalidRules, "%d ship lengths for %d ships", len(lines)-2, numShips)
	}

	rules := core.Rules{Rows: rows, Cols: cols, NumShips: numShips, ShipLengths: make([]int, numShips)}
	for i := 0; i < numShips; i++ {
		line := lines[2+i]
		length, err := strconv.Atoi(line.text)
		if err != nil {
			return core.Rules{}, outcome.Errorf(outcome.InvalidRules, "line %d: bad ship length %q", line.n, line.text)
		}
		rules.ShipLengths[i] = length
	}

	if err := rules.Validate(); err != nil {
		return core.Rules{}, outcome.Wrap(outcome.InvalidRules, err)
	}
	return rules, nil
}

// LoadFleet reads a map file
func LoadFleet(path string) (*core.Fleet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, outcome.Wrap(outcome.InvalidMap, err)
	}
	defer f.Close()

	fleet, err := ParseFleet(f)
	if err != nil {
		return nil, outcome.Wrap(outcome.InvalidMap, fmt.Errorf("%s: %w", path, err))
	}
	return fleet, nil
}

// ParseFleet reads ships in map file form, one "A1 E" per line. Lengths
// are left at zero until the fleet is armed with rules.
func ParseFleet(r io.Reader) (*core.Fleet, error) {
	lines, err := contentLines(r)
	if err != nil {
		return nil, outcome.Wrap(outcome.InvalidMap, err)
	}

	fleet := core.NewFleet(len(lines))
	for _, line := range lines {
		fields := strings.Fields(line.text)
		if len(fields) != 2 || len(fields[1]) != 1 {
			return nil, outcome.Errorf(outcome.InvalidMap, "line %d: want \"cell direction\", got %q", line.n, line.text)
		}
		pos, err := core.ParsePosition(fields[0])
		if err != nil {
			return nil, outcome.Errorf(outcome.InvalidMap, "line %d: %w", line.n, err)
		}
		dir, err := core.ParseDirection(fields[1][0])
		if err != nil {
			return nil, outcome.Errorf(outcome.InvalidMap, "line %d: %w", line.n, err)
		}
		fleet.AddShip(core.NewShip(0, pos, dir))
	}
	return fleet, nil
}
