package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchelldurbincs/navalhub/internal/game/core"
)

// ErrMalformed is wrapped by every decode failure
var ErrMalformed = errors.New("malformed message")

// MaxPlayerID is the highest player id; ids start at 1
const MaxPlayerID = 2

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// Decode parses one line. The tag must be in expect (nil accepts any tag).
// When rules is non-nil, guessed and reported cells must lie on the board.
// MAP anchors are checked for syntax only; placement is checked later by
// core.Validate.
func Decode(line string, expect TagSet, rules *core.Rules) (Message, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, malformed("empty line")
	}

	head, body, hasBody := strings.Cut(line, " ")
	tag := Tag(head)
	if !expect.Has(tag) {
		return nil, malformed("unexpected %q", head)
	}
	body = strings.TrimSpace(body)

	switch tag {
	case TagYourTurn, TagOK, TagEarly:
		if hasBody && body != "" {
			return nil, malformed("%s takes no arguments", tag)
		}
	default:
		if body == "" {
			return nil, malformed("%s needs arguments", tag)
		}
	}

	switch tag {
	case TagYourTurn:
		return YourTurn{}, nil
	case TagOK:
		return OK{}, nil
	case TagEarly:
		return Early{}, nil
	case TagRules:
		return decodeRules(body)
	case TagMap:
		return decodeMap(body)
	case TagGuess:
		return decodeGuess(body, rules)
	case TagHit, TagMiss, TagSunk:
		return decodeResult(tag, body, rules)
	case TagDone:
		id, err := parseID(body)
		if err != nil {
			return nil, err
		}
		return Done{ID: id}, nil
	default:
		return nil, malformed("unknown tag %q", head)
	}
}

func decodeRules(body string) (Message, error) {
	fields := strings.Split(body, ",")
	if len(fields) < 4 {
		return nil, malformed("RULES has %d fields", len(fields))
	}
	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, malformed("RULES field %d is not a number", i+1)
		}
		nums[i] = n
	}

	r := core.Rules{Cols: nums[0], Rows: nums[1], NumShips: nums[2]}
	if r.NumShips != len(nums)-3 {
		return nil, malformed("RULES declares %d ships but lists %d lengths", r.NumShips, len(nums)-3)
	}
	r.ShipLengths = nums[3:]
	if err := r.Validate(); err != nil {
		return nil, malformed("%v", err)
	}
	return Rules{Rules: r}, nil
}

func decodeMap(body string) (Message, error) {
	entries := strings.Split(body, ":")
	fleet := core.NewFleet(len(entries))
	for i, entry := range entries {
		posText, dirText, ok := strings.Cut(entry, ",")
		if !ok {
			return nil, malformed("MAP entry %d has no direction", i+1)
		}
		pos, err := core.ParsePosition(strings.TrimSpace(posText))
		if err != nil {
			return nil, malformed("MAP entry %d: %v", i+1, err)
		}
		dirText = strings.TrimSpace(dirText)
		if len(dirText) != 1 {
			return nil, malformed("MAP entry %d: bad direction %q", i+1, dirText)
		}
		dir, err := core.ParseDirection(dirText[0])
		if err != nil {
			return nil, malformed("MAP entry %d: %v", i+1, err)
		}
		fleet.AddShip(core.Ship{Pos: pos, Dir: dir})
	}
	return Map{Fleet: fleet}, nil
}

func decodeGuess(body string, rules *core.Rules) (Message, error) {
	var g Guess
	if idText, posText, ok := strings.Cut(body, ","); ok {
		id, err := parseID(idText)
		if err != nil {
			return nil, err
		}
		g.ID = id
		body = posText
	}
	pos, err := parseCell(body, rules)
	if err != nil {
		return nil, err
	}
	g.Pos = pos
	return g, nil
}

func decodeResult(tag Tag, body string, rules *core.Rules) (Message, error) {
	idText, posText, ok := strings.Cut(body, ",")
	if !ok {
		return nil, malformed("%s needs id and cell", tag)
	}
	id, err := parseID(idText)
	if err != nil {
		return nil, err
	}
	pos, err := parseCell(posText, rules)
	if err != nil {
		return nil, err
	}

	r := Result{ID: id, Pos: pos}
	switch tag {
	case TagHit:
		r.Outcome = core.ShotHit
	case TagSunk:
		r.Outcome = core.ShotSunk
	default:
		r.Outcome = core.ShotMiss
	}
	return r, nil
}

func parseID(text string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || id < 1 || id > MaxPlayerID {
		return 0, malformed("bad player id %q", text)
	}
	return id, nil
}

func parseCell(text string, rules *core.Rules) (core.Position, error) {
	pos, err := core.ParsePosition(strings.TrimSpace(text))
	if err != nil {
		return core.Position{}, malformed("%v", err)
	}
	if rules != nil && !rules.Contains(pos) {
		return core.Position{}, malformed("%s is off the %dx%d board", pos, rules.Cols, rules.Rows)
	}
	return pos, nil
}
