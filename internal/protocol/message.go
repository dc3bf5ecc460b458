// Package protocol encodes and decodes the line messages exchanged between
// the hub and its agents. Every message is a single line: a tag, optionally
// followed by a space and a comma separated body.
package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchelldurbincs/navalhub/internal/game/core"
)

// Tag identifies a message type on the wire
type Tag string

const (
	TagRules    Tag = "RULES"
	TagMap      Tag = "MAP"
	TagYourTurn Tag = "YT"
	TagGuess    Tag = "GUESS"
	TagOK       Tag = "OK"
	TagHit      Tag = "HIT"
	TagMiss     Tag = "MISS"
	TagSunk     Tag = "SUNK"
	TagDone     Tag = "DONE"
	TagEarly    Tag = "EARLY"
)

// Message is any decoded protocol line. String returns the wire form
// without the trailing newline.
type Message interface {
	Tag() Tag
	String() string
}

// Rules announces the shared rules. On the wire the column count comes first.
type Rules struct {
	Rules core.Rules
}

func (Rules) Tag() Tag { return TagRules }

func (m Rules) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d,%d,%d", TagRules, m.Rules.Cols, m.Rules.Rows, m.Rules.NumShips)
	for _, length := range m.Rules.ShipLengths {
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(length))
	}
	return sb.String()
}

// Map carries an agent's ship placements in declaration order. Lengths are
// not sent; they come from the rules.
type Map struct {
	Fleet *core.Fleet
}

func (Map) Tag() Tag { return TagMap }

func (m Map) String() string {
	parts := make([]string, 0, len(m.Fleet.Ships))
	for _, s := range m.Fleet.Ships {
		parts = append(parts, s.Pos.String()+","+s.Dir.String())
	}
	return string(TagMap) + " " + strings.Join(parts, ":")
}

// YourTurn prompts an agent for a guess
type YourTurn struct{}

func (YourTurn) Tag() Tag { return TagYourTurn }
func (YourTurn) String() string { return string(TagYourTurn) }

// Guess is an agent's shot. ID is zero when the agent omitted it.
type Guess struct {
	ID  int
	Pos core.Position
}

func (Guess) Tag() Tag { return TagGuess }

func (m Guess) String() string {
	if m.ID > 0 {
		return fmt.Sprintf("%s %d,%s", TagGuess, m.ID, m.Pos)
	}
	return fmt.Sprintf("%s %s", TagGuess, m.Pos)
}

// OK acknowledges a guess to the player who made it
type OK struct{}

func (OK) Tag() Tag { return TagOK }
func (OK) String() string { return string(TagOK) }

// Result broadcasts the outcome of a resolved shot. ID is the shooter.
type Result struct {
	Outcome core.ShotResult
	ID      int
	Pos     core.Position
}

func (m Result) Tag() Tag {
	switch m.Outcome {
	case core.ShotHit:
		return TagHit
	case core.ShotSunk:
		return TagSunk
	default:
		return TagMiss
	}
}

func (m Result) String() string {
	return fmt.Sprintf("%s %d,%s", m.Tag(), m.ID, m.Pos)
}

// Done ends the game; ID is the winner
type Done struct {
	ID int
}

func (Done) Tag() Tag { return TagDone }

func (m Done) String() string {
	return fmt.Sprintf("%s %d", TagDone, m.ID)
}

// Early tells an agent the game is being abandoned
type Early struct{}

func (Early) Tag() Tag { return TagEarly }
func (Early) String() string { return string(TagEarly) }

// TagSet is the set of tags acceptable in some protocol state.
// A nil set accepts every tag.
type TagSet map[Tag]struct{}

// Expect builds a TagSet from the given tags
func Expect(tags ...Tag) TagSet {
	set := make(TagSet, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// Has reports whether t is in the set
func (s TagSet) Has(t Tag) bool {
	if s == nil {
		return true
	}
	_, ok := s[t]
	return ok
}

// ResultTags are the three shot outcome tags
var ResultTags = []Tag{TagHit, TagMiss, TagSunk}
