package supervisor

import (
	"fmt"
	"io"

	"github.com/mitchelldurbincs/navalhub/internal/game/states"
	"github.com/mitchelldurbincs/navalhub/internal/outcome"
)

// Result is the final state of one session
type Result struct {
	SessionID string
	Round     int
	Phase     states.SessionPhase
	Winner    int
	Turns     int
	Rehits    int
	Code      outcome.Code
	Err       error
}

// Report lists session results in run order
type Report struct {
	Results []Result
	// Outcome is the first fatal code in session order, or Normal
	Outcome outcome.Code
	// Err is the error behind Outcome
	Err error
}

// Report snapshots the result of every session
func (s *Supervisor) Report() Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := Report{Results: make([]Result, 0, len(s.entries))}
	for _, e := range s.entries {
		res := Result{
			SessionID: e.session.ID(),
			Round:     e.session.Round(),
			Phase:     e.session.Phase(),
			Winner:    e.session.Winner(),
			Turns:     e.session.Turns(),
			Rehits:    e.session.Rehits(),
			Code:      outcome.CodeOf(e.err),
			Err:       e.err,
		}
		report.Results = append(report.Results, res)
		if res.Code != outcome.Normal && report.Outcome == outcome.Normal {
			report.Outcome = res.Code
			report.Err = e.err
		}
	}
	return report
}

// Wins counts the games won by each player
func (r Report) Wins() [2]int {
	var wins [2]int
	for _, res := range r.Results {
		if res.Winner >= 1 && res.Winner <= 2 {
			wins[res.Winner-1]++
		}
	}
	return wins
}

// WriteSummary prints one line per session
func (r Report) WriteSummary(w io.Writer) error {
	for _, res := range r.Results {
		var err error
		if res.Err != nil {
			_, err = fmt.Fprintf(w, "round %d %s: %s (%v)\n", res.Round, res.SessionID, res.Code, res.Err)
		} else {
			_, err = fmt.Fprintf(w, "round %d %s: player %d won in %d turns\n", res.Round, res.SessionID, res.Winner, res.Turns)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
