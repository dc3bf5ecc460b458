// Package outcome defines the terminal statuses of the hub and the agents
// and how they map to process exit codes and diagnostics.
package outcome

import (
	"errors"
	"fmt"
)

// Code is a terminal status shared by the hub and the agents
type Code int

const (
	Normal Code = iota
	BadArgCount
	InvalidRules
	InvalidConfig
	AgentStart
	CommError
	SignalTerminated
	InvalidID
	InvalidMap
	InvalidSeed
)

var codeNames = map[Code]string{
	Normal:           "normal",
	BadArgCount:      "bad_arg_count",
	InvalidRules:     "invalid_rules",
	InvalidConfig:    "invalid_config",
	AgentStart:       "agent_start",
	CommError:        "comm_error",
	SignalTerminated: "signal_terminated",
	InvalidID:        "invalid_id",
	InvalidMap:       "invalid_map",
	InvalidSeed:      "invalid_seed",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// HubExitStatus returns the hub's process exit status for c
func (c Code) HubExitStatus() int {
	switch c {
	case Normal:
		return 0
	case BadArgCount:
		return 1
	case InvalidRules:
		return 2
	case InvalidConfig:
		return 3
	case AgentStart:
		return 4
	case CommError:
		return 5
	case SignalTerminated:
		return 6
	default:
		return 5
	}
}

// AgentExitStatus returns an agent's process exit status for c
func (c Code) AgentExitStatus() int {
	switch c {
	case Normal:
		return 0
	case BadArgCount:
		return 1
	case InvalidID:
		return 2
	case InvalidMap:
		return 3
	case InvalidSeed:
		return 4
	default:
		return 5
	}
}

// HubMessage returns the line the hub prints to stderr for c
func (c Code) HubMessage() string {
	switch c {
	case BadArgCount:
		return "Usage: hub rules config"
	case InvalidRules:
		return "Error reading rules"
	case InvalidConfig:
		return "Error reading config"
	case AgentStart:
		return "Error starting agents"
	case CommError:
		return "Communications error"
	case SignalTerminated:
		return "Caught SIGHUP"
	default:
		return ""
	}
}

// AgentMessage returns the line an agent prints to stderr for c
func (c Code) AgentMessage() string {
	switch c {
	case BadArgCount:
		return "Usage: agent id map seed"
	case InvalidID:
		return "Invalid player id"
	case InvalidMap:
		return "Invalid map file"
	case InvalidSeed:
		return "Invalid seed"
	case Normal:
		return ""
	default:
		return "Communications error"
	}
}

// Error carries a terminal code together with its cause
type Error struct {
	Code Code
	Err  error
}

// Errorf creates an *Error with a formatted cause
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches code to err. A nil err stays nil; an err that already
// carries a code keeps it.
func Wrap(code Code, err error) error {
	if err == nil {
		return nil
	}
	var oe *Error
	if errors.As(err, &oe) {
		return err
	}
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the code carried by err: Normal for nil and CommError
// for errors without one
func CodeOf(err error) Code {
	if err == nil {
		return Normal
	}
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code
	}
	return CommError
}
