// Package vote holds the comment vote transition table shared by the server
// (persisted votes) and the client (optimistic tree updates).
package vote

import (
	"errors"
	"fmt"
)

// State is a user's vote on one comment. Its numeric value is the userVote
// shown to clients and the persisted vote_type.
type State int

const (
	None State = 0
	Up   State = 1
	Down State = -1
)

func (s State) String() string {
	switch s {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

// Action is the persistence step a transition requires
type Action int

const (
	Insert Action = iota + 1
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Outcome is one row of the transition table
type Outcome struct {
	From      State
	Requested int
	To        State
	Action    Action
	Delta     int // change applied to the comment's vote count
}

// ErrInvalidType is returned for any requested vote other than +1 or -1
var ErrInvalidType = errors.New("voteType must be 1 or -1")

type input struct {
	from      State
	requested int
}

var table = map[input]Outcome{
	{None, 1}:  {From: None, Requested: 1, To: Up, Action: Insert, Delta: 1},
	{None, -1}: {From: None, Requested: -1, To: Down, Action: Insert, Delta: -1},
	{Up, 1}:    {From: Up, Requested: 1, To: None, Action: Delete, Delta: -1},
	{Up, -1}:   {From: Up, Requested: -1, To: Down, Action: Update, Delta: -2},
	{Down, -1}: {From: Down, Requested: -1, To: None, Action: Delete, Delta: 1},
	{Down, 1}:  {From: Down, Requested: 1, To: Up, Action: Update, Delta: 2},
}

// Valid reports whether voteType is an accepted request
func Valid(voteType int) bool {
	return voteType == 1 || voteType == -1
}

// StateOf converts a stored vote type (or 0 for no vote) into a State
func StateOf(voteType int) (State, error) {
	switch voteType {
	case 0:
		return None, nil
	case 1:
		return Up, nil
	case -1:
		return Down, nil
	default:
		return None, fmt.Errorf("unknown vote state %d", voteType)
	}
}

// Transition returns the outcome of requesting voteType from the current state
func Transition(current State, requested int) (Outcome, error) {
	if !Valid(requested) {
		return Outcome{}, ErrInvalidType
	}
	out, ok := table[input{current, requested}]
	if !ok {
		return Outcome{}, fmt.Errorf("no transition from state %d", int(current))
	}
	return out, nil
}

// Retract is the outcome of removing whatever vote the user holds
func Retract(current State) Outcome {
	if current == None {
		return Outcome{From: None, To: None}
	}
	return Outcome{From: current, To: None, Action: Delete, Delta: -int(current)}
}

// Outcomes lists every row of the transition table
func Outcomes() []Outcome {
	out := make([]Outcome, 0, len(table))
	for _, from := range []State{None, Up, Down} {
		for _, requested := range []int{1, -1} {
			out = append(out, table[input{from, requested}])
		}
	}
	return out
}
