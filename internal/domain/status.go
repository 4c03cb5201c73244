package domain

import (
	"fmt"
	"slices"
	"strings"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusInKitchen Status = "in-kitchen"
	StatusReady     Status = "ready"
	StatusServed    Status = "served"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// lifecycle is the only forward path; cancelled sits outside it.
var lifecycle = []Status{StatusPending, StatusInKitchen, StatusReady, StatusServed, StatusCompleted}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if st == StatusCancelled || slices.Contains(lifecycle, st) {
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) rank() int {
	return slices.Index(lifecycle, s)
}

// Next returns the immediate successor in the lifecycle.
func (s Status) Next() (Status, bool) {
	i := s.rank()
	if i < 0 || i+1 >= len(lifecycle) {
		return "", false
	}
	return lifecycle[i+1], true
}

// NextStatuses lists every status reachable in one regular transition.
func NextStatuses(from Status) []Status {
	if from.Terminal() || from.rank() < 0 {
		return nil
	}
	out := make([]Status, 0, 2)
	if next, ok := from.Next(); ok {
		out = append(out, next)
	}
	return append(out, StatusCancelled)
}

// Transition validates a regular move: immediate successor, or cancellation from a non-terminal state.
func Transition(from, to Status) error {
	if slices.Contains(NextStatuses(from), to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

type Role string

const (
	RoleStaff   Role = "staff"
	RoleKitchen Role = "kitchen"
	RoleManager Role = "manager"
	RoleSystem  Role = "system"
)

type Actor struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

var roleTargets = map[Role][]Status{
	RoleKitchen: {StatusInKitchen, StatusReady},
	RoleStaff:   {StatusInKitchen, StatusReady, StatusServed, StatusCompleted, StatusCancelled},
	RoleSystem:  {StatusInKitchen, StatusReady, StatusServed, StatusCompleted, StatusCancelled},
	RoleManager: {StatusInKitchen, StatusReady, StatusServed, StatusCompleted, StatusCancelled},
}

// TransitionAs is Transition restricted to the targets the actor's role may set.
func TransitionAs(actor Actor, from, to Status) error {
	if !slices.Contains(roleTargets[actor.Role], to) {
		return fmt.Errorf("%w: role %q cannot set %s", ErrIllegalTransition, actor.Role, to)
	}
	return Transition(from, to)
}

// Override lets a manager jump forward past intermediate states. It never leaves a
// terminal state and never moves backward.
func Override(actor Actor, from, to Status) error {
	if actor.Role != RoleManager {
		return fmt.Errorf("%w: override requires manager role", ErrIllegalTransition)
	}
	if from.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrIllegalTransition, from)
	}
	if to == StatusCancelled {
		return nil
	}
	if from.rank() < 0 || to.rank() <= from.rank() {
		return fmt.Errorf("%w: %s -> %s is not forward", ErrIllegalTransition, from, to)
	}
	return nil
}
