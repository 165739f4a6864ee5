package confirm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"opsgate/internal/command"
)

// Status of a confirmation record. pending is the only non-terminal
// status; confirmed, cancelled and expired admit no further transition.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Terminal reports whether no transition can leave s.
func (s Status) Terminal() bool { return s != StatusPending }

// Decision an operator can submit against a pending record.
type Decision string

const (
	DecisionConfirm Decision = "confirm"
	DecisionCancel  Decision = "cancel"
)

// ErrBadDecision is returned for decision words outside the accepted set.
var ErrBadDecision = errors.New("confirm: decision must be confirm or cancel")

// decisionWords maps the loose words operators actually type onto the
// two decisions.
var decisionWords = map[string]Decision{
	"confirm": DecisionConfirm,
	"yes":     DecisionConfirm,
	"y":       DecisionConfirm,
	"approve": DecisionConfirm,
	"ok":      DecisionConfirm,
	"cancel":  DecisionCancel,
	"no":      DecisionCancel,
	"n":       DecisionCancel,
	"deny":    DecisionCancel,
	"reject":  DecisionCancel,
	"abort":   DecisionCancel,
}

// ParseDecision normalizes a decision word from an API body or CLI arg.
func ParseDecision(s string) (Decision, error) {
	d, ok := decisionWords[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", ErrBadDecision
	}
	return d, nil
}

// matches reports whether re-submitting d against a terminal status is
// the idempotent case.
func (d Decision) matches(s Status) bool {
	return (d == DecisionConfirm && s == StatusConfirmed) ||
		(d == DecisionCancel && s == StatusCancelled)
}

// Record is one registered command awaiting (or past) its decision.
type Record struct {
	Token     string          `json:"token"`
	Command   command.Command `json:"command"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	DecidedAt time.Time       `json:"decided_at,omitzero"`
}

// TokenNotFoundError is returned for tokens with no record, including
// terminal records already pruned past their retention window.
type TokenNotFoundError struct {
	Token string
}

func (e *TokenNotFoundError) Error() string {
	return fmt.Sprintf("confirm: no record for token %q", e.Token)
}

// AlreadyDecidedError is returned when a decision conflicts with the
// terminal status the record already reached.
type AlreadyDecidedError struct {
	Token  string
	Status Status
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("confirm: token %q already %s", e.Token, e.Status)
}

// ExpiredError is returned when a decision arrives after expires_at.
type ExpiredError struct {
	Token     string
	ExpiresAt time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("confirm: token %q expired at %s", e.Token, e.ExpiresAt.Format(time.RFC3339))
}
