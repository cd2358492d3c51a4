package shopping

import "errors"

var (
	ErrListNotFound    = errors.New("shopping list not found")
	ErrItemNotFound    = errors.New("shopping list item not found")
	ErrNotDraft        = errors.New("can only start a shopping trip from a draft list")
	ErrEmptyList       = errors.New("cannot start shopping with an empty list")
	ErrNotActive       = errors.New("can only complete an active shopping trip")
	ErrAbandonNotDraft = errors.New("can only abandon a draft list")
	ErrCancelNotActive = errors.New("can only cancel an active shopping trip")
	ErrListClosed      = errors.New("cannot change a completed shopping list")
)

// RuleError reports a violated precondition of the shopping list lifecycle.
// Its message is safe to show to users.
type RuleError struct {
	Op  string
	Err error
}

func (e *RuleError) Error() string { return e.Err.Error() }

func (e *RuleError) Unwrap() error { return e.Err }

func rule(op string, err error) error {
	return &RuleError{Op: op, Err: err}
}

// IsNotFound reports whether err names a missing list or item.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrListNotFound) || errors.Is(err, ErrItemNotFound)
}
