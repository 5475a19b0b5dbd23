package query

import (
	"github.com/goliatone/go-errors"
)

// MaxRunHistory caps how many runs a single query returns.
const MaxRunHistory = 200

// RunHistory requests recent batch runs, newest first.
type RunHistory struct {
	Limit int
}

func (RunHistory) Type() string { return "certgen:runs" }

func (msg RunHistory) Validate() error {
	if msg.Limit < 0 || msg.Limit > MaxRunHistory {
		return errors.New("limit must be between 0 and 200", errors.CategoryValidation).
			WithTextCode("LIMIT_OUT_OF_RANGE")
	}
	return nil
}
