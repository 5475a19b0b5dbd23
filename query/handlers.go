package query

import (
	"context"

	"github.com/goliatone/go-certgen/certgen"
	"github.com/goliatone/go-errors"
)

// DefaultRunHistory is used when RunHistory.Limit is zero.
const DefaultRunHistory = 20

// RunHistoryHandler returns batch run history.
type RunHistoryHandler struct {
	Tracker certgen.RunTracker
}

func NewRunHistoryHandler(tracker certgen.RunTracker) *RunHistoryHandler {
	return &RunHistoryHandler{Tracker: tracker}
}

func (h *RunHistoryHandler) Query(ctx context.Context, msg RunHistory) ([]certgen.RunRecord, error) {
	if h == nil || h.Tracker == nil {
		return nil, errors.New("run tracker is required", errors.CategoryInternal).
			WithTextCode("TRACKER_REQUIRED")
	}
	limit := msg.Limit
	if limit == 0 {
		limit = DefaultRunHistory
	}
	return h.Tracker.List(ctx, limit)
}
