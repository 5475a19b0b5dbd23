package command

import (
	"github.com/goliatone/go-certgen/certgen"
	"github.com/goliatone/go-certgen/query"
	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-errors"
)

// RegisterHandlers wires the generate command and run history query to
// go-command. Callers unsubscribe the returned subscriptions on shutdown.
func RegisterHandlers(reg *gcmd.Registry, gen Generator, tracker certgen.RunTracker) ([]dispatcher.Subscription, error) {
	if gen == nil {
		return nil, errors.New("certificate generator is required", errors.CategoryValidation).
			WithTextCode("GENERATOR_REQUIRED")
	}

	generate := NewGenerateCertificatesHandler(gen)
	history := query.NewRunHistoryHandler(tracker)

	subscriptions := []dispatcher.Subscription{
		dispatcher.SubscribeCommand(generate),
		dispatcher.SubscribeQuery(history),
	}

	if reg != nil {
		for _, handler := range []any{generate, history} {
			if err := reg.RegisterCommand(handler); err != nil {
				return subscriptions, err
			}
		}
	}
	return subscriptions, nil
}
