package command

import (
	"context"

	"github.com/goliatone/go-certgen/certgen"
	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
)

// Generator processes a certificate batch.
type Generator interface {
	Process(ctx context.Context, req certgen.Request, progress certgen.ProgressFunc) (certgen.Result, error)
}

// GenerateCertificatesHandler runs certificate batches.
type GenerateCertificatesHandler struct {
	Generator Generator
}

func NewGenerateCertificatesHandler(gen Generator) *GenerateCertificatesHandler {
	return &GenerateCertificatesHandler{Generator: gen}
}

func (h *GenerateCertificatesHandler) Execute(ctx context.Context, msg GenerateCertificates) error {
	if h == nil || h.Generator == nil {
		return errors.New("certificate generator is required", errors.CategoryInternal).
			WithTextCode("GENERATOR_REQUIRED")
	}
	result, err := h.Generator.Process(ctx, certgen.NormalizeRequest(msg.Request), msg.Progress)
	if msg.Result != nil {
		*msg.Result = result
	}
	if err != nil {
		return err
	}
	if res := gcmd.ResultFromContext[certgen.Result](ctx); res != nil {
		res.Store(result)
	}
	return nil
}
