package command

import (
	"github.com/goliatone/go-certgen/certgen"
)

// GenerateCertificates runs one certificate batch.
type GenerateCertificates struct {
	Request  certgen.Request
	Progress certgen.ProgressFunc
	Result   *certgen.Result
}

func (GenerateCertificates) Type() string { return "certgen:generate" }

// Validate checks the batch paths before any file is touched.
func (msg GenerateCertificates) Validate() error {
	if err := certgen.ValidateRequest(certgen.NormalizeRequest(msg.Request)); err != nil {
		return certgen.AsGoError(err)
	}
	return nil
}
