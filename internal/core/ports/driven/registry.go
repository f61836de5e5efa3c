package driven

import (
	"context"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

// NormaliserRegistry picks the normaliser for a raw file by MIME type.
// When several accept a type, the one with the highest priority wins.
type NormaliserRegistry interface {
	// Normalise fails with domain.ErrUnsupportedType when no normaliser
	// accepts the MIME type.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	Register(normaliser Normaliser)

	// SupportedMIMETypes lists the accepted types, sorted.
	SupportedMIMETypes() []string
}
