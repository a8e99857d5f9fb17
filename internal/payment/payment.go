// Package payment defines the narrow checkout-session contract the order
// flow consumes. A real gateway integration sits behind Gateway; the bundled
// implementation is a stub for environments without one.
package payment

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRequest describes a pending payment: amount in the smallest
// currency unit, the payer, a reference tying the session back to its cart,
// and the redirect URLs.
type SessionRequest struct {
	AmountMinor int64
	Email       string
	Reference   string
	SuccessURL  string
	CancelURL   string
}

// Session is the opaque checkout-session reference a gateway returns.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Gateway creates checkout sessions with an external payment provider.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

// StubGateway fabricates session references without contacting a provider.
// Useful for development and tests.
type StubGateway struct {
	lg *zap.Logger
}

// NewStubGateway creates a StubGateway logging through lg.
func NewStubGateway(lg *zap.Logger) *StubGateway {
	return &StubGateway{lg: lg}
}

// CreateSession returns a fresh opaque session pointing at the success URL.
func (g *StubGateway) CreateSession(_ context.Context, req SessionRequest) (*Session, error) {
	id := "cs_" + uuid.New().String()
	g.lg.Info("stub checkout session created",
		zap.String("session_id", id),
		zap.Int64("amount_minor", req.AmountMinor),
		zap.String("reference", req.Reference),
	)
	return &Session{ID: id, URL: req.SuccessURL}, nil
}
