package ports

import (
	"context"

	"github.com/betbot/gomomentum/internal/domain"
)

// Small capability interfaces shared across layers (momentum/execution/trader).

// QuoteGetter returns fresh instrument metadata. A nil quote with nil error means
// the broker does not know the symbol.
type QuoteGetter interface {
	Quote(ctx context.Context, symbol string) (*domain.InstrumentQuote, error)
}

// SymbolSelector toggles an instrument into (or out of) the quotable set.
type SymbolSelector interface {
	SetVisible(ctx context.Context, symbol string, visible bool) (bool, error)
}

// OrderSubmitter sends one order and waits for the broker's answer.
// A nil error comes with a non-nil outcome; a broker rejection is an outcome, not an error.
type OrderSubmitter interface {
	Submit(ctx context.Context, intent domain.OrderIntent) (*domain.OrderOutcome, error)
}

// Session is the authenticated connection lifecycle.
type Session interface {
	Connect(ctx context.Context, creds domain.Credentials) error
	Disconnect(ctx context.Context) error
}

// Gateway is everything the batch needs from the execution venue.
type Gateway interface {
	Session
	QuoteGetter
	SymbolSelector
	OrderSubmitter
}
