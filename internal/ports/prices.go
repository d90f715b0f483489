package ports

import (
	"context"
	"time"

	"github.com/betbot/gomomentum/internal/domain"
)

// Interval K 线周期
type Interval string

const IntervalDaily Interval = "1d"

// PriceProvider returns a close-price series for [start, end]. "No data" is an
// empty series, never an error; errors are reserved for transport failures.
type PriceProvider interface {
	History(ctx context.Context, ticker string, start, end time.Time, interval Interval) (domain.PriceSeries, error)
}
