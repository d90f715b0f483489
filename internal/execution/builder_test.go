package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOps 按调用次序返回报价，记录 SetVisible 调用
type fakeOps struct {
	quotes     []*domain.InstrumentQuote
	quoteErr   error
	selectOK   bool
	selectErr  error
	quoteCalls int
	selected   []string
}

func (f *fakeOps) Quote(_ context.Context, symbol string) (*domain.InstrumentQuote, error) {
	f.quoteCalls++
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	if len(f.quotes) == 0 {
		return nil, nil
	}
	q := f.quotes[0]
	if len(f.quotes) > 1 {
		f.quotes = f.quotes[1:]
	}
	return q, nil
}

func (f *fakeOps) SetVisible(_ context.Context, symbol string, visible bool) (bool, error) {
	f.selected = append(f.selected, symbol)
	return f.selectOK, f.selectErr
}

func quote(visible bool, flags int) *domain.InstrumentQuote {
	return &domain.InstrumentQuote{
		Symbol:       "EURUSD",
		Ask:          decimal.RequireFromString("1.10010"),
		Bid:          decimal.RequireFromString("1.10000"),
		Digits:       5,
		Visible:      visible,
		FillingFlags: flags,
	}
}

func TestNegotiateFilling(t *testing.T) {
	cases := []struct {
		flags int
		want  domain.FillingMode
	}{
		{0, domain.FillingFOK},
		{domain.SymbolFillingFOK, domain.FillingFOK},
		{domain.SymbolFillingIOC, domain.FillingIOC},
		{domain.SymbolFillingFOK | domain.SymbolFillingIOC, domain.FillingIOC},
		{4, domain.FillingFOK},
	}
	for _, c := range cases {
		if got := NegotiateFilling(c.flags); got != c.want {
			t.Fatalf("NegotiateFilling(%d) got=%s want=%s", c.flags, got, c.want)
		}
	}
}

func TestPrepareVisibleSymbol(t *testing.T) {
	ops := &fakeOps{quotes: []*domain.InstrumentQuote{quote(true, 1)}}
	b := NewBuilder(ops, 0)

	q, err := b.Prepare(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, int32(5), q.Digits)
	assert.Empty(t, ops.selected)
	assert.Equal(t, 1, ops.quoteCalls)
}

func TestPrepareActivatesAndRefetches(t *testing.T) {
	ops := &fakeOps{quotes: []*domain.InstrumentQuote{quote(false, 0), quote(true, 2)}, selectOK: true}
	b := NewBuilder(ops, 0)

	q, err := b.Prepare(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, []string{"EURUSD"}, ops.selected)
	assert.Equal(t, 2, ops.quoteCalls)
	assert.True(t, q.Visible)
	assert.Equal(t, 2, q.FillingFlags)
}

func TestPrepareUnavailable(t *testing.T) {
	ctx := context.Background()

	_, err := NewBuilder(&fakeOps{}, 0).Prepare(ctx, "NOPE")
	assert.ErrorIs(t, err, domain.ErrSymbolUnavailable)

	_, err = NewBuilder(&fakeOps{quotes: []*domain.InstrumentQuote{quote(false, 0)}, selectOK: false}, 0).Prepare(ctx, "EURUSD")
	assert.ErrorIs(t, err, domain.ErrSymbolUnavailable)

	_, err = NewBuilder(&fakeOps{quotes: []*domain.InstrumentQuote{quote(false, 0)}, selectErr: errors.New("terminal gone")}, 0).Prepare(ctx, "EURUSD")
	assert.ErrorIs(t, err, domain.ErrSymbolUnavailable)

	_, err = NewBuilder(&fakeOps{quoteErr: errors.New("timeout")}, 0).Prepare(ctx, "EURUSD")
	assert.ErrorIs(t, err, domain.ErrSymbolUnavailable)

	noPrice := quote(true, 0)
	noPrice.Ask = decimal.Zero
	_, err = NewBuilder(&fakeOps{quotes: []*domain.InstrumentQuote{noPrice}}, 0).Prepare(ctx, "EURUSD")
	assert.ErrorIs(t, err, domain.ErrSymbolUnavailable)
}

func TestBuildFillsOrder(t *testing.T) {
	b := NewBuilder(&fakeOps{}, 0)
	intent := domain.OrderIntent{
		Symbol:          "EURUSD",
		Side:            domain.SideSell,
		ReferencePrice:  decimal.RequireFromString("1.1"),
		StopLoss:        decimal.RequireFromString("1.1055"),
		TakeProfit:      decimal.RequireFromString("1.089"),
		DeviationPoints: 20,
	}
	order, err := b.Build(intent, decimal.RequireFromString("0.1"), *quote(true, 3))
	require.NoError(t, err)

	assert.Equal(t, domain.FillingIOC, order.FillingMode)
	assert.Equal(t, DefaultMagic, order.Magic)
	assert.Equal(t, "Sell order by momentum", order.Comment)
	assert.True(t, order.Volume.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, 20, order.DeviationPoints)
	// 原意图不被修改
	assert.True(t, intent.Volume.IsZero())
	assert.Empty(t, intent.Comment)
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	b := NewBuilder(&fakeOps{}, 42)
	intent := domain.OrderIntent{Symbol: "EURUSD", Side: domain.SideBuy}

	_, err := b.Build(intent, decimal.Zero, *quote(true, 0))
	assert.Error(t, err)

	_, err = b.Build(domain.OrderIntent{Symbol: "EURUSD"}, decimal.NewFromInt(1), *quote(true, 0))
	assert.Error(t, err)

	order, err := b.Build(intent, decimal.NewFromInt(1), *quote(true, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(42), order.Magic)
	assert.Equal(t, "Buy order by momentum", order.Comment)
}

func TestInFlightGuard(t *testing.T) {
	g := NewInFlightGuard(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	key := Key("EURUSD", domain.SideBuy)
	require.NoError(t, g.TryAcquire(key))
	assert.ErrorIs(t, g.TryAcquire(key), ErrDuplicateInFlight)
	assert.NoError(t, g.TryAcquire(Key("EURUSD", domain.SideSell)))

	now = now.Add(2 * time.Minute)
	assert.NoError(t, g.TryAcquire(key))

	g.Release(key)
	assert.NoError(t, g.TryAcquire(key))

	off := NewInFlightGuard(0)
	assert.NoError(t, off.TryAcquire(key))
	assert.NoError(t, off.TryAcquire(key))

	var nilGuard *InFlightGuard
	assert.NoError(t, nilGuard.TryAcquire(key))
}
