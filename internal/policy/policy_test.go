package policy

import (
	"testing"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func momentum(current, past string) domain.MomentumResult {
	return domain.NewMomentumResult("AAPL", "AAPL", 3, d(current), d(past))
}

func mustPolicy(t *testing.T, cfg Config) *Policy {
	t.Helper()
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestDecideBuyScenario(t *testing.T) {
	p := mustPolicy(t, DefaultConfig())
	intent := p.Decide(momentum("14", "11"), d("14"), 2)
	require.NotNil(t, intent)

	assert.Equal(t, domain.SideBuy, intent.Side)
	assert.Equal(t, "AAPL", intent.Symbol)
	assert.True(t, intent.StopLoss.Equal(d("13.93")), "sl=%s", intent.StopLoss)
	assert.True(t, intent.TakeProfit.Equal(d("14.14")), "tp=%s", intent.TakeProfit)
	assert.Equal(t, DefaultDeviationPoints, intent.DeviationPoints)
	assert.True(t, intent.ReferencePrice.Equal(d("14")))
}

func TestDecideSellInvertsLevels(t *testing.T) {
	p := mustPolicy(t, DefaultConfig())
	intent := p.Decide(momentum("1.1000", "1.1050"), d("1.10000"), 5)
	require.NotNil(t, intent)

	assert.Equal(t, domain.SideSell, intent.Side)
	assert.True(t, intent.StopLoss.Equal(d("1.10550")), "sl=%s", intent.StopLoss)
	assert.True(t, intent.TakeProfit.Equal(d("1.08900")), "tp=%s", intent.TakeProfit)
}

func TestDecideZeroMomentumHolds(t *testing.T) {
	p := mustPolicy(t, DefaultConfig())
	assert.Nil(t, p.Decide(momentum("5", "5"), d("5"), 2))

	_, ok := Side(momentum("5", "5"))
	assert.False(t, ok)
}

func TestLevelsOrdering(t *testing.T) {
	p := mustPolicy(t, DefaultConfig())
	prices := []string{"0.98765", "1.2345", "14", "2034.55", "65000"}
	for _, ps := range prices {
		price := d(ps)
		sl, tp := p.Levels(domain.SideBuy, price, 5)
		if !(sl.LessThan(price) && price.LessThan(tp)) {
			t.Fatalf("buy ordering broken price=%s sl=%s tp=%s", price, sl, tp)
		}
		sl, tp = p.Levels(domain.SideSell, price, 5)
		if !(tp.LessThan(price) && price.LessThan(sl)) {
			t.Fatalf("sell ordering broken price=%s sl=%s tp=%s", price, sl, tp)
		}
	}
}

func TestLevelsCoarsePrecisionStaysOffReference(t *testing.T) {
	p := mustPolicy(t, DefaultConfig())
	cases := []struct {
		side   domain.Side
		price  string
		prec   int32
		sl, tp string
	}{
		// 50*0.005 = 0.25 不足半个价位，取整会回到 50
		{domain.SideBuy, "50", 0, "49", "51"},
		{domain.SideSell, "50", 0, "51", "49"},
		{domain.SideBuy, "10", 0, "9", "11"},
		{domain.SideSell, "1.23", 1, "1.3", "1.2"},
	}
	for _, c := range cases {
		price := d(c.price)
		sl, tp := p.Levels(c.side, price, c.prec)
		assert.True(t, sl.Equal(d(c.sl)), "%s %s sl=%s", c.side, c.price, sl)
		assert.True(t, tp.Equal(d(c.tp)), "%s %s tp=%s", c.side, c.price, tp)
		if c.side == domain.SideBuy && !(sl.LessThan(price) && price.LessThan(tp)) {
			t.Fatalf("buy ordering broken price=%s sl=%s tp=%s", price, sl, tp)
		}
		if c.side == domain.SideSell && !(tp.LessThan(price) && price.LessThan(sl)) {
			t.Fatalf("sell ordering broken price=%s sl=%s tp=%s", price, sl, tp)
		}
	}
}

func TestLevelsWithoutRounding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RoundLevels = false
	p := mustPolicy(t, cfg)

	sl, tp := p.Levels(domain.SideBuy, d("1.23456"), 2)
	assert.True(t, sl.Equal(d("1.2283872")), "sl=%s", sl)
	assert.True(t, tp.Equal(d("1.2469056")), "tp=%s", tp)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.StopLossPct = decimal.Zero
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.TakeProfitPct = d("1.5")
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.DeviationPoints = -1
	_, err := New(cfg)
	assert.Error(t, err)
}
