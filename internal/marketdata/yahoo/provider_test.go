package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/betbot/gomomentum/internal/ports"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "EURUSD=X", "currency": "USD"},
      "timestamp": [1709510400, 1709596800, 1709683200, 1709769600, 1709856000],
      "indicators": {
        "quote": [{"close": [1.0851, null, [1.0862], 1.0901, 1.0938]}]
      }
    }],
    "error": null
  }
}`

func newTestProvider(t *testing.T, h http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func TestHistoryParsesChart(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	var gotPath string
	var gotQuery map[string]string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"period1":  r.URL.Query().Get("period1"),
			"period2":  r.URL.Query().Get("period2"),
			"interval": r.URL.Query().Get("interval"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody))
	})

	s, err := p.History(context.Background(), "EURUSD=X", start, end, ports.IntervalDaily)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/EURUSD=X", gotPath)
	assert.Equal(t, "1709251200", gotQuery["period1"])
	assert.Equal(t, "1710115200", gotQuery["period2"])
	assert.Equal(t, "1d", gotQuery["interval"])

	// null 被丢弃，[x] 被拆成标量
	require.Equal(t, 4, s.Len())
	assert.True(t, s[1].Close.Equal(decimal.RequireFromString("1.0862")), "close=%s", s[1].Close)
	last, _ := s.FromEnd(1)
	assert.True(t, last.Close.Equal(decimal.RequireFromString("1.0938")))
	assert.Equal(t, int64(1709856000), last.Time.Unix())
}

func TestHistoryPrefersAdjustedClose(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1,2],
	  "indicators":{"quote":[{"close":[10,11]}],"adjclose":[{"adjclose":[9.5,10.5]}]}}],"error":null}}`
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})

	s, err := p.History(context.Background(), "AAPL", time.Unix(0, 0), time.Unix(10, 0), "")
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.True(t, s[0].Close.Equal(decimal.RequireFromString("9.5")))
}

func TestHistoryNotFoundIsEmpty(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	s, err := p.History(context.Background(), "FOO", time.Now().AddDate(0, 0, -10), time.Now(), ports.IntervalDaily)
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestHistoryEmptyResult(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"FOO"},"indicators":{"quote":[{}]}}],"error":null}}`))
	})

	s, err := p.History(context.Background(), "FOO", time.Now().AddDate(0, 0, -10), time.Now(), ports.IntervalDaily)
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestHistoryServerErrorIsError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.History(context.Background(), "AAPL", time.Now().AddDate(0, 0, -10), time.Now(), ports.IntervalDaily)
	assert.Error(t, err)
}

func TestHistoryApiError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input"}}}`))
	})

	_, err := p.History(context.Background(), "AAPL", time.Now().AddDate(0, 0, -10), time.Now(), ports.IntervalDaily)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad Request")
}

func TestFlexCloseUnmarshal(t *testing.T) {
	cases := map[string]struct {
		valid bool
		want  string
	}{
		`1.25`:       {true, "1.25"},
		`[2.5]`:      {true, "2.5"},
		`null`:       {false, ""},
		`[]`:         {false, ""},
		`[null]`:     {false, ""},
		`[1.0, 2.0]`: {false, ""},
		`1.5e-3`:     {true, "0.0015"},
	}
	for in, c := range cases {
		var f flexClose
		require.NoError(t, f.UnmarshalJSON([]byte(in)), in)
		assert.Equal(t, c.valid, f.valid, in)
		if c.valid {
			assert.True(t, f.value.Equal(decimal.RequireFromString(c.want)), "%s -> %s", in, f.value)
		}
	}
}
