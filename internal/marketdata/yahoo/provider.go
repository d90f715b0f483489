package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/betbot/gomomentum/internal/ports"
	"github.com/betbot/gomomentum/pkg/ratelimit"
	sdkhttp "github.com/betbot/gomomentum/pkg/sdk/http"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "yahoo")

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	chartPath      = "/v8/finance/chart/"

	// Yahoo 对非浏览器 UA 偶尔返回 429
	browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RetryCount        int
	RequestsPerSecond int // <=0 不限速
}

// Provider Yahoo Finance chart v8 日线数据源，实现 ports.PriceProvider
type Provider struct {
	client  *sdkhttp.Client
	limiter ratelimit.Limiter
}

var _ ports.PriceProvider = (*Provider)(nil)

func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Provider{
		client: sdkhttp.NewClient(cfg.BaseURL, sdkhttp.Options{
			Timeout:    cfg.Timeout,
			RetryCount: cfg.RetryCount,
			UserAgent:  browserUserAgent,
		}),
		limiter: ratelimit.PerSecond(cfg.RequestsPerSecond),
	}
}

// History 拉取 [start, end] 的收盘价。代码不存在（404 / Not Found）返回空序列。
func (p *Provider) History(ctx context.Context, ticker string, start, end time.Time, interval ports.Interval) (domain.PriceSeries, error) {
	if interval == "" {
		interval = ports.IntervalDaily
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body chartResponse
	resp, err := p.client.DoRequest(ctx, http.MethodGet, chartPath+url.PathEscape(ticker), &sdkhttp.RequestOptions{
		Params: map[string]any{
			"period1":        start.Unix(),
			"period2":        end.Unix(),
			"interval":       string(interval),
			"includePrePost": "false",
			"events":         "div,splits",
		},
	}, &body)
	if resp != nil && resp.StatusCode() == http.StatusNotFound {
		log.WithField("ticker", ticker).Debugf("数据源无此代码")
		return domain.PriceSeries{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "yahoo chart %s", ticker)
	}

	series, err := body.series(ticker)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"ticker": ticker, "points": series.Len()}).Debugf("已获取日线数据")
	return series, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []flexClose `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []flexClose `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// series 解析为清洗后的序列。优先使用复权收盘价，与常见行情库的默认行为一致。
func (r *chartResponse) series(ticker string) (domain.PriceSeries, error) {
	if e := r.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return domain.PriceSeries{}, nil
		}
		return nil, fmt.Errorf("yahoo api error for %s: %s - %s", ticker, e.Code, e.Description)
	}
	if len(r.Chart.Result) == 0 {
		return domain.PriceSeries{}, nil
	}

	res := r.Chart.Result[0]
	var closes []flexClose
	if len(res.Indicators.AdjClose) > 0 && len(res.Indicators.AdjClose[0].AdjClose) == len(res.Timestamp) {
		closes = res.Indicators.AdjClose[0].AdjClose
	} else if len(res.Indicators.Quote) > 0 {
		closes = res.Indicators.Quote[0].Close
	}
	if len(closes) != len(res.Timestamp) {
		return nil, fmt.Errorf("data alignment error for %s: %d timestamps, %d closes", ticker, len(res.Timestamp), len(closes))
	}

	points := make([]domain.PricePoint, 0, len(closes))
	for i, c := range closes {
		if !c.valid {
			continue
		}
		points = append(points, domain.PricePoint{Time: time.Unix(res.Timestamp[i], 0).UTC(), Close: c.value})
	}
	return domain.Normalize(points), nil
}

// flexClose 收盘价字段：数字、单元素数组或 null。
// 多代码批量接口会把单个点包装成 [x]，这里统一拆成标量。
type flexClose struct {
	value decimal.Decimal
	valid bool
}

func (f *flexClose) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = flexClose{}
		return nil
	}
	if b[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		if len(items) != 1 {
			*f = flexClose{}
			return nil
		}
		return f.UnmarshalJSON(items[0])
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("invalid close %s: %w", b, err)
	}
	*f = flexClose{value: d, valid: true}
	return nil
}
