package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/betbot/gomomentum/internal/domain"
	"github.com/betbot/gomomentum/internal/ports"
	sdkhttp "github.com/betbot/gomomentum/pkg/sdk/http"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "gateway")

type Config struct {
	BaseURL    string
	Token      string // 可选，作为 Bearer token 发送
	Timeout    time.Duration
	RetryCount int
}

// Bridge 通过 HTTP 访问交易终端桥接服务（终端侧是 MT5 Python 接口的薄封装）。
// 会话状态保存在桥接服务端，Bridge 本身无状态。
type Bridge struct {
	client  *sdkhttp.Client
	headers map[string]string
}

var _ ports.Gateway = (*Bridge)(nil)

func NewBridge(cfg Config) *Bridge {
	headers := map[string]string{}
	if cfg.Token != "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}
	return &Bridge{
		client: sdkhttp.NewClient(cfg.BaseURL, sdkhttp.Options{
			Timeout:    cfg.Timeout,
			RetryCount: cfg.RetryCount,
		}),
		headers: headers,
	}
}

func (b *Bridge) opts(data any) *sdkhttp.RequestOptions {
	return &sdkhttp.RequestOptions{Headers: b.headers, Data: data}
}

// Connect 初始化终端并登录；任何失败都归类为 domain.ErrSessionFailure
func (b *Bridge) Connect(ctx context.Context, creds domain.Credentials) error {
	var resp statusResponse
	_, err := b.client.DoRequest(ctx, http.MethodPost, "/session/connect", b.opts(connectRequest{
		Login:    creds.Login,
		Password: creds.Password,
		Server:   creds.Server,
	}), &resp)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSessionFailure, err)
	}
	if !resp.OK {
		return fmt.Errorf("%w: login %d@%s: %s (code %d)", domain.ErrSessionFailure, creds.Login, creds.Server, resp.Message, resp.Code)
	}
	log.WithField("server", creds.Server).Infof("✅ 已连接交易终端: login=%d", creds.Login)
	return nil
}

func (b *Bridge) Disconnect(ctx context.Context) error {
	_, err := b.client.DoRequest(ctx, http.MethodPost, "/session/disconnect", b.opts(nil), nil)
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	log.Infof("已断开交易终端")
	return nil
}

// Quote 品种不存在（404）时返回 nil, nil
func (b *Bridge) Quote(ctx context.Context, symbol string) (*domain.InstrumentQuote, error) {
	var info symbolInfo
	resp, err := b.client.DoRequest(ctx, http.MethodGet, "/symbols/"+url.PathEscape(symbol), b.opts(nil), &info)
	if resp != nil && resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return info.toDomain(symbol), nil
}

func (b *Bridge) SetVisible(ctx context.Context, symbol string, visible bool) (bool, error) {
	var resp statusResponse
	_, err := b.client.DoRequest(ctx, http.MethodPost, "/symbols/"+url.PathEscape(symbol)+"/select", b.opts(selectRequest{Enable: visible}), &resp)
	if err != nil {
		return false, err
	}
	return resp.OK, nil
}

// Submit 提交市价单。券商拒单不是 error，通过 OrderOutcome.Accepted=false 返回；
// 传输失败归类为 domain.ErrSubmitFailed。下单从不重试：超时时终端可能已经成交。
func (b *Bridge) Submit(ctx context.Context, intent domain.OrderIntent) (*domain.OrderOutcome, error) {
	var res orderResult
	opt := b.opts(newOrderRequest(intent))
	opt.NoRetry = true
	_, err := b.client.DoRequest(ctx, http.MethodPost, "/orders", opt, &res)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSubmitFailed, intent.Symbol, err)
	}
	return res.toDomain(), nil
}
