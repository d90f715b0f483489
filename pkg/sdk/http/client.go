package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

type Client struct {
	client *resty.Client
	once   *resty.Client // 不重试，用于非幂等请求
}

// Options 客户端选项；零值字段使用默认值
type Options struct {
	Timeout    time.Duration
	RetryCount int
	UserAgent  string
}

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "gomomentum/1.0"
)

func NewClient(host string, opts Options) *Client {
	host = strings.TrimSuffix(host, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	return &Client{
		client: newResty(host, opts, opts.RetryCount),
		once:   newResty(host, opts, 0),
	}
}

func newResty(host string, opts Options, retryCount int) *resty.Client {
	// resty 会自动从环境变量读取代理配置（HTTP_PROXY, HTTPS_PROXY）
	return resty.New().
		SetBaseURL(host).
		SetTimeout(opts.Timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("User-Agent", opts.UserAgent).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			// 遇到 429 限流，优先使用 Retry-After 头
			if resp != nil && resp.StatusCode() == http.StatusTooManyRequests {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return seconds, nil
					}
				}
				return 5 * time.Second, nil
			}
			return 0, nil
		})
}

type RequestOptions struct {
	Headers map[string]string
	Data    any
	Params  map[string]any
	NoRetry bool // 非幂等请求（如下单）：超时/失败后不重发
}

func (c *Client) newRequest(ctx context.Context, noRetry bool) *resty.Request {
	rc := c.client
	if noRetry {
		rc = c.once
	}
	r := rc.R()
	if ctx != nil {
		r.SetContext(ctx)
	}
	r.SetHeader("Accept", "application/json")
	return r
}

// DoRequest 发送请求；out 非空时按 JSON 解析 2xx 响应体。
// 非 2xx 响应返回错误（由 ParseHTTPError 生成）。
func (c *Client) DoRequest(ctx context.Context, method, endpoint string, opt *RequestOptions, out any) (*resty.Response, error) {
	rc := c.newRequest(ctx, opt != nil && opt.NoRetry)
	if opt != nil {
		for k, v := range opt.Headers {
			rc.SetHeader(k, v)
		}
		if opt.Params != nil {
			rc.SetQueryParamsFromValues(toValues(opt.Params))
		}
		if opt.Data != nil {
			rc.SetHeader("Content-Type", "application/json")
			rc.SetBody(opt.Data)
		}
	}
	if out != nil {
		rc.SetResult(out)
	}

	var (
		resp *resty.Response
		err  error
	)
	switch strings.ToUpper(method) {
	case http.MethodGet:
		resp, err = rc.Get(endpoint)
	case http.MethodPost:
		resp, err = rc.Post(endpoint)
	case http.MethodDelete:
		resp, err = rc.Delete(endpoint)
	case http.MethodPut:
		resp, err = rc.Put(endpoint)
	default:
		return nil, fmt.Errorf("unsupported method: %s", method)
	}
	if _, perr := ParseHTTPError(resp, err); perr != nil {
		return resp, errors.Wrapf(perr, "%s %s", strings.ToUpper(method), endpoint)
	}
	return resp, nil
}

func toValues(m map[string]any) map[string][]string {
	v := make(map[string][]string, len(m))
	for k, val := range m {
		switch t := val.(type) {
		case []string:
			v[k] = t
		default:
			v[k] = []string{fmt.Sprint(val)}
		}
	}
	return v
}

func ParseHTTPError(resp *resty.Response, err error) (any, error) {
	if err != nil {
		return map[string]any{"error": err.Error()}, err
	}
	if resp.IsSuccess() {
		return resp, nil
	}
	var body any
	b := resp.Body()
	_ = json.Unmarshal(b, &body)
	if body == nil {
		body = string(b)
	}
	return map[string]any{
		"status":      resp.StatusCode(),
		"status_text": resp.Status(),
		"error":       body,
	}, errors.Errorf("http non-2xx: %d %v", resp.StatusCode(), body)
}
