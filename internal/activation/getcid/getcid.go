package getcid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/licensedesk/internal/activation"

	"golang.org/x/time/rate"
)

var (
	ErrConfigInvalid  = errors.New("getcid config invalid")
	ErrRequestFailed  = errors.New("getcid request failed")
	ErrRateLimitWait  = errors.New("getcid rate limit wait cancelled")
	ErrNoToken        = errors.New("getcid token unavailable")
	ErrTokenRejected  = errors.New("getcid token rejected")
	confirmationIDRe  = regexp.MustCompile(`^\d{48}$`)
	maxResponseLength = int64(4096)
)

const defaultTokenQuota = 100

// TokenSource 令牌池，每次取用即占用一次额度
type TokenSource interface {
	AcquireToken(ctx context.Context) (string, error)
}

// TokenInfo 令牌校验结果
type TokenInfo struct {
	Email          string
	CountUsed      int
	TotalAvailable int
}

// Options getcid 客户端配置；Tokens 优先，Token 为兜底
type Options struct {
	BaseURL       string
	Token         string
	Tokens        TokenSource
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	HTTPClient    *http.Client
}

// Client getcid 确认码兑换客户端
type Client struct {
	baseURL string
	token   string
	tokens  TokenSource
	http    *http.Client
	limiter *rate.Limiter
}

// New 创建客户端
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	token := strings.TrimSpace(opts.Token)
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if token == "" && opts.Tokens == nil {
		return nil, fmt.Errorf("%w: token or token source is required", ErrConfigInvalid)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		tokens:  opts.Tokens,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// Exchange 将 63 位安装 ID 兑换为确认 ID
func (c *Client) Exchange(ctx context.Context, installationID string) (activation.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return activation.Result{}, fmt.Errorf("%w: %v", ErrRateLimitWait, err)
	}
	token, err := c.acquireToken(ctx)
	if err != nil {
		return activation.Result{}, err
	}
	endpoint := fmt.Sprintf("%s/api/%s/%s", c.baseURL, url.PathEscape(installationID), url.PathEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return activation.Result{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return activation.Result{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLength))
	if err != nil {
		return activation.Result{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return activation.Result{Status: activation.StatusServerBusy, Raw: string(body)}, nil
	}
	return Classify(string(body)), nil
}

// acquireToken 令牌池取不到时退回配置令牌
func (c *Client) acquireToken(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return c.token, nil
	}
	token, err := c.tokens.AcquireToken(ctx)
	if err == nil && token != "" {
		return token, nil
	}
	if c.token != "" {
		return c.token, nil
	}
	if err == nil {
		return "", ErrNoToken
	}
	return "", fmt.Errorf("%w: %v", ErrNoToken, err)
}

type verifyResponse struct {
	Status string `json:"Status"`
	Result *struct {
		Email      string  `json:"email"`
		CountToken float64 `json:"count_token"`
		TotalToken float64 `json:"total_token"`
	} `json:"Result"`
}

// Verify 向 getcid 校验令牌并读取额度
func (c *Client) Verify(ctx context.Context, token string) (TokenInfo, error) {
	form := url.Values{}
	form.Set("tokenApi", token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify-api-token-getcid", strings.NewReader(form.Encode()))
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return TokenInfo{}, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var payload verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseLength)).Decode(&payload); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrTokenRejected, err)
	}
	if payload.Status != "Success" || payload.Result == nil {
		return TokenInfo{}, ErrTokenRejected
	}
	total := int(payload.Result.TotalToken)
	if total <= 0 {
		total = defaultTokenQuota
	}
	return TokenInfo{
		Email:          payload.Result.Email,
		CountUsed:      int(payload.Result.CountToken),
		TotalAvailable: total,
	}, nil
}

// Classify 解析 getcid 文本响应
func Classify(raw string) activation.Result {
	text := strings.TrimSpace(raw)
	if confirmationIDRe.MatchString(text) {
		return activation.Result{Status: activation.StatusSuccess, ConfirmationID: text, Raw: raw}
	}
	return activation.Result{Status: classifyMessage(text), Raw: raw}
}

func classifyMessage(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "wrong iid"):
		return activation.StatusWrongIID
	case strings.Contains(lower, "blocked iid"):
		return activation.StatusBlockedIID
	case strings.Contains(lower, "exceeded iid"):
		return activation.StatusExceededIID
	case strings.Contains(lower, "need to call"):
		return activation.StatusCallSupport
	case strings.Contains(lower, "not legimate"), strings.Contains(lower, "maybe blocked"):
		return activation.StatusBlockedKey
	case strings.Contains(lower, "ip reach request limit"), strings.Contains(lower, "ip is being locked"):
		return activation.StatusIPBlocked
	case strings.Contains(lower, "iid reach request limit"), strings.Contains(lower, "iid is being locked"):
		return activation.StatusIIDBlocked
	case strings.Contains(lower, "token"):
		return activation.StatusTokenError
	case strings.Contains(lower, "server too busy"):
		return activation.StatusServerBusy
	default:
		return activation.StatusError
	}
}
