package getcid

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/licensedesk/internal/activation"
)

const sampleCID = "123456789012345678901234567890123456789012345678"

func TestClassify(t *testing.T) {
	cases := map[string]string{
		sampleCID:                         activation.StatusSuccess,
		"  " + sampleCID + "\n":           activation.StatusSuccess,
		"Wrong IID":                       activation.StatusWrongIID,
		"Blocked IID":                     activation.StatusBlockedIID,
		"Exceeded IID":                    activation.StatusExceededIID,
		"Need to call":                    activation.StatusCallSupport,
		"Key not legimate":                activation.StatusBlockedKey,
		"Maybe blocked key":               activation.StatusBlockedKey,
		"IP reach request limit":          activation.StatusIPBlocked,
		"IP is being locked":              activation.StatusIPBlocked,
		"IID reach request limit":         activation.StatusIIDBlocked,
		"IID is being locked, try later":  activation.StatusIIDBlocked,
		"Token invalid":                   activation.StatusTokenError,
		"Server too busy":                 activation.StatusServerBusy,
		"something unexpected":            activation.StatusError,
		"12345678901234567890123456789012": activation.StatusError,
	}
	for raw, want := range cases {
		got := Classify(raw)
		if got.Status != want {
			t.Fatalf("classify %q want %s got %s", raw, want, got.Status)
		}
	}
	if result := Classify(sampleCID); result.ConfirmationID != sampleCID || !result.Success() {
		t.Fatalf("confirmation id not extracted: %+v", result)
	}
}

func TestExchangeRequestShape(t *testing.T) {
	iid := strings.Repeat("1", 63)
	var gotPath atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		_, _ = w.Write([]byte(sampleCID))
	}))
	defer server.Close()

	client, err := New(Options{BaseURL: server.URL + "/", Token: "tok", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	result, err := client.Exchange(context.Background(), iid)
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if !result.Success() {
		t.Fatalf("expected success, got %+v", result)
	}
	if path, _ := gotPath.Load().(string); path != "/api/"+iid+"/tok" {
		t.Fatalf("unexpected request path: %s", path)
	}
}

func TestExchangeServerErrorIsBusy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(Options{BaseURL: server.URL, Token: "tok"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	result, err := client.Exchange(context.Background(), strings.Repeat("2", 63))
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if result.Status != activation.StatusServerBusy || !result.Retryable() {
		t.Fatalf("expected retryable busy status, got %+v", result)
	}
}

func TestExchangeHonorsContextWhileThrottled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Wrong IID"))
	}))
	defer server.Close()

	client, err := New(Options{BaseURL: server.URL, Token: "tok", RatePerSecond: 0.01, Burst: 1})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if _, err := client.Exchange(context.Background(), strings.Repeat("3", 63)); err != nil {
		t.Fatalf("first exchange should use the burst: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.Exchange(ctx, strings.Repeat("3", 63)); !errors.Is(err, ErrRateLimitWait) {
		t.Fatalf("expected throttled exchange to fail with rate limit error, got %v", err)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{Token: "tok"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("missing base url should fail, got %v", err)
	}
	if _, err := New(Options{BaseURL: "https://example.com"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("missing token should fail, got %v", err)
	}
}

type stubTokenSource struct {
	tokens []string
	err    error
	calls  int32
}

func (s *stubTokenSource) AcquireToken(ctx context.Context) (string, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return "", s.err
	}
	if int(n) > len(s.tokens) {
		return "", nil
	}
	return s.tokens[n-1], nil
}

func TestExchangeDrawsTokenFromSource(t *testing.T) {
	iid := strings.Repeat("4", 63)
	var mu sync.Mutex
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(sampleCID))
	}))
	defer server.Close()

	source := &stubTokenSource{tokens: []string{"pool-a", "pool-b"}}
	client, err := New(Options{BaseURL: server.URL, Token: "static", Tokens: source})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := client.Exchange(context.Background(), iid); err != nil {
			t.Fatalf("exchange %d failed: %v", i, err)
		}
	}
	want := []string{"/api/" + iid + "/pool-a", "/api/" + iid + "/pool-b", "/api/" + iid + "/static"}
	mu.Lock()
	defer mu.Unlock()
	if len(paths) != len(want) {
		t.Fatalf("request count want %d got %d", len(want), len(paths))
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("request %d path want %s got %s", i, want[i], paths[i])
		}
	}
	if got := atomic.LoadInt32(&source.calls); got != 3 {
		t.Fatalf("every exchange should acquire from the pool, got %d calls", got)
	}
}

func TestExchangeWithoutAnyTokenFails(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(sampleCID))
	}))
	defer server.Close()

	source := &stubTokenSource{err: errors.New("pool exhausted")}
	client, err := New(Options{BaseURL: server.URL, Tokens: source})
	if err != nil {
		t.Fatalf("source-only client should be valid: %v", err)
	}
	if _, err := client.Exchange(context.Background(), strings.Repeat("5", 63)); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("authority must not be called without a token")
	}
}

func TestVerifyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify-api-token-getcid" || r.Method != http.MethodPost {
			t.Errorf("unexpected verify request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form failed: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("tokenApi") == "good-token" {
			_, _ = w.Write([]byte(`{"Status":"Success","Result":{"email":"ops@example.com","count_token":12.0,"total_token":500}}`))
			return
		}
		_, _ = w.Write([]byte(`{"Status":"Error","Result":null}`))
	}))
	defer server.Close()

	client, err := New(Options{BaseURL: server.URL, Token: "static"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	info, err := client.Verify(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if info.Email != "ops@example.com" || info.CountUsed != 12 || info.TotalAvailable != 500 {
		t.Fatalf("unexpected token info: %+v", info)
	}
	if _, err := client.Verify(context.Background(), "bad-token"); !errors.Is(err, ErrTokenRejected) {
		t.Fatalf("expected ErrTokenRejected, got %v", err)
	}
}
