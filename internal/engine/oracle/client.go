package oracle

import (
	"context"
	"crypto/tls"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	utls "github.com/refraction-networking/utls"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	maxRetries   = 3
	baseBackoff  = 2 * time.Second
	maxBackoff   = 30 * time.Second
	jitterFactor = 0.5

	defaultTimeout = 25 * time.Second
	maxErrorBody   = 512
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
}

// RandomUserAgent returns one of the desktop Chrome user agents.
func RandomUserAgent() string {
	return userAgents[rand.IntN(len(userAgents))]
}

// HTTPConfig configures the shared HTTP client.
type HTTPConfig struct {
	Timeout  time.Duration
	ProxyURL string
	// Fingerprint dials TLS with a Chrome ClientHello. Ignored behind a proxy.
	Fingerprint bool
}

// NewHTTPClient builds the client used by oracles and listing fetchers.
func NewHTTPClient(cfg HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.Fingerprint {
		transport.DialTLSContext = chromeDialer(dialer)
	}

	if cfg.ProxyURL != "" {
		proxyParsed, err := url.Parse(cfg.ProxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyParsed)
			// the proxy terminates the connection, so fall back to standard TLS
			transport.DialTLSContext = nil
			transport.TLSClientConfig = &tls.Config{}
		} else {
			zap.L().Warn("ignoring invalid proxy url", zap.String("proxy", cfg.ProxyURL), zap.Error(err))
		}
	}

	return &http.Client{Transport: transport, Timeout: timeout}
}

// chromeDialer performs the TLS handshake with Chrome's fingerprint, forcing
// HTTP/1.1 ALPN since the transport does not speak h2 over custom conns.
func chromeDialer(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		hello, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
		if err != nil {
			conn.Close()
			return nil, err
		}
		for i, ext := range hello.Extensions {
			if alpn, ok := ext.(*utls.ALPNExtension); ok {
				alpn.AlpnProtocols = []string{"http/1.1"}
				hello.Extensions[i] = alpn
				break
			}
		}

		tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloCustom)
		if err := tlsConn.ApplyPreset(&hello); err != nil {
			conn.Close()
			return nil, err
		}
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		return tlsConn, nil
	}
}

// Fetcher issues GET requests with retry and exponential backoff on
// rate limiting and transient server errors.
type Fetcher struct {
	HTTP        *http.Client
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration

	rateLimits atomic.Int64
}

func NewFetcher(hc *http.Client) *Fetcher {
	if hc == nil {
		hc = NewHTTPClient(HTTPConfig{})
	}
	return &Fetcher{
		HTTP:        hc,
		MaxRetries:  maxRetries,
		BaseBackoff: baseBackoff,
		MaxBackoff:  maxBackoff,
	}
}

// ConsecutiveRateLimits returns how many rate limits were seen since the last success.
func (f *Fetcher) ConsecutiveRateLimits() int64 {
	return f.rateLimits.Load()
}

// Get fetches rawURL and returns the body of a 200 response. Failures are
// *TransportError; exhausted rate limiting wraps a *RateLimitError.
func (f *Fetcher) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	attempts := f.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := range attempts {
		body, wait, err := f.do(ctx, rawURL, header)
		if err == nil {
			f.rateLimits.Store(0)
			return body, nil
		}
		lastErr = err

		te, ok := err.(*TransportError)
		if !ok || !retryable(te) {
			return nil, err
		}
		if _, ok := te.Err.(*RateLimitError); ok {
			f.rateLimits.Add(1)
		}
		if attempt+1 >= attempts {
			break
		}

		if wait <= 0 {
			wait = f.backoff(attempt)
		} else if f.MaxBackoff > 0 && wait > f.MaxBackoff {
			wait = f.MaxBackoff
		}
		zap.L().Debug("retrying request",
			zap.String("url", rawURL),
			zap.Int("status", te.StatusCode),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
		)
		if !sleepCtx(ctx, wait) {
			return nil, &TransportError{URL: rawURL, Err: eris.Wrap(ctx.Err(), "oracle: wait before retry")}
		}
	}
	return nil, lastErr
}

func (f *Fetcher) do(ctx context.Context, rawURL string, header http.Header) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: eris.Wrap(err, "oracle: build request")}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", RandomUserAgent())
	}

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: eris.Wrap(err, "oracle: execute request")}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		wait := retryAfter(resp)
		return nil, wait, &TransportError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        &RateLimitError{StatusCode: resp.StatusCode, RetryAfter: wait},
		}
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, retryAfter(resp), &TransportError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        eris.Errorf("oracle: unexpected status: %s", strings.TrimSpace(string(snippet))),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, StatusCode: resp.StatusCode, Err: eris.Wrap(err, "oracle: read body")}
	}
	return body, 0, nil
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	base := f.BaseBackoff
	if base <= 0 {
		base = baseBackoff
	}
	limit := f.MaxBackoff
	if limit <= 0 {
		limit = maxBackoff
	}

	d := base * time.Duration(1<<uint(attempt))
	if d > limit {
		d = limit
	}
	jitter := time.Duration(float64(d) * jitterFactor * rand.Float64())
	return d + jitter
}

func retryable(te *TransportError) bool {
	if _, ok := te.Err.(*RateLimitError); ok {
		return true
	}
	switch te.StatusCode {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses a Retry-After header in seconds or HTTP-date form.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
