package feed

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"TruthTrader/internal/model"
)

const (
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36"
	maxBackoff       = 120 * time.Second
)

// Client fetches the latest post from the content source, surviving anti-bot
// challenges and transient failures via session rotation and backoff.
type Client struct {
	URL          string
	Username     string
	Password     string
	CookieFile   string
	MaxRetries   int
	InitialDelay time.Duration
	HTTP         *http.Client

	cred *SessionCredential
}

// NewClient creates a fetch client with optional proxy support.
func NewClient(sourceURL, username, password, cookieFile string, maxRetries int, initialDelay time.Duration, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		URL:          sourceURL,
		Username:     username,
		Password:     password,
		CookieFile:   cookieFile,
		MaxRetries:   maxRetries,
		InitialDelay: initialDelay,
		HTTP: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (c *Client) Name() string { return "trumpstruth" }

// FetchLatest retrieves the most recent signal, retrying with exponential
// backoff. On an auth rejection or anti-bot block the cached session is
// invalidated and rotated before the next attempt.
func (c *Client) FetchLatest(ctx context.Context) (*model.Signal, error) {
	var lastErr error
	rotate := false

	for attempt := 1; attempt <= c.MaxRetries; attempt++ {
		if attempt > 1 {
			if err := c.waitBeforeRetry(ctx, attempt-1, rotate); err != nil {
				return nil, err
			}
		}

		if err := c.ensureSession(ctx, rotate); err != nil {
			log.Printf("[WARN] session acquisition failed (attempt %d/%d): %v", attempt, c.MaxRetries, err)
			lastErr = err
			rotate = true
			continue
		}
		rotate = false

		sig, err := c.fetchOnce(ctx)
		if err == nil {
			return sig, nil
		}
		lastErr = err

		switch {
		case errors.Is(err, ErrNoContent):
			log.Printf("[WARN] no posts found (attempt %d/%d)", attempt, c.MaxRetries)
		case errors.Is(err, ErrAuthFailure), errors.Is(err, ErrChallengeBlocked):
			log.Printf("[WARN] blocked on attempt %d/%d: %v, rotating session", attempt, c.MaxRetries, err)
			c.invalidateSession()
			rotate = true
		default:
			log.Printf("[WARN] fetch attempt %d/%d failed: %v", attempt, c.MaxRetries, err)
		}
	}

	if errors.Is(lastErr, ErrNoContent) {
		return nil, ErrNoContent
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrExhaustedRetries, c.MaxRetries, lastErr)
}

// waitBeforeRetry sleeps the backoff delay for the given completed attempt.
// Rotation retries use a short randomized pause so a fresh session doesn't
// immediately look like a replay; plain retries add jitter on top of backoff.
func (c *Client) waitBeforeRetry(ctx context.Context, attempt int, rotate bool) error {
	delay := backoffDelay(attempt, c.InitialDelay)
	if rotate {
		delay += time.Duration(2+3*rand.Float64()) * time.Second
	} else {
		delay += time.Duration(rand.Float64() * float64(2*time.Second))
	}
	log.Printf("[INFO] retrying in %.1fs", delay.Seconds())
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// backoffDelay is the pure backoff schedule: initial * 1.5^(attempt-1),
// capped at 120s. attempt is 1-based and counts completed attempts.
func backoffDelay(attempt int, initial time.Duration) time.Duration {
	d := float64(initial) * math.Pow(1.5, float64(attempt-1))
	if d > float64(maxBackoff) {
		d = float64(maxBackoff)
	}
	return time.Duration(d)
}

// ensureSession makes sure a valid credential is cached, performing the
// acquisition handshake if the cache is absent, expired, or being rotated.
func (c *Client) ensureSession(ctx context.Context, force bool) error {
	if !force && !c.cred.Expired(time.Now()) {
		return nil
	}

	if !force && c.cred == nil {
		cred, err := LoadCredential(c.CookieFile)
		if err != nil {
			log.Printf("[WARN] read cookie cache: %v", err)
		} else if !cred.Expired(time.Now()) {
			c.cred = cred
			return nil
		}
	}

	log.Println("[INFO] acquiring fresh session cookies")
	cred, err := c.handshake(ctx)
	if err != nil {
		return err
	}
	c.cred = cred
	if err := SaveCredential(c.CookieFile, cred); err != nil {
		log.Printf("[WARN] persist cookie cache: %v", err)
	}
	return nil
}

func (c *Client) invalidateSession() {
	c.cred = nil
}

// handshake simulates a browser's negotiation with the source: hit the origin
// page to collect challenge cookies, then verify the credentials.
func (c *Client) handshake(ctx context.Context) (*SessionCredential, error) {
	origin, err := originOf(c.URL)
	if err != nil {
		return nil, fmt.Errorf("derive origin: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/", nil)
	if err != nil {
		return nil, err
	}
	c.setBrowserHeaders(req, origin)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("handshake request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrAuthFailure
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, ErrChallengeBlocked
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("handshake: status %d", resp.StatusCode)
	}

	cookies := map[string]string{}
	for _, ck := range resp.Cookies() {
		cookies[ck.Name] = ck.Value
	}
	cred := &SessionCredential{Cookies: cookies, AcquiredAt: time.Now()}
	log.Printf("[INFO] acquired %d session cookies", len(cookies))
	return cred, nil
}

// fetchOnce issues the single content request using the cached credential.
func (c *Client) fetchOnce(ctx context.Context) (*model.Signal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	origin, _ := originOf(c.URL)
	c.setBrowserHeaders(req, origin)
	if c.cred != nil {
		for name, value := range c.cred.Cookies {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrAuthFailure
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, ErrChallengeBlocked
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch posts: status %d", resp.StatusCode)
	}

	return extractLatest(resp.Body)
}

func (c *Client) setBrowserHeaders(req *http.Request, origin string) {
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("DNT", "1")
	req.Header.Set("Connection", "keep-alive")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if c.Username != "" && c.Password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
		req.Header.Set("Authorization", "Basic "+token)
	}
}

func originOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Scheme + "://" + u.Host, nil
}
