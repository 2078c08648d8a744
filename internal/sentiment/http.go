package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClassifier calls a hosted inference endpoint that serves a
// sentiment-analysis model (HuggingFace inference API response shape).
type HTTPClassifier struct {
	EndpointURL string
	APIToken    string
	Client      *http.Client
}

// NewHTTPClassifier creates a classifier client with optional proxy support.
func NewHTTPClassifier(endpointURL, apiToken, proxyURL string) *HTTPClassifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPClassifier{
		EndpointURL: endpointURL,
		APIToken:    apiToken,
		Client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
	}
}

// Classify posts the text to the inference endpoint and returns the top
// label. Blocking; the caller decides what a failure means.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (Result, error) {
	payload, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return Result{}, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.EndpointURL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIToken)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read classify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("classifier: status %d, body: %s", resp.StatusCode, string(body))
	}

	return parseInferenceResponse(body)
}

type scoredLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// parseInferenceResponse handles both the nested ([[{label,score}]]) and flat
// ([{label,score}]) shapes the inference API emits.
func parseInferenceResponse(body []byte) (Result, error) {
	var nested [][]scoredLabel
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		best := pickBest(nested[0])
		return Result{Label: best.Label, Confidence: best.Score}, nil
	}

	var flat []scoredLabel
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		best := pickBest(flat)
		return Result{Label: best.Label, Confidence: best.Score}, nil
	}

	return Result{}, fmt.Errorf("%w: %s", ErrMalformedResponse, string(body))
}

func pickBest(scores []scoredLabel) scoredLabel {
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best
}
