package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const primaryName = "primary"

// PrimaryClient talks to the primary generation service: POST /ask for
// generation and GET /health as a liveness probe. It performs no retries;
// retry and fallback policy live entirely in the Arbiter.
type PrimaryClient struct {
	client       *http.Client
	baseURL      string
	probeTimeout time.Duration
}

// PrimaryOption configures a PrimaryClient.
type PrimaryOption func(*PrimaryClient)

// WithPrimaryTimeout sets the per-call timeout for generation requests.
func WithPrimaryTimeout(d time.Duration) PrimaryOption {
	return func(p *PrimaryClient) { p.client.Timeout = d }
}

// WithProbeTimeout sets the health-check probe timeout.
func WithProbeTimeout(d time.Duration) PrimaryOption {
	return func(p *PrimaryClient) { p.probeTimeout = d }
}

// NewPrimaryClient creates a client for the primary generation service.
func NewPrimaryClient(baseURL string, opts ...PrimaryOption) *PrimaryClient {
	p := &PrimaryClient{
		client:       &http.Client{Timeout: 60 * time.Second},
		baseURL:      trimSlash(baseURL),
		probeTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type askRequest struct {
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"systemPrompt,omitempty"`
	MaxTokens    int     `json:"maxTokens"`
	Temperature  float32 `json:"temperature"`
}

// The service has returned the generated text under both names over time.
type askResponse struct {
	Response string `json:"response"`
	Answer   string `json:"answer"`
}

// HealthCheck probes GET /health with a short timeout. It never returns an
// error; any failure reads as unhealthy.
func (p *PrimaryClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Generate performs a single generation call. Network failures and timeouts
// surface as *UnavailableError, non-2xx responses as *RejectedError.
func (p *PrimaryClient) Generate(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(askRequest{
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	})
	if err != nil {
		return Result{}, fmt.Errorf("primary: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/ask", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("primary: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return Result{}, &UnavailableError{Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(httpResp.Body)
		return Result{}, &RejectedError{Status: httpResp.StatusCode, Body: string(respBody)}
	}

	var ask askResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&ask); err != nil {
		return Result{}, &RejectedError{Status: httpResp.StatusCode, Body: fmt.Sprintf("decode response: %v", err)}
	}

	text := ask.Response
	if text == "" {
		text = ask.Answer
	}
	if text == "" {
		return Result{}, &RejectedError{Status: httpResp.StatusCode, Body: "empty response body"}
	}

	return Result{Text: text, Provider: primaryName, KeyIndex: -1}, nil
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
