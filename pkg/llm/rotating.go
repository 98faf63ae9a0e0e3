package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abdhe/comparison-poster/pkg/metrics"
	"github.com/abdhe/comparison-poster/pkg/resilience"
)

const rotatingName = "rotating"

// RotatingClient is the fallback generation backend. It speaks an
// OpenAI-compatible chat-completions API and rotates through a pool of
// credentials: a rate-limited or rejected credential is skipped immediately,
// a transient failure is retried on the same credential with backoff.
//
// The client is stateless besides the pool cursor; success/failure counters
// are tracked by the Arbiter.
type RotatingClient struct {
	client     *http.Client
	pool       *resilience.KeyPool
	baseURL    string
	model      string
	maxRetries int // transient retries per credential
	backoff    resilience.Schedule
	log        logrus.FieldLogger

	// wait is swapped out in tests to avoid real sleeps.
	wait func(ctx context.Context, attempt int) error
}

// RotatingOption configures a RotatingClient.
type RotatingOption func(*RotatingClient)

// WithRotatingTimeout sets the per-call HTTP timeout.
func WithRotatingTimeout(d time.Duration) RotatingOption {
	return func(r *RotatingClient) { r.client.Timeout = d }
}

// WithMaxRetries bounds transient retries on a single credential.
func WithMaxRetries(n int) RotatingOption {
	return func(r *RotatingClient) { r.maxRetries = n }
}

// WithBackoff overrides the transient backoff schedule.
func WithBackoff(s resilience.Schedule) RotatingOption {
	return func(r *RotatingClient) {
		r.backoff = s
		r.wait = s.Wait
	}
}

// NewRotatingClient creates the fallback client over the given credential
// pool.
func NewRotatingClient(baseURL, model string, pool *resilience.KeyPool, log logrus.FieldLogger, opts ...RotatingOption) *RotatingClient {
	sched := resilience.DefaultSchedule()
	r := &RotatingClient{
		client:     &http.Client{Timeout: 60 * time.Second},
		pool:       pool,
		baseURL:    trimSlash(baseURL),
		model:      model,
		maxRetries: 3,
		backoff:    sched,
		log:        log,
		wait:       sched.Wait,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate iterates the credential pool until one credential succeeds or
// every credential has been tried once for this request.
func (r *RotatingClient) Generate(ctx context.Context, req Request) (Result, error) {
	n := r.pool.Size()
	var lastErr error

	for attempt := 0; attempt < n; attempt++ {
		idx, key := r.pool.Current()

		res, err := r.tryCredential(ctx, req, idx, key)
		if err == nil {
			return res, nil
		}
		lastErr = err

		kind := KindOf(err)
		if kind == KindPermanent {
			// Rotating credentials cannot fix a request-shape error.
			return Result{}, err
		}
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("rotating: %w", ctx.Err())
		}

		r.log.WithFields(logrus.Fields{
			"key_index": idx,
			"kind":      kind.String(),
		}).Warnf("credential failed, rotating: %v", err)
		r.pool.Advance()
		metrics.KeyRotationsTotal.Inc()
	}

	return Result{}, &ExhaustedError{Attempts: n, Last: lastErr}
}

// tryCredential issues the call with one credential, retrying transient
// failures in place up to maxRetries before giving up on the credential.
// Rate-limit and auth failures return immediately so the caller can rotate
// without delay.
func (r *RotatingClient) tryCredential(ctx context.Context, req Request, idx int, key string) (Result, error) {
	var lastErr error
	for retry := 0; ; retry++ {
		res, err := r.call(ctx, req, idx, key)
		if err == nil {
			return res, nil
		}
		lastErr = err

		switch KindOf(err) {
		case KindTransient:
			if retry >= r.maxRetries {
				return Result{}, lastErr
			}
			r.log.WithField("key_index", idx).Debugf("transient failure, backing off (retry %d/%d): %v", retry+1, r.maxRetries, err)
			if werr := r.wait(ctx, retry); werr != nil {
				return Result{}, werr
			}
		default:
			return Result{}, err
		}
	}
}

func (r *RotatingClient) call(ctx context.Context, req Request, idx int, key string) (Result, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       r.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return Result{}, &APIError{Provider: rotatingName, Status: http.StatusBadRequest, Body: fmt.Sprintf("marshal request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, &APIError{Provider: rotatingName, Status: http.StatusBadRequest, Body: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	httpResp, err := r.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("rotating: do request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(httpResp.Body)
		return Result{}, &APIError{Provider: rotatingName, Status: httpResp.StatusCode, Body: string(respBody)}
	}

	var chat chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chat); err != nil {
		return Result{}, fmt.Errorf("rotating: decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return Result{}, &APIError{Provider: rotatingName, Status: httpResp.StatusCode, Body: "no choices in response"}
	}

	return Result{Text: chat.Choices[0].Message.Content, Provider: rotatingName, KeyIndex: idx}, nil
}
