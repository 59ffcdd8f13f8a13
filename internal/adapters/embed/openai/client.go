package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mkrv/qabot/internal/domain"
	"github.com/mkrv/qabot/internal/ports"
)

// Client embeds text through an OpenAI-compatible embeddings endpoint. The
// credential secret arrives per call, so one Client serves the whole pool.
type Client struct {
	baseURL    string
	model      string
	dimensions int
	httpClient *http.Client
}

var _ ports.Embedder = (*Client)(nil)

func NewClient(baseURL, model string, dimensions int, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
		httpClient: httpClient,
	}
}

func (c *Client) Embed(ctx context.Context, secret, text string) (domain.Vector, error) {
	cfg := openai.DefaultConfig(secret)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	cfg.HTTPClient = c.httpClient
	client := openai.NewClientWithConfig(cfg)

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.model),
	}
	if c.dimensions > 0 {
		req.Dimensions = c.dimensions
	}

	resp, err := client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response: %w", domain.ErrRemoteRejected)
	}

	raw := resp.Data[0].Embedding
	vector := make(domain.Vector, len(raw))
	for i, v := range raw {
		vector[i] = float64(v)
	}

	return vector, nil
}

// classify maps transport errors onto the core taxonomy: 429 is a quota
// rejection, 5xx and network trouble are transient, everything else is
// permanent for this input.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &domain.QuotaRejectedError{
				Scope:      scopeFromMessage(apiErr.Message),
				RetryAfter: retryAfterFromMessage(apiErr.Message),
			}
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("remote error %d: %w", apiErr.HTTPStatusCode, domain.ErrRemoteUnavailable)
		default:
			return fmt.Errorf("remote error %d (%s): %w", apiErr.HTTPStatusCode, apiErr.Message, domain.ErrRemoteRejected)
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("request timed out: %w", domain.ErrRemoteUnavailable)
	}

	return fmt.Errorf("request failed: %w", errors.Join(domain.ErrRemoteUnavailable, err))
}

// scopeFromMessage guesses which quota window tripped. Providers phrase
// daily limits as "per day", "daily", or "requests per day"; anything else
// is treated as the minute window, the shorter suspension.
func scopeFromMessage(message string) domain.QuotaScope {
	lowered := strings.ToLower(message)
	if strings.Contains(lowered, "day") || strings.Contains(lowered, "daily") {
		return domain.ScopeDay
	}
	return domain.ScopeMinute
}

// retryAfterFromMessage extracts "try again in 1.234s" style hints that
// OpenAI-compatible services embed in 429 bodies. Zero means no hint.
func retryAfterFromMessage(message string) time.Duration {
	lowered := strings.ToLower(message)
	marker := "try again in "
	idx := strings.Index(lowered, marker)
	if idx < 0 {
		return 0
	}

	rest := lowered[idx+len(marker):]

	var seconds float64
	var unit string
	if _, err := fmt.Sscanf(rest, "%f%s", &seconds, &unit); err != nil {
		return 0
	}

	switch {
	case strings.HasPrefix(unit, "ms"):
		return time.Duration(seconds * float64(time.Millisecond))
	case strings.HasPrefix(unit, "m"):
		return time.Duration(seconds * float64(time.Minute))
	case strings.HasPrefix(unit, "s"):
		return time.Duration(seconds * float64(time.Second))
	default:
		return 0
	}
}
