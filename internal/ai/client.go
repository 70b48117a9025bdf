// Package ai implements the client for the external AI generation
// collaborator. The service layer treats it as an opaque request/response
// boundary; this package owns transport, retry, and defensive extraction of
// the JSON payload from the model's prose.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/pkordes/tripweaver/backend/internal/domain"
)

// Config carries the collaborator connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls an OpenAI-style chat completions endpoint.
// It implements service.AIClient.
type Client struct {
	cfg   Config
	httpc *http.Client
	log   *slog.Logger
}

// New constructs a Client. The HTTP client timeout is the per-attempt
// ceiling; the caller's context bounds the whole operation including retries.
func New(cfg Config, log *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
		log:   log,
	}
}

const systemPrompt = `You are a trip itinerary planner. Respond with a single JSON object of the shape
{"itinerary": {"days": [{"day_number": 1, "title": "...", "timeline": [{"start": "09:00", "end": "10:30", "title": "...", "kind": "spot"}]}]}, "changes_made": ["..."]}
and no other commentary.`

// chat request/response shapes for the completions API.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
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

// GenerateItinerary sends the consolidated request and parses the result.
// Transport failures (including timeouts) and unusable responses both
// return *domain.GenerationError, distinguished by Stage, and guarantee the
// caller has committed no state.
func (c *Client) GenerateItinerary(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return domain.GenerationResult{}, &domain.GenerationError{Stage: "response", Err: fmt.Errorf("marshal request: %w", err)}
	}

	text, err := c.complete(ctx, string(payload))
	if err != nil {
		return domain.GenerationResult{}, err
	}

	raw, err := ExtractJSONObject(text)
	if err != nil {
		return domain.GenerationResult{}, &domain.GenerationError{Stage: "response", Err: err}
	}

	var result domain.GenerationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.GenerationResult{}, &domain.GenerationError{Stage: "response", Err: fmt.Errorf("unmarshal result: %w", err)}
	}
	if err := validateResult(result); err != nil {
		return domain.GenerationResult{}, &domain.GenerationError{Stage: "response", Err: err}
	}

	c.log.DebugContext(ctx, "generation complete",
		"days", len(result.Itinerary.Days), "changes", len(result.ChangesMade))
	return result, nil
}

// complete performs the chat call with bounded exponential-backoff retries.
// Only transient transport failures (network errors, 429, 5xx) are retried;
// a definitive 4xx is permanent.
func (c *Client) complete(ctx context.Context, userContent string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
	})
	if err != nil {
		return "", &domain.GenerationError{Stage: "response", Err: err}
	}

	var text string
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var attemptErr error
		text, attemptErr = c.attempt(ctx, body)
		return attemptErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrGeneration) {
			return "", err
		}
		return "", &domain.GenerationError{Stage: "transport", Err: err}
	}
	return text, nil
}

// attempt performs one HTTP round trip and classifies the failure mode.
func (c *Client) attempt(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &domain.GenerationError{Stage: "transport", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Network errors and per-attempt timeouts are worth retrying.
		return "", retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := parseAPIError(resp)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", retry.RetryableError(apiErr)
		}
		return "", &domain.GenerationError{Stage: "transport", Err: apiErr}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &domain.GenerationError{Stage: "response", Err: fmt.Errorf("decode completion: %w", err)}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &domain.GenerationError{Stage: "response", Err: errors.New("empty completion")}
	}

	return parsed.Choices[0].Message.Content, nil
}

// parseAPIError extracts the provider's error message from a non-2xx body.
func parseAPIError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || len(data) == 0 {
		return fmt.Errorf("ai api error: %s", resp.Status)
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Error.Message == "" {
		return fmt.Errorf("ai api error: %s", resp.Status)
	}
	return fmt.Errorf("ai api error: %s: %s", resp.Status, payload.Error.Message)
}

// validateResult enforces the minimum shape the merge engine depends on:
// at least one day, with unique day numbers.
func validateResult(r domain.GenerationResult) error {
	if len(r.Itinerary.Days) == 0 {
		return errors.New("itinerary has no days")
	}
	seen := make(map[int]struct{}, len(r.Itinerary.Days))
	for _, d := range r.Itinerary.Days {
		if d.DayNumber < 1 {
			return fmt.Errorf("invalid day_number %d", d.DayNumber)
		}
		if _, dup := seen[d.DayNumber]; dup {
			return fmt.Errorf("duplicate day_number %d", d.DayNumber)
		}
		seen[d.DayNumber] = struct{}{}
	}
	return nil
}
