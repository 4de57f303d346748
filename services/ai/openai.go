package aisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/ai"
)

const maxAttempts = 3

// openAIProvider talks to an OpenAI-compatible `/chat/completions` endpoint.
type openAIProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  core.Logger
}

var _ ai.Provider = (*openAIProvider)(nil)

func NewOpenAIProvider(logger core.Logger) *openAIProvider {
	return &openAIProvider{
		baseURL: strings.TrimSuffix(core.Conf.AI.BaseURL, "/"),
		apiKey:  core.Conf.AI.APIKey,
		model:   core.Conf.AI.Model,
		client:  &http.Client{Timeout: core.Conf.AI.Timeout},
		logger:  logger,
	}
}

type (
	chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	chatRequest struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}

	chatResponse struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
)

func (p *openAIProvider) Complete(ctx context.Context, prompt ai.Prompt) (string, error) {
	msgs := make([]chatMessage, 0, len(prompt.History)+2)
	if prompt.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: prompt.System})
	}
	for _, t := range prompt.History {
		role := t.Role
		if role == "" {
			role = "user"
		}
		msgs = append(msgs, chatMessage{Role: role, Content: t.Content})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: prompt.Message})

	body, err := json.Marshal(chatRequest{Model: p.model, Messages: msgs})
	if err != nil {
		return "", errors.Wrap(err, "marshalling chat request")
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, retryable, err := p.do(ctx, body)
		if err == nil {
			return resp, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
		p.logger.Warn(fmt.Sprintf("chat completion attempt %d/%d failed: %v", attempt, maxAttempts, err))
	}
	return "", lastErr
}

// do performs one request; retryable reports whether the failure is worth
// another attempt (transport errors, 429 and 5xx).
func (p *openAIProvider) do(ctx context.Context, body []byte) (resp string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	res, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", true, errors.Wrap(err, "posting chat completion")
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", true, errors.Wrap(err, "reading response body")
	}

	if res.StatusCode != http.StatusOK {
		retryable = res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError
		return "", retryable, errors.Errorf("chat completion status %d: %s", res.StatusCode, truncate(string(data), 200))
	}

	var cr chatResponse
	if err = json.Unmarshal(data, &cr); err != nil {
		return "", false, errors.Wrap(err, "unmarshalling chat response")
	}
	if cr.Error != nil {
		return "", false, errors.Errorf("chat completion error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", false, errors.New("chat completion returned no choices")
	}
	return cr.Choices[0].Message.Content, false, nil
}

func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt-1)) * time.Second
	jitter := time.Duration(rand.Int63n(int64(time.Second)))
	return base + jitter
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
