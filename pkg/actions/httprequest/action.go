// Package httprequest provides the http_request action: performs an HTTP
// call and exposes status, headers, and decoded body as the step output.
package httprequest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/protocol"
)

const defaultTimeout = 30 * time.Second

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "http_request"
}

func (*ActionFactory) Name() string {
	return "HTTP Request"
}

func (*ActionFactory) Description() string {
	return "Performs an HTTP request and returns the response status, headers, and body."
}

func (*ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Request URL. Supports {{variable}} placeholders.",
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method",
				"default":     "GET",
				"enum":        []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body. Supports {{variable}} placeholders.",
			},
		},
		"required": []string{"url"},
	}
}

func (*ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}

type Action struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	Timeout time.Duration
}

func NewAction(config map[string]any) (*Action, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("http_request action requires a url")
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	body, _ := config["body"].(string)

	headers := make(map[string]string)

	if headersConfig, ok := config["headers"].(map[string]any); ok {
		for key, raw := range headersConfig {
			if value, ok := raw.(string); ok {
				headers[key] = value
			}
		}
	}

	return &Action{
		Method:  strings.ToUpper(method),
		URL:     url,
		Headers: headers,
		Body:    body,
		Timeout: defaultTimeout,
	}, nil
}

func (a *Action) Execute(ctx context.Context, _ models.Variables, logger *slog.Logger) (models.Value, error) {
	logger = logger.With("action_type", "http_request", "method", a.Method, "url", a.URL)
	logger.Debug("Executing HTTP request")

	reqCtx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	var bodyReader io.Reader
	if a.Body != "" {
		bodyReader = strings.NewReader(a.Body)
	}

	req, err := http.NewRequestWithContext(reqCtx, a.Method, a.URL, bodyReader)
	if err != nil {
		return models.Null(), fmt.Errorf("failed to create http request: %w", err)
	}

	for key, value := range a.Headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return models.Null(), fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Null(), fmt.Errorf("failed to read response body: %w", err)
	}

	output := map[string]models.Value{
		"status": models.NumberValue(float64(resp.StatusCode)),
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err == nil {
		body, convErr := models.FromAny(decoded)
		if convErr == nil {
			output["body"] = body
		} else {
			output["body"] = models.StringValue(string(data))
		}
	} else {
		output["body"] = models.StringValue(string(data))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return models.MapValue(output), fmt.Errorf("http request returned status %d", resp.StatusCode)
	}

	logger.Debug("HTTP request completed", "status", resp.StatusCode)

	return models.MapValue(output), nil
}
