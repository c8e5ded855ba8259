package studymaterial

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/studygeni/study-gateway/internal/logger"
)

// Client talks to the remote study material generator. One attempt per call,
// no retries: the caller surfaces the failure and the user resubmits.
type Client struct {
	httpClient *http.Client
	baseURL    string
	defaultKey string
	logger     *logger.Logger
}

// NewClient creates a generation backend client. defaultKey, when non-empty,
// is forwarded for requests that carry no credential of their own.
func NewClient(baseURL string, timeout time.Duration, defaultKey string, logger *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		defaultKey: strings.TrimSpace(defaultKey),
		logger:     logger,
	}
}

// HealthResponse is the backend liveness probe response.
type HealthResponse struct {
	Status string `json:"status"`
}

// validationDetailItem is one entry in the backend's validation error body.
type validationDetailItem struct {
	Loc  []interface{} `json:"loc"`
	Msg  string        `json:"msg"`
	Type string        `json:"type"`
}

// errorBody matches the backend's error shape. Detail is either a plain
// string or a list of validation items, so it is decoded lazily.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// Generate invokes the generation endpoint for the text and topic variants.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*Result, error) {
	if strings.TrimSpace(req.GeminiAPIKey) == "" && c.defaultKey != "" {
		wired := *req
		wired.GeminiAPIKey = c.defaultKey
		req = &wired
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/routes/generate", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq)
}

// GenerateFromFile invokes the file upload endpoint with a multipart body.
// The credential field is appended only when non-blank.
func (c *Client) GenerateFromFile(ctx context.Context, req *FileRequest) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.Filename))
	header.Set("Content-Type", req.ContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart file part: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, fmt.Errorf("failed to write file payload: %w", err)
	}

	if err := writer.WriteField("purpose", string(req.Purpose)); err != nil {
		return nil, fmt.Errorf("failed to write purpose field: %w", err)
	}
	if err := writer.WriteField("difficulty_level", string(req.DifficultyLevel)); err != nil {
		return nil, fmt.Errorf("failed to write difficulty field: %w", err)
	}

	key := strings.TrimSpace(req.GeminiAPIKey)
	if key == "" {
		key = c.defaultKey
	}
	if key != "" {
		if err := writer.WriteField("gemini_api_key", key); err != nil {
			return nil, fmt.Errorf("failed to write credential field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/routes/process-file-upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(httpReq)
}

// Health probes the backend liveness endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/_healthz", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{Status: resp.StatusCode, Detail: extractDetail(body, resp.Status)}
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, &ParseError{Err: err}
	}

	return &health, nil
}

func (c *Client) do(httpReq *http.Request) (*Result, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Status: resp.StatusCode, Detail: extractDetail(body, resp.Status)}
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ParseError{Err: err}
	}

	return &result, nil
}

// extractDetail pulls the backend's error message out of its JSON error body.
// Falls back to the HTTP status text when the body is not parseable.
func extractDetail(body []byte, statusText string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return statusText
	}

	var detail string
	if err := json.Unmarshal(eb.Detail, &detail); err == nil && detail != "" {
		return detail
	}

	var items []validationDetailItem
	if err := json.Unmarshal(eb.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return statusText
}
