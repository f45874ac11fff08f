// Package carclient implements the generation client: it validates a
// request, submits it to the backend's /generate endpoint as a multipart
// form, and maps the response (or failure) into a display model.
package carclient

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
	"sync"
	"time"
)

// MaxImageBytes is the upper bound for an attached reference image.
const MaxImageBytes = 7 * 1024 * 1024

// Options configures the generation client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// Timeout applies only when no HTTPClient is supplied. Zero means the
	// transport default: a request runs until it completes or fails.
	Timeout time.Duration
}

// Client talks to the image-generation backend. It permits at most one
// outstanding request; concurrent submissions fail with ErrRequestInFlight
// instead of queueing.
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu       sync.Mutex
	inFlight bool
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "http://localhost:8080"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
	}
}

// Validate checks a request against the submission constraints. It returns a
// *ValidationError on failure and nil otherwise.
func Validate(req GenerationRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return &ValidationError{Code: CodeEmptyPrompt}
	}
	if req.Image != nil {
		if !strings.HasPrefix(req.Image.MIMEType, "image/") {
			return &ValidationError{Code: CodeInvalidImageType}
		}
		if len(req.Image.Data) > MaxImageBytes {
			return &ValidationError{Code: CodeImageTooLarge}
		}
	}
	return nil
}

// Generate validates req and submits it. Exactly one POST is issued per
// successful validation; nothing is retried. HTTP error statuses and
// transport failures both surface as *RemoteError.
func (c *Client) Generate(ctx context.Context, req GenerationRequest) (*GenerationResponse, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	if err := Validate(req); err != nil {
		return nil, err
	}

	body, contentType, err := encodeMultipart(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", body)
	if err != nil {
		return nil, fmt.Errorf("carclient: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RemoteError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, decodeRemoteError(resp)
	}
	return decodeResponse(resp.Body), nil
}

func (c *Client) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrRequestInFlight
	}
	c.inFlight = true
	return nil
}

func (c *Client) end() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

func encodeMultipart(req GenerationRequest) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	if err := w.WriteField("prompt", req.Prompt); err != nil {
		return nil, "", fmt.Errorf("carclient: encode prompt: %w", err)
	}
	style := strings.TrimSpace(req.Style)
	if style == "" {
		style = "none"
	}
	if err := w.WriteField("style", style); err != nil {
		return nil, "", fmt.Errorf("carclient: encode style: %w", err)
	}
	if apiKey := strings.TrimSpace(req.APIKey); apiKey != "" {
		if err := w.WriteField("api_key", apiKey); err != nil {
			return nil, "", fmt.Errorf("carclient: encode api_key: %w", err)
		}
	}
	if req.Image != nil {
		filename := req.Image.Filename
		if filename == "" {
			filename = "image"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
		header.Set("Content-Type", req.Image.MIMEType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("carclient: encode image: %w", err)
		}
		if _, err := part.Write(req.Image.Data); err != nil {
			return nil, "", fmt.Errorf("carclient: write image: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("carclient: finalize form: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

func decodeRemoteError(resp *http.Response) *RemoteError {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && strings.TrimSpace(body.Detail) != "" {
		return &RemoteError{Message: body.Detail}
	}
	return &RemoteError{Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
}

// decodeResponse maps a success body into a GenerationResponse. A missing
// text field becomes the empty string; a missing or non-array images field
// becomes an empty slice. Malformed bodies default the same way.
func decodeResponse(r io.Reader) *GenerationResponse {
	var wire struct {
		Text   *string         `json:"text"`
		Images json.RawMessage `json:"images"`
	}
	out := &GenerationResponse{Images: []Image{}}
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return out
	}
	if wire.Text != nil {
		out.Text = *wire.Text
	}
	if len(wire.Images) > 0 {
		var images []Image
		if err := json.Unmarshal(wire.Images, &images); err == nil && images != nil {
			out.Images = images
		}
	}
	return out
}
