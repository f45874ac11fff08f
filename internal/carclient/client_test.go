package carclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestGenerateSubmitsMultipartForm(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/generate" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("prompt"); got != "a red coupe" {
			t.Fatalf("prompt mismatch: %q", got)
		}
		if got := r.FormValue("style"); got != "photo_golden_hour" {
			t.Fatalf("style mismatch: %q", got)
		}
		if got := r.FormValue("api_key"); got != "test-key" {
			t.Fatalf("api_key mismatch: %q", got)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("image part missing: %v", err)
		}
		defer file.Close()
		if got := header.Header.Get("Content-Type"); got != "image/jpeg" {
			t.Fatalf("image content type mismatch: %q", got)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "jpegbytes" {
			t.Fatalf("image bytes mismatch: %q", data)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"done","images":[{"data_url":"data:image/png;base64,AA==","mime_type":"image/png"}]}`))
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL})
	resp, err := client.Generate(context.Background(), GenerationRequest{
		Prompt: "a red coupe",
		Style:  "photo_golden_hour",
		APIKey: "test-key",
		Image:  &ImageAttachment{Filename: "ref.jpg", MIMEType: "image/jpeg", Data: []byte("jpegbytes")},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if resp.Text != "done" {
		t.Fatalf("text mismatch: %q", resp.Text)
	}
	if len(resp.Images) != 1 || resp.Images[0].MIMEType != "image/png" {
		t.Fatalf("images mismatch: %#v", resp.Images)
	}
}

func TestGenerateOmitsBlankAPIKeyAndDefaultsStyle(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, ok := r.MultipartForm.Value["api_key"]; ok {
			t.Fatalf("api_key should be omitted when blank")
		}
		if got := r.FormValue("style"); got != "none" {
			t.Fatalf("style default mismatch: %q", got)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL})
	if _, err := client.Generate(context.Background(), GenerationRequest{Prompt: "p", APIKey: "   "}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
}

func TestGenerateRejectsEmptyPromptWithoutNetworkCall(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL})
	for _, prompt := range []string{"", "   ", "\n\t "} {
		_, err := client.Generate(context.Background(), GenerationRequest{Prompt: prompt})
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Code != CodeEmptyPrompt {
			t.Fatalf("prompt %q: expected empty_prompt, got %v", prompt, err)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("no network call should have occurred, got %d", calls.Load())
	}
}

func TestGenerateRejectsNonImageAttachment(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL})
	_, err := client.Generate(context.Background(), GenerationRequest{
		Prompt: "p",
		Image:  &ImageAttachment{MIMEType: "application/pdf", Data: []byte("%PDF")},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Code != CodeInvalidImageType {
		t.Fatalf("expected invalid_image_type, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("no network call should have occurred")
	}
}

func TestGenerateRejectsOversizedImage(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://127.0.0.1:0"})

	over := GenerationRequest{
		Prompt: "p",
		Image:  &ImageAttachment{MIMEType: "image/png", Data: make([]byte, MaxImageBytes+1)},
	}
	var verr *ValidationError
	if _, err := client.Generate(context.Background(), over); !errors.As(err, &verr) || verr.Code != CodeImageTooLarge {
		t.Fatalf("expected image_too_large, got %v", err)
	}

	// Exactly at the limit passes validation.
	atLimit := GenerationRequest{
		Prompt: "p",
		Image:  &ImageAttachment{MIMEType: "image/png", Data: make([]byte, MaxImageBytes)},
	}
	if err := Validate(atLimit); err != nil {
		t.Fatalf("7 MiB image should validate, got %v", err)
	}
}

func TestGenerateMapsDetailFromErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"bad request"}`))
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL})
	_, err := client.Generate(context.Background(), GenerationRequest{Prompt: "p"})
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if rerr.Message != "bad request" {
		t.Fatalf("message mismatch: %q", rerr.Message)
	}
}

func TestGenerateFallsBackToStatusCodeMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL})
	_, err := client.Generate(context.Background(), GenerationRequest{Prompt: "p"})
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if rerr.Message != "HTTP 503" {
		t.Fatalf("message mismatch: %q", rerr.Message)
	}
}

func TestGenerateSurfacesTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	client := NewClient(Options{BaseURL: ts.URL})
	_, err := client.Generate(context.Background(), GenerationRequest{Prompt: "p"})
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if rerr.Message == "" {
		t.Fatalf("transport error message should not be empty")
	}
}

func TestGenerateDefaultsMissingResponseFields(t *testing.T) {
	cases := map[string]string{
		"empty object":     `{}`,
		"images not array": `{"text":"hi","images":{"data_url":"D"}}`,
		"null images":      `{"text":"hi","images":null}`,
		"not json":         `garbage`,
	}
	for name, body := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		client := NewClient(Options{BaseURL: ts.URL})
		resp, err := client.Generate(context.Background(), GenerationRequest{Prompt: "p"})
		ts.Close()
		if err != nil {
			t.Fatalf("%s: Generate returned error: %v", name, err)
		}
		if resp.Images == nil || len(resp.Images) != 0 {
			t.Fatalf("%s: images should default to empty, got %#v", name, resp.Images)
		}
	}
}

func TestGenerateAllowsOneOutstandingRequest(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Signal without closing so the follow-up request can reuse the handler.
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL})
	done := make(chan error, 1)
	go func() {
		_, err := client.Generate(context.Background(), GenerationRequest{Prompt: "first"})
		done <- err
	}()

	<-entered
	if _, err := client.Generate(context.Background(), GenerationRequest{Prompt: "second"}); !errors.Is(err, ErrRequestInFlight) {
		t.Fatalf("expected ErrRequestInFlight, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	// Once the first request completes the client is re-triggerable.
	if _, err := client.Generate(context.Background(), GenerationRequest{Prompt: "third"}); err != nil {
		t.Fatalf("follow-up request failed: %v", err)
	}
}

func TestGenerateTrimsAPIKeyBeforeSending(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("api_key"); got != "abc" {
			t.Fatalf("api_key should be trimmed, got %q", got)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewClient(Options{BaseURL: ts.URL})
	if _, err := client.Generate(context.Background(), GenerationRequest{Prompt: "p", APIKey: "  abc "}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
}

func TestValidateAcceptsImageSubtypes(t *testing.T) {
	req := GenerationRequest{
		Prompt: "p",
		Image:  &ImageAttachment{MIMEType: "image/svg+xml", Data: []byte("<svg/>")},
	}
	if err := Validate(req); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !strings.HasPrefix(req.Image.MIMEType, "image/") {
		t.Fatalf("test fixture broken")
	}
}
