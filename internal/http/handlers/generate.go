package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"carpics/internal/providers/gemini"
)

// MaxImageBytes caps an uploaded reference image at 7 MiB.
const MaxImageBytes = 7 * 1024 * 1024

// maxFormMemory bounds how much of the multipart body stays in memory.
const maxFormMemory = 16 << 20

type generatedImage struct {
	MIMEType string `json:"mime_type"`
	Base64   string `json:"base64"`
	DataURL  string `json:"data_url"`
}

type generateResponse struct {
	Text   string           `json:"text"`
	Images []generatedImage `json:"images"`
}

// Generate handles POST /generate: it validates the multipart form, builds a
// per-request Gemini client from the submitted key, refines the prompt on
// the text model, merges it into the selected style template, and runs the
// image model.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		a.detail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	apiKey := strings.TrimSpace(r.FormValue("api_key"))
	if apiKey == "" {
		a.detail(w, http.StatusBadRequest, "api_key is required")
		return
	}
	prompt := r.FormValue("prompt")
	if strings.TrimSpace(prompt) == "" {
		a.detail(w, http.StatusBadRequest, "prompt is required")
		return
	}
	styleKey := strings.TrimSpace(r.FormValue("style"))
	if styleKey == "" {
		styleKey = "none"
	}

	image, ok := a.readImage(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	gen, err := a.Generators.New(ctx, apiKey)
	if err != nil {
		a.detail(w, http.StatusBadRequest, "Invalid api_key provided")
		return
	}

	style := a.Catalog.Resolve(styleKey)
	refined, err := gen.Refine(ctx, gemini.RefineRequest{
		Prompt:           prompt,
		StyleLabel:       style.Label,
		StyleDescription: style.Template,
		HasImage:         image != nil,
	})
	if err != nil || strings.TrimSpace(refined) == "" {
		// Refinement is best-effort; fall back to the raw prompt.
		if err != nil {
			a.Logger.Warn().Err(err).Str("style", styleKey).Msg("prompt refinement failed")
		}
		refined = strings.TrimSpace(prompt)
	}
	finalPrompt := a.Catalog.BuildPrompt(styleKey, refined)

	result, err := gen.Generate(ctx, finalPrompt, image)
	if err != nil {
		a.Logger.Error().Err(err).Str("style", styleKey).Msg("image generation failed")
		a.detail(w, http.StatusInternalServerError, fmt.Sprintf("Generation failed: %v", err))
		return
	}

	out := generateResponse{Text: result.Text, Images: make([]generatedImage, 0, len(result.Images))}
	for _, img := range result.Images {
		mime := img.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		b64 := base64.StdEncoding.EncodeToString(img.Data)
		out.Images = append(out.Images, generatedImage{
			MIMEType: mime,
			Base64:   b64,
			DataURL:  fmt.Sprintf("data:%s;base64,%s", mime, b64),
		})
	}
	a.json(w, http.StatusOK, out)
}

// readImage extracts and validates the optional reference image. The bool
// reports whether the request may proceed; on false a response was written.
func (a *App) readImage(w http.ResponseWriter, r *http.Request) (*gemini.ImageInput, bool) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		a.detail(w, http.StatusBadRequest, "invalid image upload")
		return nil, false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		a.detail(w, http.StatusBadRequest, "image must be of type image/*")
		return nil, false
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		a.detail(w, http.StatusBadRequest, "failed to read image")
		return nil, false
	}
	if len(data) == 0 {
		a.detail(w, http.StatusBadRequest, "image file is empty")
		return nil, false
	}
	if len(data) > MaxImageBytes {
		a.detail(w, http.StatusBadRequest, "image too large (>7MB)")
		return nil, false
	}
	return &gemini.ImageInput{MIMEType: contentType, Data: data}, true
}
