// Package gemini adapts Google Gemini to the generation pipeline. Clients
// are built per request from the API key the caller submitted; no key is
// read from the environment.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// ErrMissingAPIKey indicates that no API key was supplied for the request.
var ErrMissingAPIKey = errors.New("gemini: API key is required")

// Options controls the models a Provider targets.
type Options struct {
	TextModel  string
	ImageModel string
	Logger     zerolog.Logger
}

// RefineRequest carries the inputs for rewriting a user prompt into a
// photography-optimized directive.
type RefineRequest struct {
	Prompt           string
	StyleLabel       string
	StyleDescription string
	HasImage         bool
}

// ImageInput is an optional reference image passed to the image model.
type ImageInput struct {
	MIMEType string
	Data     []byte
}

// GeneratedImage is one image produced by the image model.
type GeneratedImage struct {
	MIMEType string
	Data     []byte
}

// Result aggregates the text and image parts of one generation call.
type Result struct {
	Text   string
	Images []GeneratedImage
}

// Generator performs the two model calls behind one /generate request.
type Generator interface {
	Refine(ctx context.Context, req RefineRequest) (string, error)
	Generate(ctx context.Context, prompt string, image *ImageInput) (*Result, error)
}

// Factory builds a Generator bound to a caller-supplied API key.
type Factory interface {
	New(ctx context.Context, apiKey string) (Generator, error)
}

// Provider is the production Factory on top of the Gemini SDK.
type Provider struct {
	textModel  string
	imageModel string
	logger     zerolog.Logger
}

// NewProvider constructs a Provider with sane model defaults.
func NewProvider(opts Options) *Provider {
	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = "gemini-2.5-flash"
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image-preview"
	}
	return &Provider{
		textModel:  textModel,
		imageModel: imageModel,
		logger:     opts.Logger,
	}
}

// New builds a per-request Generator from the submitted API key.
func (p *Provider) New(ctx context.Context, apiKey string) (Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &generator{
		client:     client,
		textModel:  p.textModel,
		imageModel: p.imageModel,
		logger:     p.logger,
	}, nil
}

var _ Factory = (*Provider)(nil)

type generator struct {
	client     *genai.Client
	textModel  string
	imageModel string
	logger     zerolog.Logger
}

// Refine rewrites the user's request into a concise photography directive on
// the text model. A thinking budget is attempted first; any failure retries
// without one. The caller falls back to the raw prompt when this errors.
func (g *generator) Refine(ctx context.Context, req RefineRequest) (string, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromText(refineInstruction(req)),
			genai.NewPartFromText("User request:\n" + strings.TrimSpace(req.Prompt)),
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, contents, &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: int32Ptr(-1)},
	})
	if err != nil {
		resp, err = g.client.Models.GenerateContent(ctx, g.textModel, contents, nil)
	}
	if err != nil {
		return "", fmt.Errorf("gemini: refine prompt: %w", err)
	}

	refined := strings.TrimSpace(collectText(resp))
	if refined == "" {
		refined = strings.TrimSpace(req.Prompt)
	}
	return refined, nil
}

// Generate calls the image model with the final prompt and optional
// reference image, asking for both image and text output.
func (g *generator) Generate(ctx context.Context, prompt string, image *ImageInput) (*Result, error) {
	var parts []*genai.Part
	if image != nil {
		parts = append(parts, genai.NewPartFromBytes(image.Data, image.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	resp, err := g.client.Models.GenerateContent(ctx, g.imageModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: generate image: %w", err)
	}

	result := &Result{}
	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				result.Images = append(result.Images, GeneratedImage{
					MIMEType: mime,
					Data:     part.InlineData.Data,
				})
			}
		}
	}
	result.Text = strings.TrimSpace(text.String())

	g.logger.Debug().
		Str("model", g.imageModel).
		Int("images", len(result.Images)).
		Msg("gemini: generation complete")

	return result, nil
}

func refineInstruction(req RefineRequest) string {
	mode := "GENERATION"
	if req.HasImage {
		mode = "EDITING"
	}
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "You are a prompt engineer for photo-style image %s.\n", mode)
	sb.WriteString("Rewrite the user's request as a concise directive (1-3 sentences) optimized for photography.\n\n")
	sb.WriteString("Requirements:\n")
	sb.WriteString("- Keep the user's intent; don't add new subjects, brands, or people.\n")
	sb.WriteString("- Use concrete camera/lighting/composition terms when relevant (e.g., focal length, aperture, angle, time of day).\n")
	fmt.Fprintf(sb, "- Match this style: %s. Use this style description as context:\n---\n%s\n---\n", req.StyleLabel, req.StyleDescription)
	if req.HasImage {
		sb.WriteString("- Phrase the request as an EDIT (e.g., change background/lighting/ambience) without altering key subject identity.\n")
	}
	sb.WriteString("- Avoid disclaimers, headings, lists, or quotes. Output only the refined directive.")
	return sb.String()
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String()
}

func int32Ptr(v int32) *int32 {
	return &v
}
