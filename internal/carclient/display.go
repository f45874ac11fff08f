package carclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DisplayModel is what the interface renders after a submission: the
// returned text and the main image. Only the first image in the response
// sequence is surfaced; the rest are deliberately dropped.
type DisplayModel struct {
	Text      string
	MainImage *Image
}

// NewDisplayModel maps a response into its display form.
func NewDisplayModel(resp *GenerationResponse) DisplayModel {
	model := DisplayModel{}
	if resp == nil {
		return model
	}
	model.Text = resp.Text
	if len(resp.Images) > 0 {
		img := resp.Images[0]
		model.MainImage = &img
	}
	return model
}

// Download re-fetches an image's data URL as raw bytes. Inline data: URLs
// are decoded locally; http(s) URLs are fetched with a single GET.
func (c *Client) Download(ctx context.Context, img Image) ([]byte, error) {
	target := strings.TrimSpace(img.DataURL)
	if target == "" {
		return nil, errors.New("carclient: image has no data url")
	}
	if strings.HasPrefix(target, "data:") {
		return decodeDataURL(target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("carclient: create download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &RemoteError{Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("carclient: read download: %w", err)
	}
	return data, nil
}

func decodeDataURL(dataURL string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ",")
	if !ok {
		return nil, errors.New("carclient: malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("carclient: decode data url: %w", err)
		}
		return data, nil
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("carclient: decode data url: %w", err)
	}
	return []byte(decoded), nil
}

// DownloadFilename derives the local filename for a downloaded image from
// the style key, the download time, and the image's MIME type.
func DownloadFilename(styleKey string, now time.Time, mimeType string) string {
	key := strings.TrimSpace(styleKey)
	if key == "" {
		key = "none"
	}
	return key + "-" + downloadStamp(now) + "." + ExtensionForMIME(mimeType)
}

// downloadStamp strips '-', ':', '.', and the 'T' separator from an
// ISO-8601 timestamp and keeps the first 14 characters (yyyymmddhhmmss).
func downloadStamp(now time.Time) string {
	iso := now.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	stamp := strings.NewReplacer("-", "", ":", "", ".", "", "T", "").Replace(iso)
	if len(stamp) > 14 {
		stamp = stamp[:14]
	}
	return stamp
}

// ExtensionForMIME derives a file extension from a MIME type: the subtype
// with a trailing "+xml" suffix stripped, or "png" when the type is absent.
func ExtensionForMIME(mimeType string) string {
	mt := strings.TrimSpace(mimeType)
	if mt == "" {
		return "png"
	}
	_, subtype, ok := strings.Cut(mt, "/")
	if !ok || subtype == "" {
		return "png"
	}
	return strings.TrimSuffix(subtype, "+xml")
}
