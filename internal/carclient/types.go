package carclient

// ImageAttachment is an optional reference image included with a request.
type ImageAttachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// GenerationRequest captures the inputs for one generation attempt. It is
// built fresh per submission and never persisted.
type GenerationRequest struct {
	Prompt string
	Style  string
	APIKey string
	Image  *ImageAttachment
}

// Image is a single generated image as returned by the backend.
type Image struct {
	DataURL  string `json:"data_url"`
	MIMEType string `json:"mime_type"`
}

// GenerationResponse is the backend's reply to a generation request.
// Missing fields are defaulted rather than treated as errors.
type GenerationResponse struct {
	Text   string  `json:"text"`
	Images []Image `json:"images"`
}
