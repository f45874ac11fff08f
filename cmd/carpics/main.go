package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"carpics/internal/carclient"
	"carpics/internal/prefs"
	"carpics/internal/storage"
	"carpics/internal/styles"
)

func main() {
	_ = godotenv.Load()

	var (
		serverFlag string
		promptFlag string
		styleFlag  string
		imageFlag  string
		keyFlag    string
		outFlag    string
		clearKey   bool
		listStyles bool
	)
	flag.StringVar(&serverFlag, "server", "", "backend base URL (fallbacks to CARPICS_SERVER, then http://localhost:8080)")
	flag.StringVar(&promptFlag, "prompt", "", "description of the image to generate")
	flag.StringVar(&styleFlag, "style", "", "style key (see -styles; fallbacks to the last used style)")
	flag.StringVar(&imageFlag, "image", "", "path to a reference image to edit")
	flag.StringVar(&keyFlag, "api-key", "", "Gemini API key (fallbacks to the stored key, then GOOGLE_API_KEY)")
	flag.StringVar(&outFlag, "out", "downloads", "directory for downloaded images")
	flag.BoolVar(&clearKey, "clear-key", false, "forget the stored API key and exit")
	flag.BoolVar(&listStyles, "styles", false, "list the available style keys and exit")
	flag.Parse()

	if listStyles {
		catalog, err := styles.Load("")
		if err != nil {
			fatal("load styles: %v", err)
		}
		for _, st := range catalog.List() {
			fmt.Printf("%-28s %s\n", st.Key, st.Label)
		}
		return
	}

	store, err := prefs.Open(prefsPath())
	if err != nil {
		fatal("open preferences: %v", err)
	}

	if clearKey {
		if err := store.SetAPIKey(""); err != nil {
			fatal("clear api key: %v", err)
		}
		fmt.Println("API key cleared")
		return
	}

	prompt := strings.TrimSpace(promptFlag)
	if prompt == "" {
		fatal("a prompt is required via -prompt")
	}

	styleKey := strings.TrimSpace(styleFlag)
	if styleKey == "" {
		styleKey = store.Style()
	}
	if styleKey == "" {
		styleKey = "none"
	}
	if !styles.Valid(styleKey) {
		fatal("unknown style %q (see -styles)", styleKey)
	}

	apiKey := strings.TrimSpace(keyFlag)
	if apiKey == "" {
		apiKey = store.APIKey()
	}
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}

	req := carclient.GenerationRequest{
		Prompt: prompt,
		Style:  styleKey,
		APIKey: apiKey,
	}
	if imageFlag != "" {
		attachment, err := readImage(imageFlag)
		if err != nil {
			fatal("%v", err)
		}
		req.Image = attachment
	}

	server := strings.TrimSpace(serverFlag)
	if server == "" {
		server = strings.TrimSpace(os.Getenv("CARPICS_SERVER"))
	}
	client := carclient.NewClient(carclient.Options{BaseURL: server})

	ctx := context.Background()
	resp, err := client.Generate(ctx, req)
	if err != nil {
		fatal("%v", err)
	}

	// Generation worked; remember the inputs for next time.
	if err := store.SetStyle(styleKey); err != nil {
		fmt.Fprintf(os.Stderr, "warning: persist style: %v\n", err)
	}
	if err := store.SetAPIKey(apiKey); err != nil {
		fmt.Fprintf(os.Stderr, "warning: persist api key: %v\n", err)
	}

	model := carclient.NewDisplayModel(resp)
	if model.Text != "" {
		fmt.Println(model.Text)
	}
	if model.MainImage == nil {
		fmt.Println("no image returned")
		return
	}

	data, err := client.Download(ctx, *model.MainImage)
	if err != nil {
		fatal("download image: %v", err)
	}
	fileStore, err := storage.NewFileStore(outFlag)
	if err != nil {
		fatal("%v", err)
	}
	name := carclient.DownloadFilename(styleKey, time.Now(), model.MainImage.MIMEType)
	path, err := fileStore.Write(name, data)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("saved %s\n", path)
}

// readImage loads a reference image from disk, sniffing the MIME type from
// the extension first and the content as a fallback.
func readImage(path string) (*carclient.ImageAttachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mediaType
	}
	return &carclient.ImageAttachment{
		Filename: filepath.Base(path),
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

func prefsPath() string {
	if v := strings.TrimSpace(os.Getenv("CARPICS_PREFS")); v != "" {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "carpics", "prefs.json")
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
