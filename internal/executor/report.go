package executor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/nfnt/resize"
)

// ScreenshotType tells why a screenshot was taken
type ScreenshotType string

const (
	ScreenshotSuccess ScreenshotType = "success"
	ScreenshotFailure ScreenshotType = "failure"
)

const dataURIPrefix = "data:image/png;base64,"

// Screenshot is a captured image carried inline in the report
type Screenshot struct {
	Filename string         `json:"filename"`
	Data     string         `json:"data"`
	TakenAt  time.Time      `json:"takenAt"`
	Type     ScreenshotType `json:"type"`
}

// PNG decodes the image bytes from the data URI.
func (s Screenshot) PNG() ([]byte, error) {
	if !strings.HasPrefix(s.Data, dataURIPrefix) {
		return nil, errors.New("screenshot data is not a PNG data URI")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(s.Data, dataURIPrefix))
}

// Image decodes the screenshot into an image.
func (s Screenshot) Image() (image.Image, error) {
	raw, err := s.PNG()
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(raw))
}

// Report is the outcome of one run. It is built once and not modified
// after Run returns.
type Report struct {
	RunID         string       `json:"runId"`
	Success       bool         `json:"success"`
	Error         string       `json:"error,omitempty"`
	ExecutionTime int64        `json:"executionTime"` // milliseconds
	Screenshots   []Screenshot `json:"screenshots"`
}

// Failure returns the failure screenshot, if one was captured.
func (r *Report) Failure() (Screenshot, bool) {
	for _, s := range r.Screenshots {
		if s.Type == ScreenshotFailure {
			return s, true
		}
	}
	return Screenshot{}, false
}

// encodeScreenshot turns raw PNG bytes into a data URI, downscaling to
// maxWidth first when it is positive and the image is wider.
func encodeScreenshot(raw []byte, maxWidth int) (string, error) {
	if maxWidth > 0 {
		scaled, err := downscale(raw, maxWidth)
		if err != nil {
			return "", err
		}
		raw = scaled
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(raw), nil
}

func downscale(raw []byte, maxWidth int) ([]byte, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	if cfg.Width <= maxWidth {
		return raw, nil
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}

	// Height 0 keeps the aspect ratio
	scaled := resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}
