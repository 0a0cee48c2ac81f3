package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer is the full-text OCR contract used by the rotation vote.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// TesseractRecognizer implements Recognizer using the gosseract client.
// A fresh client is created per call; gosseract clients are not safe for
// concurrent use and setup cost is negligible next to recognition itself.
type TesseractRecognizer struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractRecognizer constructs a Tesseract-backed recognizer. languages
// is a comma-separated list of trained data names ("eng,deu"); empty uses the
// engine default.
func NewTesseractRecognizer(languages string) *TesseractRecognizer {
	var langs []string
	for _, l := range strings.Split(languages, ",") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &TesseractRecognizer{languages: langs, clientFactory: gosseract.NewClient}
}

// Recognize runs full-text OCR on img and returns the recognized text.
// The underlying engine call cannot be interrupted, so on context expiry the
// call returns ctx.Err() immediately and the engine goroutine is abandoned to
// finish on its own.
func (r *TesseractRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode image for ocr: %w", err)
	}

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		c := r.clientFactory()
		defer c.Close()
		if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
			ch <- result{err: fmt.Errorf("set image: %w", err)}
			return
		}
		if len(r.languages) > 0 {
			if err := c.SetLanguage(r.languages...); err != nil {
				ch <- result{err: fmt.Errorf("set languages: %w", err)}
				return
			}
		}
		text, err := c.Text()
		if err != nil {
			ch <- result{err: fmt.Errorf("recognize text: %w", err)}
			return
		}
		ch <- result{text: strings.TrimSpace(text)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.text, res.err
	}
}
