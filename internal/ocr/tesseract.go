package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sort"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is the Tesseract language used when none is set.
const DefaultLanguage = "eng"

// TextRegion is a recognized word with its location and OCR confidence.
type TextRegion struct {
	// Text is the recognized word.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the word's bounding box in image pixels.
	Bounds image.Rectangle `json:"bounds"`
}

// Tesseract locates silkscreen text on board artwork with the Tesseract
// engine. The zero value uses English and keeps every recognized word.
type Tesseract struct {
	// Language is a Tesseract language code such as "eng" or "deu".
	Language string

	// MinConfidence discards words scoring below this value (0-1).
	MinConfidence float64

	// TessdataPrefix overrides where Tesseract looks for language data.
	TessdataPrefix string
}

// Words runs OCR over img and returns every non-empty word, in the order
// Tesseract reports them.
//
// Tesseract cannot be interrupted once started, so ctx is only checked
// before and after recognition.
func (t Tesseract) Words(ctx context.Context, img image.Image) ([]TextRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	lang := t.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	if err := client.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract failed to locate words: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds:     box.Box,
		})
	}
	return regions, nil
}

// LocateText returns the bounding boxes of words recognized with at least
// MinConfidence, highest confidence first.
func (t Tesseract) LocateText(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	words, err := t.Words(ctx, img)
	if err != nil {
		return nil, err
	}
	return Confident(words, t.MinConfidence), nil
}

// Confident keeps the boxes of words scoring at least min, ordered by
// descending confidence. Equal scores keep their input order.
func Confident(words []TextRegion, min float64) []image.Rectangle {
	kept := make([]TextRegion, 0, len(words))
	for _, w := range words {
		if w.Confidence >= min && !w.Bounds.Empty() {
			kept = append(kept, w)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})

	boxes := make([]image.Rectangle, len(kept))
	for i, w := range kept {
		boxes[i] = w.Bounds
	}
	return boxes
}
