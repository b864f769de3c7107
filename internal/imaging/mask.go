package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

// Mask is a binary raster with one byte per cell: 1 for foreground, 0 for
// background. Row-major, origin at the top-left.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask returns an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// At reports whether (x, y) is foreground. Cells outside the mask are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] != 0
}

// Set marks (x, y) as foreground or background.
func (m *Mask) Set(x, y int, fg bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	var v uint8
	if fg {
		v = 1
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of foreground cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	return &Mask{Width: m.Width, Height: m.Height, Pix: append([]uint8(nil), m.Pix...)}
}

// Gray renders the mask with foreground white (255) and background black (0).
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v != 0 {
			g.Pix[i] = 255
		}
	}
	return g
}

// MaskFromImage thresholds img at mid-grey: cells whose red channel is at
// least 128 become foreground. The bild filters used on masks all return
// grey-valued RGBA, so one channel suffices.
func MaskFromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if r>>8 >= 128 {
				m.Pix[y*m.Width+x] = 1
			}
		}
	}
	return m
}

// MaskPreview is a binarized image encoded for transport.
type MaskPreview struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	Foreground int `json:"foreground_pixels"`

	// ImageBase64 is the mask as a base64 PNG, foreground in white.
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Preview encodes the mask as a PNG preview.
func (m *Mask) Preview() (*MaskPreview, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m.Gray()); err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}
	return &MaskPreview{
		Width:       m.Width,
		Height:      m.Height,
		Foreground:  m.Count(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
