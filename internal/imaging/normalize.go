package imaging

import (
	"context"
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// Normalizer turns input bytes into a binary mask of candidate copper, pad
// or board regions.
type Normalizer struct {
	Decoder *Decoder
}

// NewNormalizer returns a Normalizer that renders PDFs with poppler.
func NewNormalizer() *Normalizer {
	return &Normalizer{Decoder: NewDecoder(DefaultPDFDPI)}
}

// Normalize decodes data and binarizes it with the given settings. The
// returned mask has the working resolution, which may be smaller than the
// input when settings.MaxDimension caps it.
func (n *Normalizer) Normalize(ctx context.Context, data []byte, s profile.ImageSettings) (*Mask, error) {
	img, err := n.Working(ctx, data, s)
	if err != nil {
		return nil, err
	}
	return Binarize(img, s), nil
}

// Working decodes data and applies the resolution cap, returning the image
// whose pixel grid the mask and every later stage share.
func (n *Normalizer) Working(ctx context.Context, data []byte, s profile.ImageSettings) (image.Image, error) {
	var dec Decoder
	if n.Decoder != nil {
		dec = *n.Decoder
	}
	if s.PDFDPI > 0 {
		dec.DPI = s.PDFDPI
	}
	img, err := dec.Decode(ctx, data)
	if err != nil {
		return nil, err
	}
	return Fit(img, s.MaxDimension), nil
}

// Binarize converts an image to a foreground mask.
//
// Parameters:
//   - img: Source image, any color model. Fully transparent pixels are
//     treated as white background.
//   - s: Image settings. BlurKernel, BlockSize and MorphKernel are expected
//     to be odd and already validated.
//
// Returns:
//   - *Mask: Foreground cells marked 1, at the working resolution.
//
// # Algorithm
//
//  1. Resolution cap: images larger than MaxDimension on either side are
//     fit into a MaxDimension square (Lanczos), preserving aspect ratio.
//  2. Grayscale: CIE L* lightness, scaled to 0-255.
//  3. Smoothing: Gaussian blur with radius (BlurKernel-1)/2.
//  4. Adaptive threshold: each pixel is compared with the weighted mean of
//     its BlockSize neighbourhood offset by ThresholdC, on the side chosen
//     by Polarity.
//  5. Morphology: open or close with a MorphKernel structuring element,
//     MorphIterations times.
func Binarize(img image.Image, s profile.ImageSettings) *Mask {
	img = Fit(img, s.MaxDimension)
	gray := Lightness(img)

	var smoothed image.Image = gray
	if s.BlurKernel > 1 {
		smoothed = blur.Gaussian(gray, float64(s.BlurKernel-1)/2)
	}

	mask := AdaptiveThreshold(smoothed, s.ThresholdMethod, s.BlockSize, s.ThresholdC, s.Polarity)
	return Morph(mask, s.Morphology, s.MorphKernel, s.MorphIterations)
}

// Fit scales img down so neither side exceeds max. Images already within
// the limit, or a non-positive max, are returned unchanged.
func Fit(img image.Image, max int) image.Image {
	b := img.Bounds()
	if max <= 0 || (b.Dx() <= max && b.Dy() <= max) {
		return img
	}
	return imaging.Fit(img, max, max, imaging.Lanczos)
}

// Lightness returns the CIE L* channel of img scaled to 0-255.
func Lightness(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c, ok := colorful.MakeColor(img.At(b.Min.X+x, b.Min.Y+y))
			if !ok {
				gray.Pix[y*gray.Stride+x] = 255
				continue
			}
			l, _, _ := c.Lab()
			gray.Pix[y*gray.Stride+x] = uint8(math.Round(clampUnit(l) * 255))
		}
	}
	return gray
}

// AdaptiveThreshold marks cells that differ from their local mean by more
// than c grey levels. With DarkOnLight polarity a cell is foreground when
// it is darker than mean-c; with LightOnDark when it is lighter than mean+c.
// The mean is Gaussian-weighted or uniform over a block×block window.
func AdaptiveThreshold(img image.Image, method profile.ThresholdMethod, block int, c float64, polarity profile.Polarity) *Mask {
	radius := float64(block / 2)

	var local image.Image
	if method == profile.ThresholdMean {
		local = blur.Box(img, radius)
	} else {
		local = blur.Gaussian(img, radius)
	}

	b := img.Bounds()
	lb := local.Bounds()
	mask := NewMask(b.Dx(), b.Dy())
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			v := level(img, b.Min.X+x, b.Min.Y+y)
			mean := level(local, lb.Min.X+x, lb.Min.Y+y)

			var fg bool
			if polarity == profile.LightOnDark {
				fg = v > mean+c
			} else {
				fg = v < mean-c
			}
			if fg {
				mask.Pix[y*mask.Width+x] = 1
			}
		}
	}
	return mask
}

// Morph applies an opening or closing to the mask. Opening removes specks
// smaller than the kernel; closing bridges gaps narrower than it.
func Morph(m *Mask, op profile.Morphology, kernel, iterations int) *Mask {
	if op == profile.MorphNone || op == "" || kernel < 2 || iterations < 1 {
		return m
	}

	radius := float64(kernel / 2)
	var img image.Image = m.Gray()

	first, second := effect.Erode, effect.Dilate
	if op == profile.MorphClose {
		first, second = effect.Dilate, effect.Erode
	}
	for i := 0; i < iterations; i++ {
		img = first(img, radius)
	}
	for i := 0; i < iterations; i++ {
		img = second(img, radius)
	}
	return MaskFromImage(img)
}

// level returns the 8-bit red channel at (x, y). Inputs here are grey so
// any channel would do.
func level(img image.Image, x, y int) float64 {
	r, _, _, _ := img.At(x, y).RGBA()
	return float64(r >> 8)
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
