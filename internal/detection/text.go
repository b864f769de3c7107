package detection

import (
	"context"
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/pcb-toolpath/internal/imaging"
)

// edgeLevel is the Sobel magnitude above which a pixel counts as an edge.
const edgeLevel = 64

// EdgeDensityLocator finds regions likely to contain silkscreen text
// without OCR. It looks for windows with medium edge density and mostly
// horizontal edge runs, which is typical of printed labels and rare for
// copper pours. It is a fallback for hosts without Tesseract.
type EdgeDensityLocator struct {
	// MinConfidence discards windows scoring below this value (0-1).
	MinConfidence float64
}

// LocateText returns merged text regions in img's pixel space, highest
// confidence first.
func (l EdgeDensityLocator) LocateText(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	edges := edgeMap(img)

	windowSizes := []struct{ w, h int }{
		{100, 30}, // Small text
		{150, 40}, // Medium text
		{200, 50}, // Large text
		{80, 25},  // Very small text
	}

	var candidates []textRegion
	for _, ws := range windowSizes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stepX, stepY := ws.w/2, ws.h/2

		for y := 0; y <= height-ws.h; y += stepY {
			for x := 0; x <= width-ws.w; x += stepX {
				edgeCount := 0
				for wy := 0; wy < ws.h; wy++ {
					for wx := 0; wx < ws.w; wx++ {
						if edges[y+wy][x+wx] {
							edgeCount++
						}
					}
				}

				density := float64(edgeCount) / float64(ws.w*ws.h)

				// Text has medium edge density: not sparse like pours,
				// not solid like hatching.
				if density < 0.05 || density > 0.4 {
					continue
				}

				confidence := horizontalScore(edges, x, y, ws.w, ws.h) * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence >= l.MinConfidence {
					candidates = append(candidates, textRegion{
						bounds:     image.Rect(x+b.Min.X, y+b.Min.Y, x+ws.w+b.Min.X, y+ws.h+b.Min.Y),
						confidence: confidence,
					})
				}
			}
		}
	}

	merged := mergeOverlapping(candidates)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].confidence > merged[j].confidence
	})

	boxes := make([]image.Rectangle, len(merged))
	for i, r := range merged {
		boxes[i] = r.bounds
	}
	return boxes, nil
}

type textRegion struct {
	bounds     image.Rectangle
	confidence float64
}

// edgeMap marks pixels whose lightness gradient exceeds edgeLevel.
func edgeMap(img image.Image) [][]bool {
	gradient := effect.Sobel(imaging.Lightness(img))
	gb := gradient.Bounds()

	edges := make([][]bool, gb.Dy())
	for y := range edges {
		edges[y] = make([]bool, gb.Dx())
		for x := range edges[y] {
			edges[y][x] = gradient.Pix[gradient.PixOffset(gb.Min.X+x, gb.Min.Y+y)] > edgeLevel
		}
	}
	return edges
}

// horizontalScore is the share of edge runs that are horizontal.
func horizontalScore(edges [][]bool, x, y, w, h int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges[row][col] {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges[row][col] {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

// mergeOverlapping folds each region into the first earlier region it
// overlaps, keeping the higher confidence.
func mergeOverlapping(regions []textRegion) []textRegion {
	merged := make([]textRegion, 0, len(regions))
	for _, r := range regions {
		folded := false
		for i := range merged {
			if r.bounds.Overlaps(merged[i].bounds) {
				merged[i].bounds = merged[i].bounds.Union(r.bounds)
				merged[i].confidence = math.Max(r.confidence, merged[i].confidence)
				folded = true
				break
			}
		}
		if !folded {
			merged = append(merged, r)
		}
	}
	return merged
}
