package detection

import (
	"github.com/ironsheep/pcb-toolpath/internal/geometry"
	"github.com/ironsheep/pcb-toolpath/internal/imaging"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// Contour is a closed border traced around a connected foreground region
// (outer border) or around a background hole inside one (hole border).
type Contour struct {
	// Points are the border pixels in tracing order, in pixel coordinates
	// of the mask. A contour always has at least one point.
	Points geometry.Polygon `json:"points"`

	// Hole is true for a border between a foreground region and a hole
	// it encloses.
	Hole bool `json:"hole"`

	// Parent is the index of the enclosing contour in the same slice, or
	// -1 for top-level borders.
	Parent int `json:"parent"`
}

// neighbour offsets indexed by chain code, counter-clockwise starting east
// (Y grows downward, so "north" is -1).
var chainDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
var chainDY = [8]int{0, -1, -1, -1, 0, 1, 1, 1}

// borderInfo tracks each traced border by its sequential border number.
type borderInfo struct {
	hole   bool
	parent int // border number of the parent; 0 for the frame
	index  int // position in the output slice, -1 if not emitted
}

// FindContours traces every border in the mask with the Suzuki–Abe
// border-following algorithm.
//
// Parameters:
//   - m: Binary mask to trace. It is not modified.
//   - mode: RetrieveExternal returns only outer borders of top-level
//     regions; RetrieveTree returns every outer and hole border with
//     parent links.
//
// Returns:
//   - []Contour: Borders in discovery order (top-to-bottom, left-to-right
//     by starting pixel). The same mask always yields the same slice.
//
// # Algorithm
//
// The mask is copied into a label grid padded by one background cell on
// every side; the padding acts as the frame, border number 1. A raster scan
// starts a new border at each foreground cell whose left neighbour is
// background (outer border) or whose right neighbour is background (hole
// border). Each border is followed by circling the current pixel
// counter-clockwise from the previous one, and its pixels are relabelled
// with the border number, negated on cells whose east neighbour is
// background. The last border number seen on the scan line decides the
// parent of the next border.
func FindContours(m *imaging.Mask, mode profile.Retrieval) []Contour {
	w, h := m.Width+2, m.Height+2
	grid := make([]int32, w*h)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Pix[y*m.Width+x] != 0 {
				grid[(y+1)*w+x+1] = 1
			}
		}
	}

	borders := []borderInfo{{}, {hole: true, parent: 0, index: -1}}
	contours := make([]Contour, 0)
	nbd := int32(1)

	for y := 1; y < h-1; y++ {
		lnbd := int32(1)
		for x := 1; x < w-1; x++ {
			v := grid[y*w+x]
			if v == 0 {
				continue
			}

			outer := v == 1 && grid[y*w+x-1] == 0
			hole := !outer && v >= 1 && grid[y*w+x+1] == 0

			if outer || hole {
				if hole && v > 1 {
					lnbd = v
				}
				nbd++

				last := borders[lnbd]
				parent := lnbd
				if outer != last.hole {
					// An outer border inside another outer border's region,
					// or a hole inside a hole's region, shares its parent.
					parent = int32(last.parent)
				}

				startDir := 4
				if hole {
					startDir = 0
				}
				pts := traceBorder(grid, w, x, y, startDir, nbd)

				info := borderInfo{hole: hole, parent: int(parent), index: -1}
				if keepBorder(mode, hole, parent) {
					info.index = len(contours)
					contours = append(contours, Contour{
						Points: pts,
						Hole:   hole,
						Parent: parentIndex(mode, borders, parent),
					})
				}
				borders = append(borders, info)
			}

			if v := grid[y*w+x]; v != 1 {
				lnbd = abs32(v)
			}
		}
	}
	return contours
}

// traceBorder follows one border starting at (x0, y0) and labels its
// pixels with nbd. startDir points at the background neighbour that
// triggered the border. Returned points are in unpadded coordinates.
func traceBorder(grid []int32, w, x0, y0, startDir int, nbd int32) geometry.Polygon {
	at := func(x, y int) int32 { return grid[y*w+x] }

	// Clockwise search for the first foreground neighbour.
	s := startDir
	x1, y1 := 0, 0
	found := false
	for {
		s = (s - 1) & 7
		x1, y1 = x0+chainDX[s], y0+chainDY[s]
		if at(x1, y1) != 0 {
			found = true
			break
		}
		if s == startDir {
			break
		}
	}
	if !found {
		grid[y0*w+x0] = -nbd
		return geometry.Polygon{{X: float64(x0 - 1), Y: float64(y0 - 1)}}
	}

	var pts geometry.Polygon
	x3, y3 := x0, y0
	for {
		// Counter-clockwise search around (x3, y3) starting after the
		// direction of the previous border pixel.
		sEnd := s
		var x4, y4 int
		for {
			s++
			x4, y4 = x3+chainDX[s&7], y3+chainDY[s&7]
			if at(x4, y4) != 0 {
				break
			}
		}
		s &= 7

		// The east neighbour was examined and found empty.
		if s >= 1 && s <= sEnd {
			grid[y3*w+x3] = -nbd
		} else if at(x3, y3) == 1 {
			grid[y3*w+x3] = nbd
		}
		pts = append(pts, geometry.Point{X: float64(x3 - 1), Y: float64(y3 - 1)})

		if x4 == x0 && y4 == y0 && x3 == x1 && y3 == y1 {
			break
		}
		x3, y3 = x4, y4
		s = (s + 4) & 7
	}
	return pts
}

func keepBorder(mode profile.Retrieval, hole bool, parent int32) bool {
	if mode == profile.RetrieveTree {
		return true
	}
	return !hole && parent == 1
}

func parentIndex(mode profile.Retrieval, borders []borderInfo, parent int32) int {
	if mode != profile.RetrieveTree || parent <= 1 {
		return -1
	}
	return borders[parent].index
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
