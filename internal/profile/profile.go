package profile

import (
	"fmt"
	"strings"
)

// Operation identifies one of the three machining jobs the pipeline produces.
type Operation string

const (
	Cutting  Operation = "cutting"
	Milling  Operation = "milling"
	Drilling Operation = "drilling"
)

// Operations lists every supported operation in a stable order.
var Operations = []Operation{Cutting, Milling, Drilling}

// ParseOperation converts a user-supplied name into an Operation.
func ParseOperation(name string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(name))); op {
	case Cutting, Milling, Drilling:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation: %q (want cutting, milling or drilling)", name)
	}
}

// Units selects the G-code unit system. Board dimensions, heights, depths
// and feed rates in a MachineProfile are all expressed in these units.
type Units string

const (
	Millimeters Units = "mm"
	Inches      Units = "inch"
)

// MachineProfile is the immutable motion configuration for one operation.
//
// Depth is a negative offset below the work surface for every operation;
// it is never negated by the emitter.
type MachineProfile struct {
	Units        Units   `yaml:"units" json:"units"`
	BoardWidth   float64 `yaml:"board_width" json:"board_width"`
	BoardHeight  float64 `yaml:"board_height" json:"board_height"`
	SafeHeight   float64 `yaml:"safe_height" json:"safe_height"`
	Depth        float64 `yaml:"depth" json:"depth"`
	FeedRate     float64 `yaml:"feed_rate" json:"feed_rate"`
	SpindleSpeed int     `yaml:"spindle_speed" json:"spindle_speed"`

	// Tool, when non-zero, is selected once in the program header.
	Tool int `yaml:"tool,omitempty" json:"tool,omitempty"`
}

// Polarity says which side of the local threshold counts as foreground.
type Polarity string

const (
	// DarkOnLight marks pixels darker than their neighbourhood as foreground.
	DarkOnLight Polarity = "dark"
	// LightOnDark marks pixels lighter than their neighbourhood as foreground.
	LightOnDark Polarity = "light"
)

// ThresholdMethod selects how the local neighbourhood mean is weighted.
type ThresholdMethod string

const (
	ThresholdGaussian ThresholdMethod = "gaussian"
	ThresholdMean     ThresholdMethod = "mean"
)

// Morphology is the cleanup pass run on the binary mask.
type Morphology string

const (
	MorphOpen  Morphology = "open"
	MorphClose Morphology = "close"
	MorphNone  Morphology = "none"
)

// Retrieval selects which borders the shape extractor returns.
type Retrieval string

const (
	// RetrieveExternal keeps only outermost borders.
	RetrieveExternal Retrieval = "external"
	// RetrieveTree keeps every outer and hole border.
	RetrieveTree Retrieval = "tree"
)

// ImageSettings controls decoding and binarization.
type ImageSettings struct {
	// MaxDimension caps the working resolution; 0 disables resizing.
	MaxDimension int `yaml:"max_dimension" json:"max_dimension"`
	// PDFDPI is the rasterization resolution for PDF input.
	PDFDPI int `yaml:"pdf_dpi" json:"pdf_dpi"`

	Polarity        Polarity        `yaml:"polarity" json:"polarity"`
	BlurKernel      int             `yaml:"blur_kernel" json:"blur_kernel"`
	BlockSize       int             `yaml:"block_size" json:"block_size"`
	ThresholdC      float64         `yaml:"threshold_c" json:"threshold_c"`
	ThresholdMethod ThresholdMethod `yaml:"threshold_method" json:"threshold_method"`

	Morphology      Morphology `yaml:"morphology" json:"morphology"`
	MorphKernel     int        `yaml:"morph_kernel" json:"morph_kernel"`
	MorphIterations int        `yaml:"morph_iterations" json:"morph_iterations"`
}

// ShapeSettings controls contour extraction and filtering.
type ShapeSettings struct {
	Retrieval     Retrieval `yaml:"retrieval" json:"retrieval"`
	EdgePrepass   bool      `yaml:"edge_prepass" json:"edge_prepass"`
	SimplifyRatio float64   `yaml:"simplify_ratio" json:"simplify_ratio"`

	// MinArea is in square pixels of the working image. For drilling this
	// is the minimum hole area.
	MinArea float64 `yaml:"min_area" json:"min_area"`

	// Circularity is required for drilling and ignored otherwise.
	Circularity *Range `yaml:"circularity,omitempty" json:"circularity,omitempty"`

	// MergeDistance collapses drill centres closer than this many pixels.
	MergeDistance float64 `yaml:"merge_distance" json:"merge_distance"`

	ExcludeText    bool    `yaml:"exclude_text" json:"exclude_text"`
	TextConfidence float64 `yaml:"text_confidence" json:"text_confidence"`
}

// MappingSettings are explicit, opt-in changes to the pixel to board transform.
type MappingSettings struct {
	FlipY   bool    `yaml:"flip_y" json:"flip_y"`
	MirrorX bool    `yaml:"mirror_x" json:"mirror_x"`
	OffsetX float64 `yaml:"offset_x" json:"offset_x"`
	OffsetY float64 `yaml:"offset_y" json:"offset_y"`
}

// Profile bundles the machine parameters with the processing policy for
// one operation. A Profile is read-only once validated and may be shared
// between concurrent pipeline runs.
type Profile struct {
	Machine MachineProfile  `yaml:"machine" json:"machine"`
	Image   ImageSettings   `yaml:"image" json:"image"`
	Shapes  ShapeSettings   `yaml:"shapes" json:"shapes"`
	Mapping MappingSettings `yaml:"mapping" json:"mapping"`
}
