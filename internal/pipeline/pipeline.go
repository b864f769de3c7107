package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/ironsheep/pcb-toolpath/internal/detection"
	"github.com/ironsheep/pcb-toolpath/internal/gcode"
	"github.com/ironsheep/pcb-toolpath/internal/geometry"
	"github.com/ironsheep/pcb-toolpath/internal/imaging"
	"github.com/ironsheep/pcb-toolpath/internal/mapping"
	"github.com/ironsheep/pcb-toolpath/internal/ocr"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// TextLocator finds text on the working image so its strokes can be kept
// out of the milling toolpath. Boxes are in the image's pixel space.
type TextLocator interface {
	LocateText(ctx context.Context, img image.Image) ([]image.Rectangle, error)
}

// Config configures a Pipeline. Zero fields get defaults.
type Config struct {
	// Logger receives stage diagnostics. Defaults to discarding them.
	Logger *slog.Logger

	// Normalizer decodes and binarizes input. Defaults to
	// imaging.NewNormalizer, which renders PDFs with poppler.
	Normalizer *imaging.Normalizer

	// TextLocator is used when a profile enables text exclusion. Defaults
	// to Tesseract with the profile's text confidence.
	TextLocator TextLocator
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Normalizer == nil {
		c.Normalizer = imaging.NewNormalizer()
	}
}

// Pipeline turns artwork into toolpaths. It holds no per-run state and is
// safe for concurrent use.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{cfg: cfg, logger: cfg.Logger}
}

// Run converts input into a toolpath for op using the parameters in p.
//
// Parameters:
//   - ctx: Checked between stages; a cancelled run returns ctx.Err().
//   - input: Raster image or PDF bytes. Ignored for cutting, whose outline
//     comes from the board dimensions alone.
//   - op: The machining operation.
//   - p: A profile for op. It is validated before any work is done.
//
// Returns:
//   - *gcode.Toolpath: The validated program.
//   - error: The first stage failure. See errors.go for the typed errors.
//
// # Stages
//
//  1. Decode and cap resolution (imaging)
//  2. Locate text, when the profile excludes it
//  3. Binarize (imaging)
//  4. Extract contours, drop those inside text boxes (detection)
//  5. Classify, then merge duplicate drill centres (detection)
//  6. Map pixels to board coordinates (mapping)
//  7. Emit and validate the program (gcode)
func (pl *Pipeline) Run(ctx context.Context, input []byte, op profile.Operation, p *profile.Profile) (*gcode.Toolpath, error) {
	if p == nil {
		return nil, errors.New("pipeline: nil profile")
	}
	if err := p.Validate(op); err != nil {
		return nil, err
	}
	emitter, err := gcode.EmitterFor(op)
	if err != nil {
		return nil, err
	}

	var shapes []geometry.Shape
	if op != profile.Cutting {
		shapes, err = pl.shapes(ctx, input, op, p)
		if err != nil {
			return nil, err
		}
	}

	tp, err := emitter.Emit(shapes, p.Machine)
	if err != nil {
		return nil, err
	}
	if err := gcode.Validate(tp.Commands(), p.Machine); err != nil {
		return nil, fmt.Errorf("generated %s toolpath failed validation: %w", op, err)
	}

	pl.logger.Debug("toolpath emitted", "operation", op, "commands", tp.Len())
	return tp, nil
}

// shapes runs the raster stages and returns board-space shapes.
func (pl *Pipeline) shapes(ctx context.Context, input []byte, op profile.Operation, p *profile.Profile) ([]geometry.Shape, error) {
	work, err := pl.cfg.Normalizer.Working(ctx, input, p.Image)
	if err != nil {
		return nil, err
	}
	b := work.Bounds()
	pl.logger.Debug("decoded input", "operation", op, "width", b.Dx(), "height", b.Dy())

	var textBoxes []image.Rectangle
	if p.Shapes.ExcludeText {
		textBoxes, err = pl.locator(p).LocateText(ctx, work)
		if err != nil {
			return nil, fmt.Errorf("text location failed: %w", err)
		}
		pl.logger.Debug("located text", "operation", op, "boxes", len(textBoxes))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mask := imaging.Binarize(work, p.Image)
	pl.logger.Debug("binarized", "operation", op, "foreground", mask.Count())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contours := detection.Extract(mask, p.Shapes)
	if len(textBoxes) > 0 {
		contours = detection.ExcludeInside(contours, textBoxes)
	}
	classified := detection.Classify(contours, op, p.Shapes)
	if op == profile.Drilling && p.Shapes.MergeDistance > 0 {
		classified = detection.MergePoints(classified, p.Shapes.MergeDistance)
	}
	pl.logger.Debug("classified shapes", "operation", op, "contours", len(contours), "shapes", len(classified))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mapper, err := mapping.New(mask.Width, mask.Height, p.Machine, p.Mapping)
	if err != nil {
		return nil, err
	}
	return mapper.MapShapes(classified)
}

func (pl *Pipeline) locator(p *profile.Profile) TextLocator {
	if pl.cfg.TextLocator != nil {
		return pl.cfg.TextLocator
	}
	return ocr.Tesseract{MinConfidence: p.Shapes.TextConfidence}
}

// RunContext is Run with a coarse deadline: when ctx ends before the run
// completes, ctx.Err() is returned at once and the result is discarded.
func (pl *Pipeline) RunContext(ctx context.Context, input []byte, op profile.Operation, p *profile.Profile) (*gcode.Toolpath, error) {
	type outcome struct {
		tp  *gcode.Toolpath
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		tp, err := pl.Run(ctx, input, op, p)
		done <- outcome{tp, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		return o.tp, o.err
	}
}

var defaultPipeline = New(Config{})

// Run converts input into a toolpath with the default pipeline.
func Run(input []byte, op profile.Operation, p *profile.Profile) (*gcode.Toolpath, error) {
	return defaultPipeline.Run(context.Background(), input, op, p)
}

// RunContext is Run bounded by ctx, using the default pipeline.
func RunContext(ctx context.Context, input []byte, op profile.Operation, p *profile.Profile) (*gcode.Toolpath, error) {
	return defaultPipeline.RunContext(ctx, input, op, p)
}
