package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/pcb-toolpath/internal/gcode"
	"github.com/ironsheep/pcb-toolpath/internal/profile"
)

// createRectImage draws a filled rectangle on a uniform background.
func createRectImage(width, height int, bg color.Color, rect image.Rectangle, fg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(img, rect, image.NewUniform(fg), image.Point{}, draw.Src)
	return img
}

// createDiskImage draws a filled disk on a uniform background.
func createDiskImage(width, height, cx, cy, radius int, bg, fg color.Color) *image.RGBA {
	img := createRectImage(width, height, bg, image.Rectangle{}, bg)
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.Set(x, y, fg)
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

func profileFor(t *testing.T, op profile.Operation) *profile.Profile {
	t.Helper()
	p, err := profile.Default().For(op)
	if err != nil {
		t.Fatalf("For(%s) failed: %v", op, err)
	}
	return p
}

type fakeLocator struct {
	boxes   []image.Rectangle
	err     error
	release chan struct{}
	calls   int
}

func (f *fakeLocator) LocateText(ctx context.Context, _ image.Image) ([]image.Rectangle, error) {
	f.calls++
	if f.release != nil {
		<-f.release
	}
	return f.boxes, f.err
}

func TestRun_Cutting(t *testing.T) {
	// Cutting never decodes its input.
	tp, err := Run([]byte("not an image"), profile.Cutting, profileFor(t, profile.Cutting))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := "G21\nG90\nG0 Z5.000\nM3 S1000\n" +
		"G0 X0.000 Y0.000 Z5.000\n" +
		"G1 X0.000 Y0.000 Z-0.500 F100\n" +
		"G1 X0.000 Y100.000 Z-0.500 F100\n" +
		"G1 X100.000 Y100.000 Z-0.500 F100\n" +
		"G1 X100.000 Y0.000 Z-0.500 F100\n" +
		"G1 X0.000 Y0.000 Z-0.500 F100\n" +
		"G0 X0.000 Y0.000 Z5.000\n" +
		"M5\nM30\n"
	if diff := cmp.Diff(want, tp.String()); diff != "" {
		t.Errorf("cutting program mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_DrillingBlank(t *testing.T) {
	img := createRectImage(100, 100, color.Black, image.Rectangle{}, color.Black)

	_, err := Run(encodePNG(t, img), profile.Drilling, profileFor(t, profile.Drilling))
	var empty *EmptyGeometryError
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptyGeometryError, got %v", err)
	}
	if empty.Operation != profile.Drilling {
		t.Errorf("operation: got %s", empty.Operation)
	}
}

func TestRun_DrillingDisk(t *testing.T) {
	img := createDiskImage(100, 100, 50, 50, 12, color.Black, color.White)
	p := profileFor(t, profile.Drilling)

	tp, err := Run(encodePNG(t, img), profile.Drilling, p)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var plunges []gcode.Command
	for _, c := range tp.Commands() {
		if c.Kind == gcode.LinearMove {
			plunges = append(plunges, c)
		}
	}
	if len(plunges) != 1 {
		t.Fatalf("expected one drill plunge, got %d:\n%s", len(plunges), tp)
	}

	hole := plunges[0]
	if math.Abs(*hole.X-50) > 1.5 || math.Abs(*hole.Y-50) > 1.5 {
		t.Errorf("hole centre (%v, %v) not near (50, 50)", *hole.X, *hole.Y)
	}
	if *hole.Z != p.Machine.Depth {
		t.Errorf("plunge depth: got %v, want %v", *hole.Z, p.Machine.Depth)
	}
}

func TestRun_MillingRectangle(t *testing.T) {
	img := createRectImage(100, 100, color.White, image.Rect(20, 30, 50, 50), color.Black)
	input := encodePNG(t, img)
	p := profileFor(t, profile.Milling)

	tp, err := Run(input, profile.Milling, p)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	cmds := tp.Commands()
	start, stop := -1, -1
	cuts := 0
	for i, c := range cmds {
		switch c.Kind {
		case gcode.SpindleStart:
			start = i
		case gcode.SpindleStop:
			stop = i
		case gcode.LinearMove:
			cuts++
			if *c.Z != p.Machine.Depth {
				t.Errorf("command %d: cut at Z=%v, want %v", i, *c.Z, p.Machine.Depth)
			}
			// The rectangle spans x 20..50, y 30..50 on a 1 px = 1 mm board.
			if *c.X < 15 || *c.X > 55 || *c.Y < 25 || *c.Y > 55 {
				t.Errorf("command %d: cut at (%v, %v) away from the rectangle", i, *c.X, *c.Y)
			}
		case gcode.RapidMove:
			if c.MovesXY() && (start < 0 || stop >= 0) {
				t.Errorf("command %d: motion outside spindle bracket", i)
			}
		}
	}
	if cuts == 0 {
		t.Fatal("expected milling cuts")
	}

	again, err := Run(input, profile.Milling, p)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if again.String() != tp.String() {
		t.Error("identical input produced different programs")
	}
}

func TestRun_DecodeError(t *testing.T) {
	_, err := Run([]byte("definitely not an image"), profile.Milling, profileFor(t, profile.Milling))
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Errorf("expected DecodeError, got %v", err)
	}
}

func TestRun_InvalidProfile(t *testing.T) {
	p := profileFor(t, profile.Cutting)
	p.Machine.Depth = 0.5

	_, err := Run(nil, profile.Cutting, p)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestRun_NilProfile(t *testing.T) {
	if _, err := Run(nil, profile.Cutting, nil); err == nil {
		t.Error("expected error for nil profile")
	}
}

func TestRun_ExcludeText(t *testing.T) {
	img := createRectImage(100, 100, color.White, image.Rect(20, 30, 50, 50), color.Black)
	p := profileFor(t, profile.Milling)
	p.Shapes.ExcludeText = true

	locator := &fakeLocator{boxes: []image.Rectangle{image.Rect(0, 0, 100, 100)}}
	pl := New(Config{TextLocator: locator})

	_, err := pl.Run(context.Background(), encodePNG(t, img), profile.Milling, p)
	var empty *EmptyGeometryError
	if !errors.As(err, &empty) {
		t.Errorf("expected everything inside the text box to be dropped, got %v", err)
	}
	if locator.calls != 1 {
		t.Errorf("locator calls: got %d, want 1", locator.calls)
	}
}

func TestRun_TextLocatorError(t *testing.T) {
	img := createRectImage(100, 100, color.White, image.Rect(20, 30, 50, 50), color.Black)
	p := profileFor(t, profile.Milling)
	p.Shapes.ExcludeText = true

	boom := errors.New("ocr unavailable")
	pl := New(Config{TextLocator: &fakeLocator{err: boom}})

	_, err := pl.Run(context.Background(), encodePNG(t, img), profile.Milling, p)
	if !errors.Is(err, boom) {
		t.Errorf("expected locator error, got %v", err)
	}
}

func TestRunContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img := createRectImage(100, 100, color.White, image.Rect(20, 30, 50, 50), color.Black)
	_, err := RunContext(ctx, encodePNG(t, img), profile.Milling, profileFor(t, profile.Milling))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunContext_Timeout(t *testing.T) {
	img := createRectImage(100, 100, color.White, image.Rect(20, 30, 50, 50), color.Black)
	p := profileFor(t, profile.Milling)
	p.Shapes.ExcludeText = true

	locator := &fakeLocator{release: make(chan struct{})}
	defer close(locator.release)
	pl := New(Config{TextLocator: locator})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	tp, err := pl.RunContext(ctx, encodePNG(t, img), profile.Milling, p)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if tp != nil {
		t.Error("timed-out run should not return a toolpath")
	}
}

func TestRunBatch(t *testing.T) {
	blank := encodePNG(t, createRectImage(100, 100, color.Black, image.Rectangle{}, color.Black))
	rect := encodePNG(t, createRectImage(100, 100, color.White, image.Rect(20, 30, 50, 50), color.Black))

	jobs := []Job{
		{Name: "outline", Operation: profile.Cutting, Profile: profileFor(t, profile.Cutting)},
		{Name: "blank.png", Input: blank, Operation: profile.Drilling, Profile: profileFor(t, profile.Drilling)},
		{Name: "rect.png", Input: rect, Operation: profile.Milling, Profile: profileFor(t, profile.Milling)},
	}

	results := RunBatch(context.Background(), jobs, 2)
	if len(results) != len(jobs) {
		t.Fatalf("results: got %d, want %d", len(results), len(jobs))
	}
	for i, r := range results {
		if r.Name != jobs[i].Name {
			t.Errorf("result %d: name %q, want %q", i, r.Name, jobs[i].Name)
		}
	}

	if results[0].Err != nil || results[0].Toolpath == nil {
		t.Errorf("cutting job failed: %v", results[0].Err)
	}
	var empty *EmptyGeometryError
	if !errors.As(results[1].Err, &empty) {
		t.Errorf("blank drilling job: expected EmptyGeometryError, got %v", results[1].Err)
	}
	if results[2].Err != nil || results[2].Toolpath.Operation() != profile.Milling {
		t.Errorf("milling job failed: %v", results[2].Err)
	}
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{
		{Name: "a", Operation: profile.Cutting, Profile: profileFor(t, profile.Cutting)},
		{Name: "b", Operation: profile.Cutting, Profile: profileFor(t, profile.Cutting)},
	}
	for _, r := range RunBatch(ctx, jobs, 0) {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", r.Name, r.Err)
		}
	}
}
