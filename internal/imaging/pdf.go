package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// PageRasterizer renders the first page of a PDF document to a raster image.
type PageRasterizer interface {
	RasterizeFirstPage(ctx context.Context, pdf []byte, dpi int) (image.Image, error)
}

// Poppler rasterizes PDFs with the pdftoppm command from poppler-utils.
type Poppler struct {
	// Command is the pdftoppm executable; empty means "pdftoppm" on PATH.
	Command string
}

// RasterizeFirstPage writes pdf to a temporary directory, renders page 1 at
// dpi to PNG and decodes the result.
//
// Returns *UnsupportedInputError when the command is missing, when it
// rejects the document (corrupt or zero pages) or when it produces no output.
func (p Poppler) RasterizeFirstPage(ctx context.Context, pdf []byte, dpi int) (image.Image, error) {
	command := p.Command
	if command == "" {
		command = "pdftoppm"
	}
	if _, err := exec.LookPath(command); err != nil {
		return nil, &UnsupportedInputError{Reason: fmt.Sprintf("pdf rasterizer %q not available", command)}
	}

	dir, err := os.MkdirTemp("", "pcb-toolpath-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(src, pdf, 0600); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, command,
		"-f", "1", "-l", "1",
		"-r", strconv.Itoa(dpi),
		"-png", "-singlefile",
		src, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &UnsupportedInputError{Reason: fmt.Sprintf("pdf has no renderable first page: %s", firstLine(stderr.String(), err))}
	}

	out, err := os.ReadFile(prefix + ".png")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &UnsupportedInputError{Reason: "pdf produced no pages"}
		}
		return nil, fmt.Errorf("failed to read rendered page: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return img, nil
}

// firstLine returns the first line of a command's stderr, or the run error
// when stderr is empty.
func firstLine(stderr string, err error) string {
	if i := strings.IndexByte(stderr, '\n'); i >= 0 {
		stderr = stderr[:i]
	}
	if stderr == "" {
		return err.Error()
	}
	return stderr
}
