package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// FormatPDF is the format name reported for PDF input.
const FormatPDF = "pdf"

// DefaultPDFDPI is used when a Decoder is given a non-positive DPI.
const DefaultPDFDPI = 300

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether data starts with the PDF magic bytes.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// Sniff returns the format of data without fully decoding it: "pdf" for PDF
// documents, otherwise the registered raster format name ("png", "jpeg",
// "gif", "tiff", "bmp", "webp").
func Sniff(data []byte) (string, error) {
	if IsPDF(data) {
		return FormatPDF, nil
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", &DecodeError{Err: err}
	}
	return format, nil
}

// Decoder turns raw input bytes into a raster image.
//
// Raster formats are decoded in-process. PDF input is handed to Rasterizer,
// which renders only the first page; a nil Rasterizer makes PDF input
// unsupported.
type Decoder struct {
	Rasterizer PageRasterizer
	DPI        int
}

// NewDecoder returns a Decoder that renders PDFs with poppler at dpi.
func NewDecoder(dpi int) *Decoder {
	return &Decoder{Rasterizer: Poppler{}, DPI: dpi}
}

// Decode converts data into an image.
//
// Parameters:
//   - ctx: Bounds PDF rasterization, which runs an external process.
//   - data: Raw file contents. PDFs are detected by their magic bytes, not
//     by any file name.
//
// Returns:
//   - image.Image: The decoded raster, or the rendered first PDF page.
//   - error: *DecodeError for undecodable bytes, *UnsupportedInputError for
//     PDFs that cannot be rendered.
func (d *Decoder) Decode(ctx context.Context, data []byte) (image.Image, error) {
	if IsPDF(data) {
		if d == nil || d.Rasterizer == nil {
			return nil, &UnsupportedInputError{Reason: "pdf input requires a page rasterizer"}
		}
		dpi := d.DPI
		if dpi <= 0 {
			dpi = DefaultPDFDPI
		}
		return d.Rasterizer.RasterizeFirstPage(ctx, data, dpi)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return img, nil
}

// ImageCache provides thread-safe caching of decoded input images keyed by
// file path, so repeated tool calls against the same artwork skip decoding
// and PDF rasterization.
//
// An entry is reused only while the file's size and modification time are
// unchanged; PDF entries also have to match the requested render DPI.
// Otherwise the file is read and decoded again.
type ImageCache struct {
	mu      sync.RWMutex
	decoder *Decoder
	images  map[string]*cachedImage
}

type cachedImage struct {
	img     image.Image
	format  string
	size    int64
	modTime time.Time
	dpi     int
}

// current reports whether the entry still describes the file on disk.
func (e *cachedImage) current(info os.FileInfo, dpi int) bool {
	if e.size != info.Size() || !e.modTime.Equal(info.ModTime()) {
		return false
	}
	return e.format != FormatPDF || e.dpi == dpi
}

// NewImageCache creates an empty cache that decodes with decoder.
func NewImageCache(decoder *Decoder) *ImageCache {
	return &ImageCache{
		decoder: decoder,
		images:  make(map[string]*cachedImage),
	}
}

// Load retrieves an image from the cache or reads and decodes it from disk.
// PDFs are rendered at the decoder's DPI.
//
// The image is cached using the exact path string provided. Different paths
// to the same file (e.g., relative vs absolute) result in separate entries.
func (c *ImageCache) Load(ctx context.Context, path string) (image.Image, error) {
	return c.LoadAt(ctx, path, 0)
}

// LoadAt is Load with the PDF render resolution set to dpi. A non-positive
// dpi keeps the decoder's. Raster files ignore it.
func (c *ImageCache) LoadAt(ctx context.Context, path string, dpi int) (image.Image, error) {
	entry, err := c.load(ctx, path, dpi)
	if err != nil {
		return nil, err
	}
	return entry.img, nil
}

func (c *ImageCache) load(ctx context.Context, path string, dpi int) (*cachedImage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	dec := Decoder{}
	if c.decoder != nil {
		dec = *c.decoder
	}
	if dpi > 0 {
		dec.DPI = dpi
	}
	if dec.DPI <= 0 {
		dec.DPI = DefaultPDFDPI
	}

	c.mu.RLock()
	entry, ok := c.images[path]
	c.mu.RUnlock()
	if ok && entry.current(info, dec.DPI) {
		return entry, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	format, err := Sniff(data)
	if err != nil {
		return nil, err
	}

	img, err := dec.Decode(ctx, data)
	if err != nil {
		return nil, err
	}

	entry = &cachedImage{
		img:     img,
		format:  format,
		size:    int64(len(data)),
		modTime: info.ModTime(),
		dpi:     dec.DPI,
	}
	c.mu.Lock()
	c.images[path] = entry
	c.mu.Unlock()

	return entry, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*cachedImage)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo contains metadata about a loaded input file.
type ImageInfo struct {
	// Width and Height are the raster size in pixels. For PDFs this is the
	// rendered first page.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the sniffed content format: "pdf", "png", "jpeg", "gif",
	// "tiff", "bmp" or "webp".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	HasAlpha      bool  `json:"has_alpha"`
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an input file into the cache and describes it.
func LoadImageInfo(ctx context.Context, cache *ImageCache, path string) (*ImageInfo, error) {
	entry, err := cache.load(ctx, path, 0)
	if err != nil {
		return nil, err
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch entry.img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	bounds := entry.img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        entry.format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: entry.size,
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the pixel dimensions of an input file.
func GetDimensions(ctx context.Context, cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
