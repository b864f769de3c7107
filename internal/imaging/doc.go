// Package imaging implements the image normalizer: it decodes raster or PDF
// input and reduces it to a binary mask the shape extractor can trace.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with (0,0) at the
// top-left corner, X increasing rightward and Y increasing downward. Masks
// are always re-based so their origin is (0,0) regardless of the source
// image bounds.
//
// # Input Formats
//
// PNG, JPEG and GIF decoders come from the standard library; TIFF, BMP and
// WebP are registered from golang.org/x/image. PDF input is detected by its
// magic bytes and only the first page is rendered, through a PageRasterizer.
// The default rasterizer shells out to poppler's pdftoppm.
//
// # Binarization
//
// Binarize converts to CIE L* lightness, smooths, applies a local adaptive
// threshold and finishes with a morphological open or close. Every
// parameter comes from profile.ImageSettings so the three machining
// operations can tune the mask independently.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and never modify their inputs.
//
// # Error Handling
//
// Undecodable bytes produce a *DecodeError; recognised but unrenderable
// input (a PDF without pages, a missing rasterizer) produces an
// *UnsupportedInputError. Both are matched with errors.As.
package imaging
