// Package ocr locates text on board artwork using Tesseract.
//
// Silkscreen labels, reference designators and logos binarize just like
// copper and would otherwise be milled. The milling pipeline asks a text
// locator for their boxes and drops every contour that lies inside one.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Hosts without Tesseract can use the edge-density heuristic in the
// detection package instead.
package ocr
