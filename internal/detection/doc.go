// Package detection implements the shape extractor and the shape
// classifier: it traces the borders of a binary mask and turns them into
// polygons to mill or points to drill.
//
// # Pipeline
//
//  1. Extract: optional edge peeling, Suzuki–Abe border following with
//     external or tree retrieval, corner reduction and Douglas–Peucker
//     simplification.
//  2. ExcludeInside: optional removal of contours inside located text.
//  3. Classify: minimum-area filter; for drilling a circularity window and
//     reduction to the centroid.
//  4. MergePoints: collapses drill centres closer than a set distance.
//
// # Coordinate System
//
// All coordinates are mask pixels: origin (0, 0) at the top-left, X
// rightward, Y downward. Pixel (x, y) is represented by the point (x, y);
// conversion to board units happens in the mapping package.
//
// # Determinism
//
// Every function here is pure. Border discovery follows a fixed raster scan
// and every later stage preserves order, so the same mask and settings
// always produce the same shapes in the same order.
package detection
