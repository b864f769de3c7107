// Package pipeline wires the image, detection, mapping and G-code stages
// into a single call that turns board artwork into a machine program.
//
// Usage:
//
//	cfg, _ := profile.Load("board.yaml")
//	p, _ := cfg.For(profile.Milling)
//	tp, err := pipeline.Run(artwork, profile.Milling, p)
//	if err != nil {
//		var empty *pipeline.EmptyGeometryError
//		if errors.As(err, &empty) { ... }
//	}
//	tp.WriteTo(os.Stdout)
//
// A run is synchronous and CPU-bound. RunContext bounds it with a deadline
// and RunBatch spreads independent jobs over a fixed number of workers.
package pipeline
