package profile

// Validate checks the profile against the invariants for op. Cutting only
// uses the machine section, so image and shape settings are not checked
// for it.
func (p *Profile) Validate(op Operation) error {
	fail := func(field, reason string) error {
		return &ValidationError{Operation: op, Field: field, Reason: reason}
	}

	m := p.Machine
	switch m.Units {
	case Millimeters, Inches:
	default:
		return fail("machine.units", `must be "mm" or "inch"`)
	}
	if m.BoardWidth <= 0 {
		return fail("machine.board_width", "must be positive")
	}
	if m.BoardHeight <= 0 {
		return fail("machine.board_height", "must be positive")
	}
	if m.SafeHeight <= 0 {
		return fail("machine.safe_height", "must be positive")
	}
	if m.Depth >= 0 {
		return fail("machine.depth", "must be negative (below the work surface)")
	}
	if m.FeedRate <= 0 {
		return fail("machine.feed_rate", "must be positive")
	}
	if m.SpindleSpeed <= 0 {
		return fail("machine.spindle_speed", "must be a positive integer")
	}
	if m.Tool < 0 {
		return fail("machine.tool", "must not be negative")
	}

	if op == Cutting {
		return nil
	}

	img := p.Image
	switch img.Polarity {
	case DarkOnLight, LightOnDark:
	default:
		return fail("image.polarity", `must be "dark" or "light"`)
	}
	if img.BlurKernel < 1 || img.BlurKernel%2 == 0 {
		return fail("image.blur_kernel", "must be a positive odd number")
	}
	if img.BlockSize < 3 || img.BlockSize%2 == 0 {
		return fail("image.block_size", "must be an odd number of at least 3")
	}
	switch img.ThresholdMethod {
	case ThresholdGaussian, ThresholdMean:
	default:
		return fail("image.threshold_method", `must be "gaussian" or "mean"`)
	}
	switch img.Morphology {
	case MorphOpen, MorphClose:
		if img.MorphKernel < 1 || img.MorphKernel%2 == 0 {
			return fail("image.morph_kernel", "must be a positive odd number")
		}
		if img.MorphIterations < 1 {
			return fail("image.morph_iterations", "must be at least 1")
		}
	case MorphNone:
	default:
		return fail("image.morphology", `must be "open", "close" or "none"`)
	}
	if img.MaxDimension < 0 {
		return fail("image.max_dimension", "must not be negative")
	}
	if img.PDFDPI <= 0 {
		return fail("image.pdf_dpi", "must be positive")
	}

	s := p.Shapes
	switch s.Retrieval {
	case RetrieveExternal, RetrieveTree:
	default:
		return fail("shapes.retrieval", `must be "external" or "tree"`)
	}
	if s.SimplifyRatio < 0 {
		return fail("shapes.simplify_ratio", "must not be negative")
	}
	if s.MinArea < 0 {
		return fail("shapes.min_area", "must not be negative")
	}
	if s.MergeDistance < 0 {
		return fail("shapes.merge_distance", "must not be negative")
	}
	if s.TextConfidence < 0 || s.TextConfidence > 1 {
		return fail("shapes.text_confidence", "must be between 0 and 1")
	}

	if op == Drilling {
		if s.MinArea <= 0 {
			return fail("shapes.min_area", "must be positive for drilling")
		}
		if s.Circularity == nil {
			return fail("shapes.circularity", "is required for drilling")
		}
		if s.Circularity.Low <= 0 || s.Circularity.Low > s.Circularity.High {
			return fail("shapes.circularity", "must satisfy 0 < low <= high")
		}
	}
	return nil
}
