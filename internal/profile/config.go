package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the environment variable holding the config file path.
const ConfigPathEnv = "PCB_TOOLPATH_CONFIG"

// Config holds one Profile per operation.
type Config struct {
	Cutting  Profile `yaml:"cutting" json:"cutting"`
	Milling  Profile `yaml:"milling" json:"milling"`
	Drilling Profile `yaml:"drilling" json:"drilling"`
}

// ValidationError reports a configuration value that breaks a profile invariant.
type ValidationError struct {
	Operation Operation
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s %s", e.Operation, e.Field, e.Reason)
}

// Default returns the built-in configuration: a 100×100 mm board, feed 100,
// spindle 1000 RPM, safe height 5 mm and per-operation depths of -0.5
// (cutting), -0.05 (milling) and -1.0 (drilling).
func Default() *Config {
	machine := func(depth float64) MachineProfile {
		return MachineProfile{
			Units:        Millimeters,
			BoardWidth:   100,
			BoardHeight:  100,
			SafeHeight:   5.0,
			Depth:        depth,
			FeedRate:     100,
			SpindleSpeed: 1000,
		}
	}
	image := func(polarity Polarity, morph Morphology, iterations int) ImageSettings {
		return ImageSettings{
			MaxDimension:    4000,
			PDFDPI:          300,
			Polarity:        polarity,
			BlurKernel:      5,
			BlockSize:       11,
			ThresholdC:      2,
			ThresholdMethod: ThresholdGaussian,
			Morphology:      morph,
			MorphKernel:     3,
			MorphIterations: iterations,
		}
	}

	return &Config{
		Cutting: Profile{
			Machine: machine(-0.5),
			Image:   image(DarkOnLight, MorphClose, 2),
			Shapes: ShapeSettings{
				Retrieval: RetrieveExternal,
				MinArea:   10,
			},
		},
		Milling: Profile{
			Machine: machine(-0.05),
			Image:   image(DarkOnLight, MorphClose, 2),
			Shapes: ShapeSettings{
				Retrieval:      RetrieveTree,
				SimplifyRatio:  0.005,
				MinArea:        10,
				TextConfidence: 0.6,
			},
		},
		Drilling: Profile{
			Machine: machine(-1.0),
			Image:   image(LightOnDark, MorphOpen, 1),
			Shapes: ShapeSettings{
				Retrieval:      RetrieveExternal,
				SimplifyRatio:  0.01,
				MinArea:        20,
				Circularity:    &Range{Low: 0.7, High: 1.0},
				MergeDistance:  3,
				TextConfidence: 0.6,
			},
		},
	}
}

// Load reads a YAML (or JSON) configuration file on top of Default and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Parse decodes configuration bytes on top of Default and validates them.
// Fields missing from data keep their default values; unknown fields are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// For returns the profile configured for op.
func (c *Config) For(op Operation) (*Profile, error) {
	switch op {
	case Cutting:
		return &c.Cutting, nil
	case Milling:
		return &c.Milling, nil
	case Drilling:
		return &c.Drilling, nil
	default:
		return nil, fmt.Errorf("unknown operation: %q", op)
	}
}

// Validate checks every operation's profile.
func (c *Config) Validate() error {
	for _, op := range Operations {
		p, _ := c.For(op)
		if err := p.Validate(op); err != nil {
			return err
		}
	}
	return nil
}
