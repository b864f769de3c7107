package profile

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive [Low, High] interval. It is written as a two-element
// sequence in configuration files.
type Range struct {
	Low  float64
	High float64
}

// Contains reports whether v lies within the closed interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Low && v <= r.High
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Low, r.High)
}

// UnmarshalYAML accepts `[low, high]`.
func (r *Range) UnmarshalYAML(value *yaml.Node) error {
	var pair []float64
	if err := value.Decode(&pair); err != nil {
		return fmt.Errorf("line %d: range must be a [low, high] sequence: %w", value.Line, err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("line %d: range must have exactly 2 values, got %d", value.Line, len(pair))
	}
	r.Low, r.High = pair[0], pair[1]
	return nil
}

// MarshalYAML writes the range as a flow sequence.
func (r Range) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range []float64{r.Low, r.High} {
		var item yaml.Node
		if err := item.Encode(v); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &item)
	}
	return node, nil
}

// MarshalJSON writes the range as a two-element array.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Low, r.High})
}

// UnmarshalJSON reads a two-element array.
func (r *Range) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("range must be a [low, high] array: %w", err)
	}
	r.Low, r.High = pair[0], pair[1]
	return nil
}
