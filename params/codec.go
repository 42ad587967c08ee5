package params

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidParams is returned when a serialized collection can't be decoded.
var ErrInvalidParams = errors.New("invalid parameter collection")

// MarshalJSON encodes the collection as a list of {"key","value"} objects so
// order and duplicates survive the round trip.
func (p Params) MarshalJSON() ([]byte, error) {
	if p.pairs == nil {
		return []byte("[]"), nil
	}

	return json.Marshal(p.pairs)
}

// UnmarshalJSON decodes a list of {"key","value"} objects.
func (p *Params) UnmarshalJSON(data []byte) error {
	var pairs []KeyValue

	err := json.Unmarshal(data, &pairs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	p.pairs = pairs

	return nil
}

// MarshalYAML encodes the collection as an ordered mapping when keys are
// unique, and as a list of pairs otherwise.
func (p Params) MarshalYAML() (any, error) {
	if len(p.Keys()) != len(p.pairs) {
		return p.pairs, nil
	}

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, kv := range p.pairs {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: kv.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: kv.Value},
		)
	}

	return node, nil
}

// UnmarshalYAML accepts either a mapping (document order is kept) or a
// sequence of {key, value} pairs.
func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		pairs := make([]KeyValue, 0, len(node.Content)/2) //nolint:mnd

		for i := 0; i+1 < len(node.Content); i += 2 {
			pairs = append(pairs, KeyValue{
				Key:   node.Content[i].Value,
				Value: node.Content[i+1].Value,
			})
		}

		p.pairs = pairs

		return nil
	case yaml.SequenceNode:
		var pairs []KeyValue

		err := node.Decode(&pairs)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}

		p.pairs = pairs

		return nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			p.pairs = nil

			return nil
		}
	}

	return fmt.Errorf("%w: line %d: expected mapping or sequence", ErrInvalidParams, node.Line)
}
