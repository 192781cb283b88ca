// Package orientation draws ice-crystal orientations from configured
// statistical models and expresses the sun direction in each crystal frame.
package orientation

import (
	"errors"
	"fmt"
	gomath "math"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownDistribution = errors.New("unknown distribution kind")
	ErrInvalidSpread       = errors.New("distribution spread must be non-negative")
	ErrNotFinite           = errors.New("distribution parameters must be finite")
)

// Kind selects the statistical model of a Distribution.
type Kind int

const (
	// KindUnset is the zero Kind and is rejected by Validate.
	KindUnset Kind = iota
	Uniform
	Gaussian
)

// String returns the config name of the kind.
func (k Kind) String() string {
	switch k {
	case Uniform:
		return "uniform"
	case Gaussian:
		return "gauss"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses a distribution name. Accepted names are "uniform",
// "gauss" and "gaussian", case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uniform":
		return Uniform, nil
	case "gauss", "gaussian":
		return Gaussian, nil
	default:
		return KindUnset, fmt.Errorf("%w: %q", ErrUnknownDistribution, s)
	}
}

// MarshalYAML encodes the kind by name.
func (k Kind) MarshalYAML() (interface{}, error) {
	if k != Uniform && k != Gaussian {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDistribution, int(k))
	}
	return k.String(), nil
}

// UnmarshalYAML decodes the kind from its name.
func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Distribution describes one sampled quantity (angles in radians).
// Spread is the standard deviation for Gaussian and the full interval
// width for Uniform.
type Distribution struct {
	Kind   Kind
	Mean   float32
	Spread float32
}

// Validate reports configuration errors.
func (d Distribution) Validate() error {
	if d.Kind != Uniform && d.Kind != Gaussian {
		return fmt.Errorf("%w: %s", ErrUnknownDistribution, d.Kind)
	}
	if !isFinite(d.Mean) || !isFinite(d.Spread) {
		return fmt.Errorf("%w: mean %v, spread %v", ErrNotFinite, d.Mean, d.Spread)
	}
	if d.Spread < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSpread, d.Spread)
	}
	return nil
}

func isFinite(v float32) bool {
	f := float64(v)
	return !gomath.IsNaN(f) && !gomath.IsInf(f, 0)
}
