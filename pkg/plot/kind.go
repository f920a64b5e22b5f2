// Package plot turns aggregated fragment-ion data into renderer-neutral
// datasets. Builders are pure and return ErrNoData for empty input.
package plot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData is returned when a builder receives nothing to plot.
var ErrNoData = errors.New("no data to plot")

// Kind is an analysis that produces a plot.
type Kind int

const (
	IntensityBoxPlot Kind = iota + 1
	ModificationBoxPlot
	MassErrorBoxPlot
	MassErrorScatter
	MassErrorBubble
	IonProbability
	HeatMap
)

// Kinds lists every analysis kind.
func Kinds() []Kind {
	return []Kind{
		IntensityBoxPlot,
		ModificationBoxPlot,
		MassErrorBoxPlot,
		MassErrorScatter,
		MassErrorBubble,
		IonProbability,
		HeatMap,
	}
}

func (k Kind) String() string {
	switch k {
	case IntensityBoxPlot:
		return "intensity-boxplot"
	case ModificationBoxPlot:
		return "modification-boxplot"
	case MassErrorBoxPlot:
		return "mass-error-boxplot"
	case MassErrorScatter:
		return "mass-error-scatter"
	case MassErrorBubble:
		return "mass-error-bubble"
	case IonProbability:
		return "ion-probability"
	case HeatMap:
		return "heat-map"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses the name returned by String.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown analysis %q", s)
}

// MarshalText encodes the kind by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Dataset is the result of a builder.
type Dataset interface {
	PlotKind() Kind
}
