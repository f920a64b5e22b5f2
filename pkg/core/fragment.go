package core

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// IonType is the fragment ion series.
type IonType string

const (
	IonA     IonType = "a"
	IonB     IonType = "b"
	IonC     IonType = "c"
	IonX     IonType = "x"
	IonY     IonType = "y"
	IonZ     IonType = "z"
	IonOther IonType = "other" // precursor, immonium and other sequence-independent ions
)

// ParseIonType parses a single series letter or "other".
func ParseIonType(s string) (IonType, error) {
	switch t := IonType(strings.ToLower(strings.TrimSpace(s))); t {
	case IonA, IonB, IonC, IonX, IonY, IonZ, IonOther:
		return t, nil
	}
	return "", fmt.Errorf("unknown ion type %q", s)
}

// IsNTerminal reports whether the series is counted from the N-terminus.
func (t IonType) IsNTerminal() bool {
	return t == IonA || t == IonB || t == IonC
}

// IsCTerminal reports whether the series is counted from the C-terminus.
func (t IonType) IsCTerminal() bool {
	return t == IonX || t == IonY || t == IonZ
}

// Significance is the scoring tier of a fragment ion. Only database-backed
// sources know it; flat files report SignificanceUnknown.
type Significance int

const (
	SignificanceUnknown Significance = iota
	NotSignificant
	SignificantUnused
	SignificantUsed
)

func (s Significance) String() string {
	switch s {
	case NotSignificant:
		return "not-significant"
	case SignificantUnused:
		return "significant-unused"
	case SignificantUsed:
		return "significant-used"
	default:
		return "unknown"
	}
}

// SignificanceSet is a set of selected significance tiers.
type SignificanceSet uint8

// AllSignificance selects every tier.
const AllSignificance = SignificanceSet(1<<NotSignificant | 1<<SignificantUnused | 1<<SignificantUsed)

// NewSignificanceSet returns a set holding the given tiers.
func NewSignificanceSet(tiers ...Significance) SignificanceSet {
	var s SignificanceSet
	for _, t := range tiers {
		if t != SignificanceUnknown {
			s |= 1 << t
		}
	}
	return s
}

// Allows reports whether an ion of tier sig participates. Unknown tiers always
// pass so that selections are a no-op for sources without scoring metadata.
func (s SignificanceSet) Allows(sig Significance) bool {
	if sig == SignificanceUnknown {
		return true
	}
	return s&(1<<sig) != 0
}

// ParseSignificanceSet parses a comma-separated list of tier numbers (1-3) or
// names. "all" selects every tier and an empty string selects none.
func ParseSignificanceSet(s string) (SignificanceSet, error) {
	var set SignificanceSet
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "":
		case "all":
			set |= AllSignificance
		case "1", "not-significant":
			set |= 1 << NotSignificant
		case "2", "significant-unused":
			set |= 1 << SignificantUnused
		case "3", "significant-used":
			set |= 1 << SignificantUsed
		default:
			return 0, fmt.Errorf("unknown significance tier %q", part)
		}
	}
	return set, nil
}

// FragmentIonRecord is one observed fragment ion of an identification.
type FragmentIonRecord struct {
	IdentificationID int64
	Type             IonType
	Name             string // ion name for sequence-independent ions, e.g. "Prec" or "iK"
	Number           int    // 1-based backbone position, 0 for sequence-independent ions
	Charge           int
	NeutralLoss      string // "", "-H2O" or "-NH3"
	MZ               float64
	Intensity        float64
	MassError        float64 // signed, in Da; NaN when the source omitted it
	Significance     Significance
}

// HasMassError reports whether the source supplied a mass error.
func (f *FragmentIonRecord) HasMassError() bool {
	return !math.IsNaN(f.MassError)
}

// IsSequenceDependent reports whether the ion is located on the backbone.
func (f *FragmentIonRecord) IsSequenceDependent() bool {
	return f.Number > 0 && f.Type != IonOther
}

// ChargeSuffix encodes the charge state bucket: "" for +1, "++" for +2 and
// "+++" for anything higher.
func ChargeSuffix(charge int) string {
	switch {
	case charge <= 1:
		return ""
	case charge == 2:
		return "++"
	default:
		return "+++"
	}
}

// SeriesLabel identifies the ion series without its position, e.g. "y-H2O++".
func (f *FragmentIonRecord) SeriesLabel() string {
	if !f.IsSequenceDependent() {
		return f.Name + f.NeutralLoss + ChargeSuffix(f.Charge)
	}
	return string(f.Type) + f.NeutralLoss + ChargeSuffix(f.Charge)
}

// Label identifies the ion including its zero-padded position, e.g. "b03" or
// "y10-H2O++". Sequence-independent ions use their name.
func (f *FragmentIonRecord) Label() string {
	if !f.IsSequenceDependent() {
		return f.Name + f.NeutralLoss + ChargeSuffix(f.Charge)
	}
	return fmt.Sprintf("%s%02d%s%s", f.Type, f.Number, f.NeutralLoss, ChargeSuffix(f.Charge))
}

// Validate checks the position invariant against the peptide length.
func (f *FragmentIonRecord) Validate(peptideLength int) error {
	var errs []string
	if math.IsNaN(f.MZ) || math.IsInf(f.MZ, 0) || f.MZ <= 0 {
		errs = append(errs, "m/z must be positive")
	}
	if math.IsNaN(f.Intensity) || math.IsInf(f.Intensity, 0) || f.Intensity < 0 {
		errs = append(errs, "intensity must be non-negative")
	}
	if f.Type == IonOther && f.Number != 0 {
		errs = append(errs, "sequence-independent ion must have number 0")
	}
	if f.Type != IonOther && (f.Number < 1 || f.Number >= peptideLength) {
		errs = append(errs, fmt.Sprintf("ion number %d outside [1,%d)", f.Number, peptideLength))
	}
	if len(errs) > 0 {
		return &ValidationError{
			Field:   "FragmentIon",
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

var ionNamePattern = regexp.MustCompile(`^([abcxyz])(\d*)(-H2O|-NH3)?(\++|\^\d+)?(-H2O|-NH3)?$`)

// IonName is the parsed form of an ion annotation.
type IonName struct {
	Type        IonType
	Name        string
	Number      int
	Charge      int
	NeutralLoss string
}

// ParseIonName parses annotations like "b", "y3", "b2^2", "y-H2O++" or
// "Prec". Unrecognised names are treated as sequence-independent ions.
func ParseIonName(annotation string) (IonName, error) {
	annotation = strings.TrimSpace(annotation)
	if annotation == "" {
		return IonName{}, fmt.Errorf("empty ion annotation")
	}

	matches := ionNamePattern.FindStringSubmatch(annotation)
	if matches == nil {
		return parseOtherIonName(annotation), nil
	}

	info := IonName{
		Type:   IonType(matches[1]),
		Charge: 1,
	}
	if matches[2] != "" {
		n, err := strconv.Atoi(matches[2])
		if err != nil {
			return IonName{}, fmt.Errorf("invalid position in annotation %s: %w", annotation, err)
		}
		info.Number = n
	}
	info.NeutralLoss = matches[3]
	if info.NeutralLoss == "" {
		info.NeutralLoss = matches[5]
	}
	if c := matches[4]; c != "" {
		if strings.HasPrefix(c, "^") {
			n, err := strconv.Atoi(c[1:])
			if err != nil {
				return IonName{}, fmt.Errorf("invalid charge in annotation %s: %w", annotation, err)
			}
			info.Charge = n
		} else {
			info.Charge = len(c)
		}
	}
	return info, nil
}

func parseOtherIonName(annotation string) IonName {
	info := IonName{Type: IonOther, Charge: 1}
	name := annotation
	if trimmed := strings.TrimRight(name, "+"); trimmed != name && trimmed != "" {
		info.Charge = len(name) - len(trimmed)
		name = trimmed
	}
	for _, loss := range []string{"-H2O", "-NH3"} {
		if strings.HasSuffix(name, loss) {
			info.NeutralLoss = loss
			name = strings.TrimSuffix(name, loss)
		}
	}
	info.Name = name
	return info
}
