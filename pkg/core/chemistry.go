package core

import (
	"fmt"
	"math"
)

// Atomic masses (monoisotopic)
const (
	MassH = 1.0078250321
	MassC = 12.0000000000
	MassN = 14.0030740052
	MassO = 15.9949146221
	MassS = 31.9720706900
	MassP = 30.9737615100

	// Proton mass for charge calculations
	ProtonMass = 1.00727646688

	MassH2O = 2*MassH + MassO
	MassNH3 = MassN + 3*MassH
	MassCO  = MassC + MassO
)

// AminoAcidComposition stores elemental composition
type AminoAcidComposition struct {
	C, H, N, O, S int
}

// AminoAcidMasses maps amino acid one-letter codes to residue composition
var AminoAcidMasses = map[rune]AminoAcidComposition{
	'A': {C: 3, H: 5, N: 1, O: 1, S: 0},
	'R': {C: 6, H: 12, N: 4, O: 1, S: 0},
	'N': {C: 4, H: 6, N: 2, O: 2, S: 0},
	'D': {C: 4, H: 5, N: 1, O: 3, S: 0},
	'C': {C: 3, H: 5, N: 1, O: 1, S: 1},
	'E': {C: 5, H: 7, N: 1, O: 3, S: 0},
	'Q': {C: 5, H: 8, N: 2, O: 2, S: 0},
	'G': {C: 2, H: 3, N: 1, O: 1, S: 0},
	'H': {C: 6, H: 7, N: 3, O: 1, S: 0},
	'I': {C: 6, H: 11, N: 1, O: 1, S: 0},
	'L': {C: 6, H: 11, N: 1, O: 1, S: 0},
	'K': {C: 6, H: 12, N: 2, O: 1, S: 0},
	'M': {C: 5, H: 9, N: 1, O: 1, S: 1},
	'F': {C: 9, H: 9, N: 1, O: 1, S: 0},
	'P': {C: 5, H: 7, N: 1, O: 1, S: 0},
	'S': {C: 3, H: 5, N: 1, O: 2, S: 0},
	'T': {C: 4, H: 7, N: 1, O: 2, S: 0},
	'W': {C: 11, H: 10, N: 2, O: 1, S: 0},
	'Y': {C: 9, H: 9, N: 1, O: 2, S: 0},
	'V': {C: 5, H: 9, N: 1, O: 1, S: 0},
}

func (c AminoAcidComposition) mass() float64 {
	return float64(c.C)*MassC +
		float64(c.H)*MassH +
		float64(c.N)*MassN +
		float64(c.O)*MassO +
		float64(c.S)*MassS
}

// ResidueMass returns the monoisotopic residue mass of an amino acid.
func ResidueMass(aa byte) (float64, bool) {
	comp, ok := AminoAcidMasses[rune(aa)]
	if !ok {
		return 0, false
	}
	return comp.mass(), true
}

// CalculatePeptideMass computes monoisotopic mass of a peptide sequence
// including modifications, then returns the m/z for a given charge state.
func CalculatePeptideMass(sequence string, charge int, modifications []Modification) float64 {
	mass := CalculateNeutralMass(sequence, modifications)
	return (mass + float64(charge)*ProtonMass) / float64(charge)
}

// CalculateNeutralMass computes the neutral monoisotopic mass of a peptide
func CalculateNeutralMass(sequence string, modifications []Modification) float64 {
	comp := AminoAcidComposition{C: 0, H: 2, N: 0, O: 1, S: 0} // Add water

	for _, aa := range sequence {
		if aaComp, ok := AminoAcidMasses[aa]; ok {
			comp.C += aaComp.C
			comp.H += aaComp.H
			comp.N += aaComp.N
			comp.O += aaComp.O
			comp.S += aaComp.S
		}
	}

	mass := comp.mass()
	for _, mod := range modifications {
		mass += mod.Mass
	}
	return mass
}

// TheoreticalFragmentMZ computes the m/z of a backbone fragment of a parsed
// peptide. Modification masses are looked up in db; unknown residues or tags
// are reported as errors.
func TheoreticalFragmentMZ(seq *ModifiedSequence, ionType IonType, number, charge int, neutralLoss string, db *ModDatabase) (float64, error) {
	length := len(seq.Residues)
	if number < 1 || number >= length {
		return 0, fmt.Errorf("ion number %d outside [1,%d)", number, length)
	}
	if charge < 1 {
		charge = 1
	}

	var from, to int
	switch {
	case ionType.IsNTerminal():
		from, to = 0, number
	case ionType.IsCTerminal():
		from, to = length-number, length
	default:
		return 0, fmt.Errorf("ion type %q has no backbone position", ionType)
	}

	mass := 0.0
	for _, r := range seq.Residues[from:to] {
		m, ok := ResidueMass(r.AminoAcid)
		if !ok {
			return 0, fmt.Errorf("unknown residue %q", r.AminoAcid)
		}
		mass += m
		if r.Modification == "" {
			continue
		}
		for _, tag := range splitTags(r.Modification) {
			modMass, ok := db.GetMass(tag)
			if !ok {
				return 0, fmt.Errorf("unknown modification %q", tag)
			}
			mass += modMass
		}
	}

	switch ionType {
	case IonA:
		mass -= MassCO
	case IonC:
		mass += MassNH3
	case IonY:
		mass += MassH2O
	case IonX:
		mass += MassH2O + MassCO - 2*MassH
	case IonZ:
		mass += MassH2O - MassNH3 + MassH
	}

	switch neutralLoss {
	case "":
	case "-H2O":
		mass -= MassH2O
	case "-NH3":
		mass -= MassNH3
	default:
		return 0, fmt.Errorf("unknown neutral loss %q", neutralLoss)
	}

	return (mass + float64(charge)*ProtonMass) / float64(charge), nil
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
