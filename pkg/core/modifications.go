package core

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Modification represents a peptide modification with position and mass shift.
type Modification struct {
	Mass     float64
	Position int    // 0-based residue position
	Name     string // modification tag as written in the modified sequence
}

// ModDatabase stores modification definitions keyed by tag
type ModDatabase struct {
	mods map[string]float64 // tag -> mass shift
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]float64),
	}
}

// LoadFromCSV loads modifications from a CSV file (format: mod,massshift[,aa])
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		modName := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])

		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		db.mods[modName] = mass
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// GetMass returns the mass shift for a modification tag. An exact match wins
// over a case-insensitive one.
func (db *ModDatabase) GetMass(name string) (float64, bool) {
	if db == nil {
		return 0, false
	}
	if mass, ok := db.mods[name]; ok {
		return mass, true
	}
	for tag, mass := range db.mods {
		if strings.EqualFold(tag, name) {
			return mass, true
		}
	}
	return 0, false
}

// Add adds or updates a modification
func (db *ModDatabase) Add(name string, mass float64) {
	db.mods[name] = mass
}

// Names returns the known tags in sorted order.
func (db *ModDatabase) Names() []string {
	names := make([]string, 0, len(db.mods))
	for name := range db.mods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Modifications resolves the tags of a parsed sequence into positioned
// modifications.
func (db *ModDatabase) Modifications(seq *ModifiedSequence) ([]Modification, error) {
	var mods []Modification
	for i, r := range seq.Residues {
		if r.Modification == "" {
			continue
		}
		for _, tag := range splitTags(r.Modification) {
			mass, ok := db.GetMass(tag)
			if !ok {
				return nil, fmt.Errorf("unknown modification '%s'", tag)
			}
			mods = append(mods, Modification{Mass: mass, Position: i, Name: tag})
		}
	}
	return mods, nil
}

func splitTags(s string) []string {
	return strings.Split(s, ",")
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications,
// under both their unimod names and the short tags used in annotated sequences.
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()

	// Common modifications from unimod
	db.Add("Acetyl", 42.010565)
	db.Add("Amidated", -0.984016)
	db.Add("Carbamidomethyl", 57.021464)
	db.Add("Carbamyl", 43.005814)
	db.Add("Deamidated", 0.984016)
	db.Add("Phospho", 79.966331)
	db.Add("Dehydrated", -18.010565)
	db.Add("Glu->pyro-Glu", -18.010565)
	db.Add("Gln->pyro-Glu", -17.026549)
	db.Add("Methyl", 14.01565)
	db.Add("Oxidation", 15.994915)
	db.Add("Dimethyl", 28.0313)
	db.Add("Trimethyl", 42.04695)
	db.Add("Propionyl", 56.026215)
	db.Add("TMT6plex", 229.162932)
	db.Add("iTRAQ4plex", 144.102063)

	// Short tags
	db.Add("Mox", 15.994915)
	db.Add("ox", 15.994915)
	db.Add("Cmm", 57.021464)
	db.Add("Ace", 42.010565)
	db.Add("Dam", 0.984016)
	db.Add("Pyr", -17.026549)
	db.Add("Pho", 79.966331)
	db.Add("Met", 14.01565)

	return db
}
