// Package filter provides the identification predicates used by the search engine
package filter

import (
	"fmt"
	"strings"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

// SelectAll is the instrument choice that disables instrument filtering.
const SelectAll = "Select All"

// MaxChoices is the number of instrument and modification slots.
const MaxChoices = 3

// Criteria holds the search filters. Zero values mean "any".
type Criteria struct {
	Charge        int      // 0 = any charge
	Instruments   []string // up to three instruments; empty or SelectAll = any
	NTerminal     string   // "" = any
	CTerminal     string   // "" = any
	Modifications []string // up to three modification tags; empty = any
}

// Validate checks the slot limits.
func (c *Criteria) Validate() error {
	if c.Charge < 0 {
		return fmt.Errorf("charge must be non-negative, got %d", c.Charge)
	}
	if n := len(nonEmpty(c.Instruments)); n > MaxChoices {
		return fmt.Errorf("at most %d instruments can be selected, got %d", MaxChoices, n)
	}
	if n := len(nonEmpty(c.Modifications)); n > MaxChoices {
		return fmt.Errorf("at most %d modifications can be selected, got %d", MaxChoices, n)
	}
	return nil
}

// Matches applies the charge, instrument and terminal predicates and, when
// withModification is set, the non-exact modification predicate.
func (c *Criteria) Matches(rec *core.IdentificationRecord, withModification bool) bool {
	if !c.MatchesCharge(rec) || !c.MatchesInstrument(rec) || !c.MatchesTerminals(rec) {
		return false
	}
	if withModification && !c.MatchesModification(rec, false) {
		return false
	}
	return true
}

// MatchesCharge tests charge equality.
func (c *Criteria) MatchesCharge(rec *core.IdentificationRecord) bool {
	return c.Charge == 0 || rec.Charge == c.Charge
}

// MatchesInstrument tests instrument membership.
func (c *Criteria) MatchesInstrument(rec *core.IdentificationRecord) bool {
	instruments := nonEmpty(c.Instruments)
	if len(instruments) == 0 {
		return true
	}
	for _, instrument := range instruments {
		if strings.EqualFold(instrument, SelectAll) || strings.EqualFold(instrument, rec.Instrument) {
			return true
		}
	}
	return false
}

// MatchesTerminals tests N- and C-terminal equality.
func (c *Criteria) MatchesTerminals(rec *core.IdentificationRecord) bool {
	if c.NTerminal != "" && !strings.EqualFold(strings.TrimSpace(c.NTerminal), rec.NTerminal) {
		return false
	}
	if c.CTerminal != "" && !strings.EqualFold(strings.TrimSpace(c.CTerminal), rec.CTerminal) {
		return false
	}
	return true
}

// MatchesModification tests modification membership. A record passes when it
// carries at least one of the selected modifications; exact requires the tag
// itself to match rather than a substring of it.
func (c *Criteria) MatchesModification(rec *core.IdentificationRecord, exact bool) bool {
	mods := nonEmpty(c.Modifications)
	if len(mods) == 0 {
		return true
	}
	parsed := rec.Parsed()
	for _, mod := range mods {
		if parsed.HasModification(mod, exact) {
			return true
		}
	}
	return false
}

// String returns a short description for log lines.
func (c *Criteria) String() string {
	var parts []string
	if c.Charge > 0 {
		parts = append(parts, fmt.Sprintf("charge=%d", c.Charge))
	}
	if inst := nonEmpty(c.Instruments); len(inst) > 0 {
		parts = append(parts, "instrument="+strings.Join(inst, "|"))
	}
	if c.NTerminal != "" {
		parts = append(parts, "nterm="+c.NTerminal)
	}
	if c.CTerminal != "" {
		parts = append(parts, "cterm="+c.CTerminal)
	}
	if mods := nonEmpty(c.Modifications); len(mods) > 0 {
		parts = append(parts, "modification="+strings.Join(mods, "|"))
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, " ")
}

// nonEmpty drops blank slots.
func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
