package core

import (
	"fmt"
	"strings"
)

// Residue is one amino acid of a modified sequence with its optional modification tag.
type Residue struct {
	AminoAcid    byte
	Modification string
}

// ModifiedSequence is the parsed form of an annotated peptide such as
// "NH2-PEPM<Mox>TIDE-COOH" or "A(ox)BC".
type ModifiedSequence struct {
	NTerminal string
	CTerminal string
	Residues  []Residue
}

// ParseModifiedSequence parses residues, inline modification tags in <tag> or (tag)
// form, and optional terminal groups separated by '-'.
func ParseModifiedSequence(s string) (*ModifiedSequence, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty modified sequence")
	}

	ms := &ModifiedSequence{}
	body := s

	dashes := topLevelDashes(s)
	switch len(dashes) {
	case 0:
	case 1:
		prefix, suffix := s[:dashes[0]], s[dashes[0]+1:]
		if isResidueRun(prefix) {
			ms.CTerminal = suffix
			body = prefix
		} else {
			ms.NTerminal = prefix
			body = suffix
		}
	case 2:
		ms.NTerminal = s[:dashes[0]]
		ms.CTerminal = s[dashes[1]+1:]
		body = s[dashes[0]+1 : dashes[1]]
	default:
		return nil, fmt.Errorf("modified sequence %q has %d terminal separators", s, len(dashes))
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c >= 'A' && c <= 'Z':
			ms.Residues = append(ms.Residues, Residue{AminoAcid: c})
		case c == '<' || c == '(':
			closing := byte('>')
			if c == '(' {
				closing = ')'
			}
			end := strings.IndexByte(body[i+1:], closing)
			if end < 0 {
				return nil, fmt.Errorf("unterminated modification in %q", s)
			}
			if len(ms.Residues) == 0 {
				return nil, fmt.Errorf("modification before first residue in %q", s)
			}
			tag := body[i+1 : i+1+end]
			last := &ms.Residues[len(ms.Residues)-1]
			if last.Modification != "" {
				last.Modification += ","
			}
			last.Modification += tag
			i += end + 1
		default:
			return nil, fmt.Errorf("unexpected character %q in %q", c, s)
		}
	}

	if len(ms.Residues) == 0 {
		return nil, fmt.Errorf("modified sequence %q has no residues", s)
	}
	return ms, nil
}

// topLevelDashes returns the byte offsets of '-' characters outside of
// modification brackets.
func topLevelDashes(s string) []int {
	var out []int
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case '-':
			if depth == 0 {
				out = append(out, i)
			}
		}
	}
	return out
}

// isResidueRun reports whether s looks like peptide residues rather than a
// terminal group such as "NH2" or "Ace".
func isResidueRun(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '<' || c == '(' {
			return true
		}
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func plainResidues(seq string) []Residue {
	out := make([]Residue, 0, len(seq))
	for i := 0; i < len(seq); i++ {
		out = append(out, Residue{AminoAcid: seq[i]})
	}
	return out
}

// Plain returns the unmodified residue string.
func (m *ModifiedSequence) Plain() string {
	var b strings.Builder
	b.Grow(len(m.Residues))
	for _, r := range m.Residues {
		b.WriteByte(r.AminoAcid)
	}
	return b.String()
}

// IsModified reports whether any residue carries a modification tag.
func (m *ModifiedSequence) IsModified() bool {
	for _, r := range m.Residues {
		if r.Modification != "" {
			return true
		}
	}
	return false
}

// Tags returns every modification tag in residue order.
func (m *ModifiedSequence) Tags() []string {
	var tags []string
	for _, r := range m.Residues {
		if r.Modification == "" {
			continue
		}
		tags = append(tags, strings.Split(r.Modification, ",")...)
	}
	return tags
}

// HasModification reports whether a residue carries the given modification.
// With exact set the tag must match case-insensitively; otherwise a
// case-insensitive substring match is enough.
func (m *ModifiedSequence) HasModification(mod string, exact bool) bool {
	mod = strings.TrimSpace(mod)
	if mod == "" {
		return false
	}
	mod = strings.Trim(mod, "<>()")
	for _, tag := range m.Tags() {
		if exact {
			if strings.EqualFold(tag, mod) {
				return true
			}
			continue
		}
		if strings.Contains(strings.ToLower(tag), strings.ToLower(mod)) {
			return true
		}
	}
	return false
}

// String renders the sequence using <tag> markup.
func (m *ModifiedSequence) String() string {
	var b strings.Builder
	if m.NTerminal != "" {
		b.WriteString(m.NTerminal)
		b.WriteByte('-')
	}
	for _, r := range m.Residues {
		b.WriteByte(r.AminoAcid)
		if r.Modification != "" {
			for _, tag := range strings.Split(r.Modification, ",") {
				b.WriteByte('<')
				b.WriteString(tag)
				b.WriteByte('>')
			}
		}
	}
	if m.CTerminal != "" {
		b.WriteByte('-')
		b.WriteString(m.CTerminal)
	}
	return b.String()
}

// ResidueLabel returns the category label of residue position k (1-based), for
// example "K4".
func ResidueLabel(sequence string, k int) string {
	if k < 1 || k > len(sequence) {
		return fmt.Sprintf("%d", k)
	}
	return fmt.Sprintf("%c%d", sequence[k-1], k)
}
