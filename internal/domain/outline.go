package domain

// OutlineSection is one ordered section of the content outline. The engine
// reads the heading, subheadings, key points, and keywords; References is the
// only field it writes.
type OutlineSection struct {
	ID          string           `json:"id"`
	Heading     string           `json:"heading"`
	Subheadings []string         `json:"subheadings,omitempty"`
	KeyPoints   []string         `json:"key_points,omitempty"`
	Keywords    []string         `json:"keywords,omitempty"`
	TargetWords int              `json:"target_words,omitempty"`
	References  []ResearchSource `json:"references,omitempty"`
}

// Clone returns a deep copy. The mapper and the grounding enhancer write into
// copies so caller-owned sections are never mutated in place.
func (s OutlineSection) Clone() OutlineSection {
	out := s
	out.Subheadings = cloneStrings(s.Subheadings)
	out.KeyPoints = cloneStrings(s.KeyPoints)
	out.Keywords = cloneStrings(s.Keywords)
	if s.References != nil {
		out.References = make([]ResearchSource, len(s.References))
		copy(out.References, s.References)
	}
	return out
}

// CloneSections deep-copies a section list, preserving order.
func CloneSections(sections []OutlineSection) []OutlineSection {
	out := make([]OutlineSection, len(sections))
	for i, s := range sections {
		out[i] = s.Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
