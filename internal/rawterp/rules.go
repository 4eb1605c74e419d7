package rawterp

import "strings"

// Rules is the table of textual cleanups applied to a turn of raw output.
// Interpreters differ in the exact markers they print, so every entry can be
// overridden from configuration.
type Rules struct {
	// PromptSuffixes are stripped from the end of the output; first match wins.
	PromptSuffixes []string
	// MoreMarkers signal that more output follows a keypress.
	MoreMarkers []string
	// MoreHint replaces a trailing more marker.
	MoreHint string
	// StatusDelimiters separate the status line from the body.
	StatusDelimiters []string
	// StatusSeparator replaces every status delimiter.
	StatusSeparator string
}

// DefaultRules returns the markers emitted by dumb frotz and glk-style
// terminal interpreters.
func DefaultRules() Rules {
	return Rules{
		PromptSuffixes:   []string{"\n> > ", "\n> >", "\n>"},
		MoreMarkers:      []string{"\n) "},
		MoreHint:         "\n[press /enter to continue]",
		StatusDelimiters: []string{"\n. \n"},
		StatusSeparator:  "\n=====\n",
	}
}

// Apply cleans one turn of output: a trailing prompt is stripped, otherwise a
// trailing more marker becomes a visible hint; status delimiters always
// become a separator line.
func (r Rules) Apply(output string) string {
	stripped := false
	for _, suffix := range r.PromptSuffixes {
		if suffix != "" && strings.HasSuffix(output, suffix) {
			output = strings.TrimSuffix(output, suffix)
			stripped = true
			break
		}
	}
	if !stripped {
		for _, marker := range r.MoreMarkers {
			if marker != "" && strings.HasSuffix(output, marker) {
				output = strings.TrimSuffix(output, marker) + r.MoreHint
				break
			}
		}
	}
	for _, delimiter := range r.StatusDelimiters {
		if delimiter == "" {
			continue
		}
		output = strings.ReplaceAll(output, delimiter, r.StatusSeparator)
	}
	return output
}

// Merge returns r with every non-empty field of override applied.
func (r Rules) Merge(override Rules) Rules {
	if override.PromptSuffixes != nil {
		r.PromptSuffixes = override.PromptSuffixes
	}
	if override.MoreMarkers != nil {
		r.MoreMarkers = override.MoreMarkers
	}
	if override.MoreHint != "" {
		r.MoreHint = override.MoreHint
	}
	if override.StatusDelimiters != nil {
		r.StatusDelimiters = override.StatusDelimiters
	}
	if override.StatusSeparator != "" {
		r.StatusSeparator = override.StatusSeparator
	}
	return r
}
