package format

// Result is the outcome of one formatting attempt: either no change or a
// complete replacement text.
type Result struct {
	text    string
	changed bool
}

// NoChange reports that the input was already canonical.
func NoChange() Result { return Result{} }

// Replace wraps a full replacement text.
func Replace(text string) Result { return Result{text: text, changed: true} }

// Compare returns NoChange when formatted equals original.
func Compare(original, formatted string) Result {
	if original == formatted {
		return NoChange()
	}
	return Replace(formatted)
}

// Changed reports whether the result carries replacement text.
func (r Result) Changed() bool { return r.changed }

// Text returns the replacement text and whether there is one.
func (r Result) Text() (string, bool) { return r.text, r.changed }

// Apply returns the replacement text, or original when nothing changed.
func (r Result) Apply(original string) string {
	if !r.changed {
		return original
	}
	return r.text
}
