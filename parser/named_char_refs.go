package parser

import "golang.org/x/net/html"

// longestCharRefName is the length of the longest named character reference,
// "&CounterClockwiseContourIntegral;", without the ampersand.
const longestCharRefName = 32

// longestLegacyCharRefName is the length of the longest reference that is
// recognised without a trailing semicolon.
const longestLegacyCharRefName = 6

// lookupCharRef returns the replacement text of the named character reference
// name, which is given without the ampersand. Names without a trailing
// semicolon only resolve for the legacy references that allow it.
//
// The table is the one golang.org/x/net/html carries. UnescapeString falls
// back to shorter legacy prefixes on its own, so a result only counts when the
// whole name was used up.
func lookupCharRef(name string) (string, bool) {
	if len(name) < 2 {
		return "", false
	}
	in := "&" + name
	out := html.UnescapeString(in)
	if out == in {
		return "", false
	}
	last := out[len(out)-1]
	if name[len(name)-1] == ';' {
		// A prefix match leaves the semicolon behind; "&semi;" is the one
		// reference that legitimately decodes to it.
		if last == ';' && name != "semi;" {
			return "", false
		}
		return out, true
	}
	// A prefix match leaves alphanumerics behind.
	if last < 0x80 && isASCIIAlphanumeric(rune(last)) {
		return "", false
	}
	return out, true
}

// matchCharRef finds the longest named character reference at the start of
// run. run holds the alphanumerics following an ampersand and possibly a
// final semicolon.
func matchCharRef(run string) (name, value string, ok bool) {
	if run[len(run)-1] == ';' {
		if value, ok := lookupCharRef(run); ok {
			return run, value, true
		}
		run = run[:len(run)-1]
	}
	n := len(run)
	if n > longestLegacyCharRefName {
		n = longestLegacyCharRefName
	}
	for ; n >= 2; n-- {
		if value, ok := lookupCharRef(run[:n]); ok {
			return run[:n], value, true
		}
	}
	return "", "", false
}
