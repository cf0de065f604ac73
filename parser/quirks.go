package parser

import (
	"strings"

	"github.com/gosub-io/gosub-engine/parser/dom"
)

// quirkyPublicIdentifierPrefixes put a document in quirks mode when its
// public identifier starts with one of them, compared case-insensitively.
var quirkyPublicIdentifierPrefixes = []string{
	"+//Silmaril//dtd html Pro v0r11 19970101//",
	"-//AS//DTD HTML 3.0 asWedit + extensions//",
	"-//AdvaSoft Ltd//DTD HTML 3.0 asWedit + extensions//",
	"-//IETF//DTD HTML 2.0 Level 1//",
	"-//IETF//DTD HTML 2.0 Level 2//",
	"-//IETF//DTD HTML 2.0 Strict Level 1//",
	"-//IETF//DTD HTML 2.0 Strict Level 2//",
	"-//IETF//DTD HTML 2.0 Strict//",
	"-//IETF//DTD HTML 2.0//",
	"-//IETF//DTD HTML 2.1E//",
	"-//IETF//DTD HTML 3.0//",
	"-//IETF//DTD HTML 3.2 Final//",
	"-//IETF//DTD HTML 3.2//",
	"-//IETF//DTD HTML 3//",
	"-//IETF//DTD HTML Level 0//",
	"-//IETF//DTD HTML Level 1//",
	"-//IETF//DTD HTML Level 2//",
	"-//IETF//DTD HTML Level 3//",
	"-//IETF//DTD HTML Strict Level 0//",
	"-//IETF//DTD HTML Strict Level 1//",
	"-//IETF//DTD HTML Strict Level 2//",
	"-//IETF//DTD HTML Strict Level 3//",
	"-//IETF//DTD HTML Strict//",
	"-//IETF//DTD HTML//",
	"-//Metrius//DTD Metrius Presentational//",
	"-//Microsoft//DTD Internet Explorer 2.0 HTML Strict//",
	"-//Microsoft//DTD Internet Explorer 2.0 HTML//",
	"-//Microsoft//DTD Internet Explorer 2.0 Tables//",
	"-//Microsoft//DTD Internet Explorer 3.0 HTML Strict//",
	"-//Microsoft//DTD Internet Explorer 3.0 HTML//",
	"-//Microsoft//DTD Internet Explorer 3.0 Tables//",
	"-//Netscape Comm. Corp.//DTD HTML//",
	"-//Netscape Comm. Corp.//DTD Strict HTML//",
	"-//O'Reilly and Associates//DTD HTML 2.0//",
	"-//O'Reilly and Associates//DTD HTML Extended 1.0//",
	"-//O'Reilly and Associates//DTD HTML Extended Relaxed 1.0//",
	"-//SQ//DTD HTML 2.0 HoTMetaL + extensions//",
	"-//SoftQuad Software//DTD HoTMetaL PRO 6.0::19990601::extensions to HTML 4.0//",
	"-//SoftQuad//DTD HoTMetaL PRO 4.0::19971010::extensions to HTML 4.0//",
	"-//Spyglass//DTD HTML 2.0 Extended//",
	"-//Sun Microsystems Corp.//DTD HotJava HTML//",
	"-//Sun Microsystems Corp.//DTD HotJava Strict HTML//",
	"-//W3C//DTD HTML 3 1995-03-24//",
	"-//W3C//DTD HTML 3.2 Draft//",
	"-//W3C//DTD HTML 3.2 Final//",
	"-//W3C//DTD HTML 3.2//",
	"-//W3C//DTD HTML 3.2S Draft//",
	"-//W3C//DTD HTML 4.0 Frameset//",
	"-//W3C//DTD HTML 4.0 Transitional//",
	"-//W3C//DTD HTML Experimental 19960712//",
	"-//W3C//DTD HTML Experimental 970421//",
	"-//W3C//DTD W3 HTML//",
	"-//W3O//DTD W3 HTML 3.0//",
	"-//WebTechs//DTD Mozilla HTML 2.0//",
	"-//WebTechs//DTD Mozilla HTML//",
}

// quirkyPublicIdentifiers must match the whole public identifier.
var quirkyPublicIdentifiers = []string{
	"-//W3O//DTD W3 HTML Strict 3.0//EN//",
	"-/W3C/DTD HTML 4.0 Transitional/EN",
	"HTML",
}

const quirkySystemIdentifier = "http://www.ibm.com/data/dtd/v11/ibmxhtml1-transitional.dtd"

const (
	html401Frameset     = "-//W3C//DTD HTML 4.01 Frameset//"
	html401Transitional = "-//W3C//DTD HTML 4.01 Transitional//"
	xhtml1Frameset      = "-//W3C//DTD XHTML 1.0 Frameset//"
	xhtml1Transitional  = "-//W3C//DTD XHTML 1.0 Transitional//"
)

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// quirksModeForDoctype classifies a doctype token. Documents in an iframe
// srcdoc are never in quirks mode.
// https://html.spec.whatwg.org/#the-initial-insertion-mode
func quirksModeForDoctype(t *Token, iframeSrcdoc bool) dom.QuirksMode {
	if iframeSrcdoc {
		return dom.NoQuirks
	}
	pub, sys := t.PublicIdentifier, t.SystemIdentifier
	if t.ForceQuirks || t.TagName != "html" {
		return dom.Quirks
	}
	for _, id := range quirkyPublicIdentifiers {
		if strings.EqualFold(pub, id) {
			return dom.Quirks
		}
	}
	if strings.EqualFold(sys, quirkySystemIdentifier) {
		return dom.Quirks
	}
	for _, prefix := range quirkyPublicIdentifierPrefixes {
		if hasPrefixFold(pub, prefix) {
			return dom.Quirks
		}
	}
	html401 := hasPrefixFold(pub, html401Frameset) || hasPrefixFold(pub, html401Transitional)
	if !t.HasSystemIdentifier && html401 {
		return dom.Quirks
	}
	if hasPrefixFold(pub, xhtml1Frameset) || hasPrefixFold(pub, xhtml1Transitional) {
		return dom.LimitedQuirks
	}
	if t.HasSystemIdentifier && html401 {
		return dom.LimitedQuirks
	}
	return dom.NoQuirks
}

// isConformingDoctype reports whether a doctype needs no parse error:
// <!DOCTYPE html>, optionally with the about:legacy-compat system identifier.
func isConformingDoctype(t *Token) bool {
	if t.TagName != "html" || t.HasPublicIdentifier {
		return false
	}
	return !t.HasSystemIdentifier || t.SystemIdentifier == "about:legacy-compat"
}
