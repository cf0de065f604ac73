package parser

import (
	"strings"

	"github.com/gosub-io/gosub-engine/parser/dom"
)

// svgTagNames restores the camel case of SVG element names, which the
// tokenizer lowercases.
var svgTagNames = map[string]string{
	"altglyph":            "altGlyph",
	"altglyphdef":         "altGlyphDef",
	"altglyphitem":        "altGlyphItem",
	"animatecolor":        "animateColor",
	"animatemotion":       "animateMotion",
	"animatetransform":    "animateTransform",
	"clippath":            "clipPath",
	"feblend":             "feBlend",
	"fecolormatrix":       "feColorMatrix",
	"fecomponenttransfer": "feComponentTransfer",
	"fecomposite":         "feComposite",
	"feconvolvematrix":    "feConvolveMatrix",
	"fediffuselighting":   "feDiffuseLighting",
	"fedisplacementmap":   "feDisplacementMap",
	"fedistantlight":      "feDistantLight",
	"fedropshadow":        "feDropShadow",
	"feflood":             "feFlood",
	"fefunca":             "feFuncA",
	"fefuncb":             "feFuncB",
	"fefuncg":             "feFuncG",
	"fefuncr":             "feFuncR",
	"fegaussianblur":      "feGaussianBlur",
	"feimage":             "feImage",
	"femerge":             "feMerge",
	"femergenode":         "feMergeNode",
	"femorphology":        "feMorphology",
	"feoffset":            "feOffset",
	"fepointlight":        "fePointLight",
	"fespecularlighting":  "feSpecularLighting",
	"fespotlight":         "feSpotLight",
	"fetile":              "feTile",
	"feturbulence":        "feTurbulence",
	"foreignobject":       "foreignObject",
	"glyphref":            "glyphRef",
	"lineargradient":      "linearGradient",
	"radialgradient":      "radialGradient",
	"textpath":            "textPath",
}

// https://html.spec.whatwg.org/#adjust-svg-attributes
var svgAttributeNames = map[string]string{
	"attributename":       "attributeName",
	"attributetype":       "attributeType",
	"basefrequency":       "baseFrequency",
	"baseprofile":         "baseProfile",
	"calcmode":            "calcMode",
	"clippathunits":       "clipPathUnits",
	"diffuseconstant":     "diffuseConstant",
	"edgemode":            "edgeMode",
	"filterunits":         "filterUnits",
	"glyphref":            "glyphRef",
	"gradienttransform":   "gradientTransform",
	"gradientunits":       "gradientUnits",
	"kernelmatrix":        "kernelMatrix",
	"kernelunitlength":    "kernelUnitLength",
	"keypoints":           "keyPoints",
	"keysplines":          "keySplines",
	"keytimes":            "keyTimes",
	"lengthadjust":        "lengthAdjust",
	"limitingconeangle":   "limitingConeAngle",
	"markerheight":        "markerHeight",
	"markerunits":         "markerUnits",
	"markerwidth":         "markerWidth",
	"maskcontentunits":    "maskContentUnits",
	"maskunits":           "maskUnits",
	"numoctaves":          "numOctaves",
	"pathlength":          "pathLength",
	"patterncontentunits": "patternContentUnits",
	"patterntransform":    "patternTransform",
	"patternunits":        "patternUnits",
	"pointsatx":           "pointsAtX",
	"pointsaty":           "pointsAtY",
	"pointsatz":           "pointsAtZ",
	"preservealpha":       "preserveAlpha",
	"preserveaspectratio": "preserveAspectRatio",
	"primitiveunits":      "primitiveUnits",
	"refx":                "refX",
	"refy":                "refY",
	"repeatcount":         "repeatCount",
	"repeatdur":           "repeatDur",
	"requiredextensions":  "requiredExtensions",
	"requiredfeatures":    "requiredFeatures",
	"specularconstant":    "specularConstant",
	"specularexponent":    "specularExponent",
	"spreadmethod":        "spreadMethod",
	"startoffset":         "startOffset",
	"stddeviation":        "stdDeviation",
	"stitchtiles":         "stitchTiles",
	"surfacescale":        "surfaceScale",
	"systemlanguage":      "systemLanguage",
	"tablevalues":         "tableValues",
	"targetx":             "targetX",
	"targety":             "targetY",
	"textlength":          "textLength",
	"viewbox":             "viewBox",
	"viewtarget":          "viewTarget",
	"xchannelselector":    "xChannelSelector",
	"ychannelselector":    "yChannelSelector",
	"zoomandpan":          "zoomAndPan",
}

type foreignAttribute struct {
	ns    dom.Namespace
	local string
}

// https://html.spec.whatwg.org/#adjust-foreign-attributes
var foreignAttributes = map[string]foreignAttribute{
	"xlink:actuate": {dom.Xlinkns, "actuate"},
	"xlink:arcrole": {dom.Xlinkns, "arcrole"},
	"xlink:href":    {dom.Xlinkns, "href"},
	"xlink:role":    {dom.Xlinkns, "role"},
	"xlink:show":    {dom.Xlinkns, "show"},
	"xlink:title":   {dom.Xlinkns, "title"},
	"xlink:type":    {dom.Xlinkns, "type"},
	"xml:lang":      {dom.Xmlns, "lang"},
	"xml:space":     {dom.Xmlns, "space"},
	"xmlns":         {dom.Xmlnsns, "xmlns"},
	"xmlns:xlink":   {dom.Xmlnsns, "xlink"},
}

func adjustForeignTagName(ns dom.Namespace, name string) string {
	if ns == dom.Svgns {
		if adjusted, ok := svgTagNames[name]; ok {
			return adjusted
		}
	}
	return name
}

// adjustForeignAttributes applies the MathML or SVG attribute case fixes
// and moves the xlink, xml and xmlns attributes into their namespaces.
func adjustForeignAttributes(ns dom.Namespace, attrs []Attribute) []dom.Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]dom.Attribute, 0, len(attrs))
	for _, a := range attrs {
		key := a.Key
		switch ns {
		case dom.Mathmlns:
			if key == "definitionurl" {
				key = "definitionURL"
			}
		case dom.Svgns:
			if adjusted, ok := svgAttributeNames[key]; ok {
				key = adjusted
			}
		}
		if fa, ok := foreignAttributes[key]; ok {
			out = append(out, dom.Attribute{Namespace: fa.ns, Key: fa.local, Val: a.Val})
			continue
		}
		out = append(out, dom.Attribute{Key: key, Val: a.Val})
	}
	return out
}

// https://html.spec.whatwg.org/#mathml-text-integration-point
func (c *HTMLTreeConstructor) isMathMLTextIntegrationPoint(id dom.NodeID) bool {
	return c.isForeign(id, dom.Mathmlns, "mi", "mo", "mn", "ms", "mtext")
}

// https://html.spec.whatwg.org/#html-integration-point
func (c *HTMLTreeConstructor) isHTMLIntegrationPoint(id dom.NodeID) bool {
	if c.isForeign(id, dom.Mathmlns, "annotation-xml") {
		enc, _ := c.doc.Attr(id, "encoding")
		return strings.EqualFold(enc, "text/html") || strings.EqualFold(enc, "application/xhtml+xml")
	}
	return c.isForeign(id, dom.Svgns, "foreignObject", "desc", "title")
}

// breaksOutOfForeignContent reports whether the start tag t closes all
// foreign elements up to the nearest HTML context.
func breaksOutOfForeignContent(t *Token) bool {
	switch t.TagName {
	case "b", "big", "blockquote", "body", "br", "center", "code", "dd", "div", "dl", "dt", "em", "embed",
		"h1", "h2", "h3", "h4", "h5", "h6", "head", "hr", "i", "img", "li", "listing", "menu", "meta", "nobr",
		"ol", "p", "pre", "ruby", "s", "small", "span", "strong", "strike", "sub", "sup", "table", "tt", "u",
		"ul", "var":
		return true
	case "font":
		for _, key := range []string{"color", "face", "size"} {
			if _, ok := t.Attr(key); ok {
				return true
			}
		}
	}
	return false
}

// foreignContentHandler processes tokens inside SVG and MathML.
// https://html.spec.whatwg.org/#parsing-main-inforeign
func (c *HTMLTreeConstructor) foreignContentHandler(t *Token) bool {
	switch t.Type {
	case CharacterToken:
		switch {
		case t.Data == "\x00":
			c.parseError(errUnexpectedNullCharacter, t)
			c.insertCharacter("\uFFFD")
		case isWhitespaceToken(t):
			c.insertCharacter(t.Data)
		default:
			c.insertCharacter(t.Data)
			c.framesetOK = false
		}
	case CommentToken:
		c.insertComment(t)
	case DoctypeToken:
		c.unexpected(t)
	case StartTagToken:
		if breaksOutOfForeignContent(t) {
			c.parseError(errUnexpectedHTMLInForeign, t)
			c.popToHTMLContext()
			return c.handlerFor(c.mode)(t)
		}
		ns := c.doc.Namespace(c.adjustedCurrentNode())
		c.insertForeignElementForToken(t, ns)
		if t.SelfClosing {
			c.stackOfOpenElements.pop()
			c.selfClosingAcknowledged = true
		}
	case EndTagToken:
		if t.TagName == "br" || t.TagName == "p" {
			c.parseError(errUnexpectedHTMLInForeign, t)
			c.popToHTMLContext()
			return c.handlerFor(c.mode)(t)
		}
		return c.foreignEndTag(t)
	}
	return false
}

// popToHTMLContext pops foreign elements until the current node is an HTML
// element or an integration point.
func (c *HTMLTreeConstructor) popToHTMLContext() {
	for len(c.stackOfOpenElements) > 1 {
		cur := c.currentNode()
		if c.doc.Namespace(cur) == dom.Htmlns || c.isMathMLTextIntegrationPoint(cur) || c.isHTMLIntegrationPoint(cur) {
			return
		}
		c.stackOfOpenElements.pop()
	}
}

// foreignEndTag closes the nearest foreign element named like t, matching
// names case-insensitively. An HTML element on the way hands t to the
// current insertion mode.
func (c *HTMLTreeConstructor) foreignEndTag(t *Token) bool {
	i := len(c.stackOfOpenElements) - 1
	node := c.stackOfOpenElements[i]
	if strings.ToLower(c.doc.Name(node)) != t.TagName {
		c.parseError(errNonHTMLEndTag, t)
	}
	for ; i > 0; i-- {
		node = c.stackOfOpenElements[i]
		if strings.ToLower(c.doc.Name(node)) == t.TagName {
			c.popUntilNode(node)
			return false
		}
		if c.doc.Namespace(c.stackOfOpenElements[i-1]) == dom.Htmlns {
			return c.handlerFor(c.mode)(t)
		}
	}
	return false
}
