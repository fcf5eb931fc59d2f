package compiler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/arborui/arbor/pkg/arbor/expr"
	"github.com/arborui/arbor/pkg/arbor/template"
)

// Category is an attribute's compilation category. Classification looks
// only at the attribute name's marker, the structural name set, and the
// shape of the value; it never evaluates anything.
type Category uint8

const (
	// CatStatic values go into the one-time populate configuration.
	CatStatic Category = iota
	// CatReactive values compile to expressions and become effects.
	CatReactive
	// CatEvent values name a handler on the owning component.
	CatEvent
	// CatStructural attributes steer compilation and never reach the
	// backend.
	CatStructural
	// CatTransition values pass through populate untouched.
	CatTransition
)

func (c Category) String() string {
	switch c {
	case CatStatic:
		return "static"
	case CatReactive:
		return "reactive"
	case CatEvent:
		return "event"
	case CatStructural:
		return "structural"
	case CatTransition:
		return "transition"
	}
	return "unknown"
}

// Attribute markers.
const (
	reactiveMarker = ":"
	eventMarker    = "@"
)

// Structural attribute names.
const (
	attrFor  = "for"
	attrKey  = "key"
	attrRef  = "ref"
	attrSlot = "slot"
	attrType = "type"
)

var structuralNames = map[string]bool{
	attrFor:  true,
	attrKey:  true,
	attrRef:  true,
	attrSlot: true,
	attrType: true,
}

var transitionNames = map[string]bool{
	"transition": true,
	"enter":      true,
	"leave":      true,
}

// Classify resolves an attribute to its category and canonical name
// (markers stripped).
func Classify(a template.Attr) (Category, string) {
	if strings.HasPrefix(a.Name, reactiveMarker) {
		return CatReactive, a.Name[len(reactiveMarker):]
	}
	if strings.HasPrefix(a.Name, eventMarker) {
		return CatEvent, a.Name[len(eventMarker):]
	}
	if structuralNames[a.Name] {
		return CatStructural, a.Name
	}
	if transitionNames[a.Name] && configShaped(a.Value) {
		return CatTransition, a.Name
	}
	if expr.HasInterp(a.Value) {
		return CatReactive, a.Name
	}
	return CatStatic, a.Name
}

// configShaped reports whether a value looks like an inline config
// object, the shape transition values take.
func configShaped(v string) bool {
	v = strings.TrimSpace(v)
	return len(v) >= 2 && v[0] == '{' && v[len(v)-1] == '}'
}

var percentRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?%$`)

// percentValue parses a percent literal into its fraction.
func percentValue(v string) (float64, bool) {
	if !percentRe.MatchString(v) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
	if err != nil {
		return 0, false
	}
	return f / 100, true
}

// boolValue coerces the two boolean spellings.
func boolValue(v string) (bool, bool) {
	switch v {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// Properties that size along each axis. Percent literals on these
// resolve against the matching parent extent.
var horizontalProps = map[string]bool{
	"width":    true,
	"x":        true,
	"left":     true,
	"right":    true,
	"minWidth": true,
	"maxWidth": true,
}

var verticalProps = map[string]bool{
	"height":    true,
	"y":         true,
	"top":       true,
	"bottom":    true,
	"minHeight": true,
	"maxHeight": true,
}

// axisExtent maps a sizing property to the parent extent it resolves
// against.
func axisExtent(name string) (string, bool) {
	if horizontalProps[name] {
		return "width", true
	}
	if verticalProps[name] {
		return "height", true
	}
	return "", false
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func isIdent(s string) bool {
	return identRe.MatchString(s)
}
