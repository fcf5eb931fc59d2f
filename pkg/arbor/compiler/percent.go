package compiler

import (
	"fmt"
	"strconv"

	"github.com/arborui/arbor/pkg/arbor/expr"
)

// percentProgram turns a percent literal on a sizing property into a
// deferred expression against the parent's matching extent: "50%" on
// width compiles to parent.width * 0.5. Percent values on properties
// outside the two axis sets stay plain strings, so ok is false.
func percentProgram(name, value string) (*expr.Program, bool, error) {
	extent, ok := axisExtent(name)
	if !ok {
		return nil, false, nil
	}
	frac, ok := percentValue(value)
	if !ok {
		return nil, false, nil
	}
	src := fmt.Sprintf("%s.%s * %s",
		expr.ParentIdent, extent, strconv.FormatFloat(frac, 'f', -1, 64))
	p, err := expr.Compile(src)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}
