package core

import "strings"

// ManufacturerContext carries the per-request manufacturer inputs.
type ManufacturerContext struct {
	Override string
	Force    bool
}

// manufacturerStep is one rung of the resolution ladder.
type manufacturerStep struct {
	name string
	pick func(column string, mctx ManufacturerContext) string
}

// manufacturerSteps is evaluated top to bottom; the first non-empty pick wins.
var manufacturerSteps = []manufacturerStep{
	{
		name: "forced override",
		pick: func(_ string, mctx ManufacturerContext) string {
			if mctx.Force {
				return mctx.Override
			}
			return ""
		},
	},
	{
		name: "column",
		pick: func(column string, _ ManufacturerContext) string { return column },
	},
	{
		name: "override fallback",
		pick: func(_ string, mctx ManufacturerContext) string { return mctx.Override },
	},
}

// ResolveManufacturer picks the manufacturer for one row:
//
//  1. force and a non-empty override: the override
//  2. a non-empty manufacturer column value
//  3. a non-empty override
//  4. "" with resolved=false, which the caller flags
//
// Inputs are whitespace-trimmed before use.
func ResolveManufacturer(column, override string, force bool) (value string, resolved bool) {
	mctx := ManufacturerContext{Override: strings.TrimSpace(override), Force: force}
	column = strings.TrimSpace(column)

	for _, step := range manufacturerSteps {
		if v := step.pick(column, mctx); v != "" {
			return v, true
		}
	}
	return "", false
}
