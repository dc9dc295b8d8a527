// Package units converts metric values between scale units using exact
// decimal arithmetic, so repeated conversions do not accumulate binary
// floating point drift. Platform stats report memory in KB and CPU
// speed in MHz; the convenience casts default their source unit
// accordingly.
package units

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownUnit is returned when a unit label is not part of the scale
// being converted against.
var ErrUnknownUnit = errors.New("unknown unit")

// NoRounding disables rounding of the conversion result.
const NoRounding = -1

// MemScale is the binary byte scale, factor 1024 between steps.
var MemScale = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// CPUScale is the SI frequency scale, factor 1000 between steps.
var CPUScale = []string{"HZ", "KHZ", "MHZ", "GHZ", "THZ", "PHZ"}

// Cast converts value from one unit to another along an ordered scale.
// The scale step between adjacent units is factor. If precision is
// non-negative the result is rounded to that many fractional digits
// using banker's rounding; pass NoRounding to keep the exact value.
func Cast(value float64, from, to string, factor int64, scale []string, precision int) (decimal.Decimal, error) {
	fromIdx, err := scaleIndex(scale, from)
	if err != nil {
		return decimal.Zero, err
	}
	toIdx, err := scaleIndex(scale, to)
	if err != nil {
		return decimal.Zero, err
	}

	offset := toIdx - fromIdx
	steps := offset
	if steps < 0 {
		steps = -steps
	}

	chg := decimal.NewFromInt(factor).Pow(decimal.NewFromInt(int64(steps)))
	res := decimal.NewFromFloat(value)

	if offset <= 0 {
		res = res.Mul(chg)
	} else {
		res = res.Div(chg)
	}

	if precision >= 0 {
		res = res.RoundBank(int32(precision))
	}
	return res, nil
}

// MemCast converts memory (or storage) values along the binary byte
// scale. An empty srcUnit defaults to KB, the platform's native memory
// reporting unit. Storage values are reported in MB and need srcUnit
// overridden.
func MemCast(value float64, unit, srcUnit string, precision int) (decimal.Decimal, error) {
	if srcUnit == "" {
		srcUnit = "KB"
	}
	return Cast(value, strings.ToUpper(srcUnit), strings.ToUpper(unit), 1024, MemScale, precision)
}

// CPUCast converts CPU speed values along the SI frequency scale. An
// empty srcUnit defaults to MHz, the platform's native reporting unit.
func CPUCast(value float64, unit, srcUnit string, precision int) (decimal.Decimal, error) {
	if srcUnit == "" {
		srcUnit = "MHZ"
	}
	return Cast(value, strings.ToUpper(srcUnit), strings.ToUpper(unit), 1000, CPUScale, precision)
}

func scaleIndex(scale []string, unit string) (int, error) {
	for i, u := range scale {
		if u == unit {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q not in scale %v", ErrUnknownUnit, unit, scale)
}
