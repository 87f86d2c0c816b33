package nuxsec

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// PreciseTicks is a plot.Ticker that picks round major steps and labels
// them without floating point noise. Cross sections in units of 1e-38 and
// event counts share the same marker.
type PreciseTicks struct {
	NSuggestedTicks int
}

func (t PreciseTicks) Ticks(min, max float64) []plot.Tick {
	if t.NSuggestedTicks < 2 {
		t.NSuggestedTicks = 4
	}

	if !(max > min) {
		return []plot.Tick{{Value: min, Label: formatFloatTick(min, -1)}}
	}

	majorDelta, majorMult := majorStep(max-min, t.NSuggestedTicks)

	// decimals needed for labels at multiples of majorDelta
	prec := -int(math.Floor(math.Log10(majorDelta)))

	var ticks []plot.Tick
	for val := math.Ceil(min/majorDelta) * majorDelta; val <= max; val += majorDelta {
		v := round(val, prec)
		ticks = append(ticks, plot.Tick{Value: v, Label: formatFloatTick(v, -1)})
	}

	minorDelta := minorStep(majorDelta, majorMult)
	for val := math.Ceil(min/minorDelta) * minorDelta; val <= max; val += minorDelta {
		if !hasTick(ticks, val, minorDelta/2) {
			ticks = append(ticks, plot.Tick{Value: val})
		}
	}
	return ticks
}

// majorStep returns a step of the form mult×10^k that splits span into
// about n-1 intervals.
func majorStep(span float64, n int) (float64, int) {
	tens := math.Pow10(int(math.Floor(math.Log10(span))))
	for span/tens < float64(n)-1 {
		tens /= 10
	}

	mult := int(span / tens / float64(n-1))
	switch mult {
	case 0:
		mult = 1
	case 7:
		mult = 6
	case 9:
		mult = 8
	}
	return float64(mult) * tens, mult
}

func minorStep(major float64, mult int) float64 {
	switch mult {
	case 3, 6:
		return major / 3
	case 5:
		return major / 5
	}
	return major / 2
}

func hasTick(ticks []plot.Tick, val, tol float64) bool {
	for _, t := range ticks {
		if t.Label != "" && math.Abs(t.Value-val) < tol {
			return true
		}
	}
	return false
}

// round rounds x to prec decimal places, half away from zero.
func round(x float64, prec int) float64 {
	if x == 0 {
		// no negative zero in labels
		return 0
	}
	if prec >= 0 && x == math.Trunc(x) {
		return x
	}
	pow := math.Pow10(prec)
	intermed := x * pow
	if math.IsInf(intermed, 0) {
		return x
	}
	if x < 0 {
		x = math.Ceil(intermed - 0.5)
	} else {
		x = math.Floor(intermed + 0.5)
	}

	if x == 0 {
		return 0
	}

	return x / pow
}

func formatFloatTick(v float64, prec int) string {
	return strconv.FormatFloat(v, 'g', prec, 64)
}
