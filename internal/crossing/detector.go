// Package crossing finds the dates a series crosses its moving average and
// decides which of two assets crossed first.
package crossing

import (
	"fmt"

	"LeverageLens/internal/model"
)

// Detect returns the upward (false to true) and downward (true to false)
// transition dates of fs. The first element has no predecessor and never
// produces a crossing.
func Detect(fs model.FlagSeries) (model.Crossings, error) {
	if len(fs.Dates) != len(fs.Above) {
		return model.Crossings{}, fmt.Errorf("flag series: %d dates but %d flags", len(fs.Dates), len(fs.Above))
	}
	var c model.Crossings
	for i := 1; i < len(fs.Above); i++ {
		prev, cur := fs.Above[i-1], fs.Above[i]
		switch {
		case !prev && cur:
			c.Up = append(c.Up, fs.Dates[i])
		case prev && !cur:
			c.Down = append(c.Down, fs.Dates[i])
		}
	}
	return c, nil
}
