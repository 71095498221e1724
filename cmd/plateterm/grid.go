package main

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/plate-field-go/pkg/body"
	"github.com/olivierh59500/plate-field-go/pkg/plate"
)

// Density ramp from empty to crowded
var ramp = []rune(" .:-=+*#%@")

// View maps world space onto a grid of terminal cells. Cells are about twice as
// tall as they are wide, so a row covers twice the world height of a column.
type View struct {
	Cols, Rows int
	Center     r2.Vec
	Scale      float64 // World units per column
}

// Cell returns the column and row of pos; ok is false when pos is off screen
func (v View) Cell(pos r2.Vec) (col, row int, ok bool) {
	x := (pos.X-v.Center.X)/v.Scale + float64(v.Cols)/2
	y := float64(v.Rows)/2 - (pos.Y-v.Center.Y)/(2*v.Scale)
	col, row = int(math.Floor(x)), int(math.Floor(y))
	ok = col >= 0 && col < v.Cols && row >= 0 && row < v.Rows
	return col, row, ok
}

// World returns the world position at the centre of a cell
func (v View) World(col, row int) r2.Vec {
	return r2.Vec{
		X: (float64(col)+0.5-float64(v.Cols)/2)*v.Scale + v.Center.X,
		Y: (float64(v.Rows)/2-float64(row)-0.5)*2*v.Scale + v.Center.Y,
	}
}

// Density counts bodies per cell, row major
func (v View) Density(bodies []body.Body) ([]int, int) {
	counts := make([]int, v.Cols*v.Rows)
	peak := 0
	for _, b := range bodies {
		col, row, ok := v.Cell(b.Pos)
		if !ok {
			continue
		}
		i := row*v.Cols + col
		counts[i]++
		peak = max(peak, counts[i])
	}
	return counts, peak
}

// PlateAt returns the type of the last plate containing the cell centre
func (v View) PlateAt(plates []plate.Plate, col, row int) (plate.Type, bool) {
	pos := v.World(col, row)
	found := false
	var t plate.Type
	for _, p := range plates {
		if p.Contains(pos) {
			t, found = p.Type, true
		}
	}
	return t, found
}

// densityRune picks a glyph for count relative to the busiest cell
func densityRune(count, peak int) rune {
	if count == 0 || peak == 0 {
		return ramp[0]
	}
	// Logarithmic, a lone body always gets at least the first glyph
	level := math.Log1p(float64(count)) / math.Log1p(float64(peak))
	i := 1 + int(level*float64(len(ramp)-2)+0.5)
	return ramp[min(i, len(ramp)-1)]
}
