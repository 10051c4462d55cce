package assembly

import (
	"fmt"
	"log"
)

// GrowthFactor is the number of incoming contributions worth of slots added
// when the triplet buffer runs out of space.
const GrowthFactor = 1000

// TripletBuffer is an arena of (row, column, value) triplets with a bump
// cursor. Rows and Cols hold 1-based global DOF numbers; a triplet with a
// non-positive row or column is ignorable and dropped at build time.
//
// Pointer is 1-based: Pointer-1 triplets are stored. A zero Pointer means the
// buffer was never started. Once started, 1 <= Pointer <= Len()+1.
type TripletBuffer struct {
	Rows    []int
	Cols    []int
	Vals    []float64
	Pointer int
	Growths int // number of automatic growth events since allocation
	logger  *log.Logger
}

func (tb *TripletBuffer) Len() int { return len(tb.Vals) }

func (tb *TripletBuffer) Started() bool { return tb.Pointer >= 1 }

// Count returns the number of triplets written in the current cycle.
func (tb *TripletBuffer) Count() int {
	if tb.Pointer < 1 {
		return 0
	}
	return tb.Pointer - 1
}

// Reserve sizes the buffer to capacity if it was never started, or always
// when force is set. A started buffer keeps its storage otherwise.
func (tb *TripletBuffer) Reserve(capacity int, force bool) {
	if tb.Started() && !force {
		return
	}
	if capacity < 0 {
		capacity = 0
	}
	tb.Rows = make([]int, capacity)
	tb.Cols = make([]int, capacity)
	tb.Vals = make([]float64, capacity)
	tb.Growths = 0
	tb.Pointer = 1
}

// Reset rewinds the cursor; the contents become garbage to be overwritten.
func (tb *TripletBuffer) Reset() {
	tb.Pointer = 1
}

// ensure grows the buffer by incoming*GrowthFactor slots when fewer than
// incoming free slots remain.
func (tb *TripletBuffer) ensure(incoming int) {
	if tb.Pointer-1+incoming <= len(tb.Vals) {
		return
	}
	newLen := len(tb.Vals) + incoming*GrowthFactor
	if tb.logger != nil {
		tb.logger.Printf("triplet buffer full at %d entries, growing to %d", tb.Count(), newLen)
	}
	tb.growTo(newLen)
	tb.Growths++
}

func (tb *TripletBuffer) growTo(newLen int) {
	if newLen <= len(tb.Vals) {
		return
	}
	var (
		rows = make([]int, newLen)
		cols = make([]int, newLen)
		vals = make([]float64, newLen)
	)
	copy(rows, tb.Rows)
	copy(cols, tb.Cols)
	copy(vals, tb.Vals)
	tb.Rows, tb.Cols, tb.Vals = rows, cols, vals
}

// Append writes one triplet at the cursor, growing when needed.
func (tb *TripletBuffer) Append(row, col int, val float64) {
	tb.ensure(1)
	p := tb.Pointer - 1
	tb.Rows[p], tb.Cols[p], tb.Vals[p] = row, col, val
	tb.Pointer++
}

// FillTail marks every slot past the cursor as ignorable, so the whole
// storage can be handed to a builder without corrupting the result.
func (tb *TripletBuffer) FillTail() {
	for k := tb.Count(); k < len(tb.Vals); k++ {
		tb.Rows[k], tb.Cols[k], tb.Vals[k] = 0, 0, 0
	}
}

// Compact moves the usable triplets among the first Count() to the front of
// the buffer, dropping any whose row is outside 1..nr or column outside
// 1..nc, and returns how many were kept. The cursor is left untouched.
func (tb *TripletBuffer) Compact(nr, nc int) (n int) {
	var (
		rows, cols, vals = tb.Rows, tb.Cols, tb.Vals
	)
	for k := 0; k < tb.Count(); k++ {
		r, c := rows[k], cols[k]
		if r < 1 || r > nr || c < 1 || c > nc {
			continue
		}
		if n != k {
			rows[n], cols[n], vals[n] = r, c, vals[k]
		}
		n++
	}
	return
}

// Merge appends the current cycle of other to the receiver. The receiver
// grows to exactly the size needed; other is not modified.
func (tb *TripletBuffer) Merge(other *TripletBuffer) (err error) {
	if !tb.Started() {
		err = fmt.Errorf("merge into triplet buffer: %w", ErrConfiguration)
		return
	}
	n := other.Count()
	if n == 0 {
		return
	}
	p := tb.Pointer - 1
	tb.growTo(p + n)
	copy(tb.Rows[p:], other.Rows[:n])
	copy(tb.Cols[p:], other.Cols[:n])
	copy(tb.Vals[p:], other.Vals[:n])
	tb.Pointer += n
	return
}
