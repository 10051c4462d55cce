package assembly

import (
	"sort"

	"github.com/james-bowman/sparse"
)

// buildCSR compacts the buffer, sums duplicate (row, col) triplets and
// returns the nr x nc result. The buffer cursor is reset afterwards.
func buildCSR(tb *TripletBuffer, nr, nc int) (S *sparse.CSR) {
	n := tb.Compact(nr, nc)
	indptr, ind, data := compress(nr, tb.Rows[:n], tb.Cols[:n], tb.Vals[:n], 1)
	tb.Reset()
	return sparse.NewCSR(nr, nc, indptr, ind, data)
}

// buildSymmetricCSR treats the buffer as one triangle L of a symmetric
// matrix and returns L + L^T with the diagonal halved.
func buildSymmetricCSR(tb *TripletBuffer, n int) (S *sparse.CSR) {
	nt := tb.Compact(n, n)
	lp, li, ld := compress(n, tb.Rows[:nt], tb.Cols[:nt], tb.Vals[:nt], 1)
	tb.Reset()
	var (
		nnz  = len(ld)
		rows = make([]int, 2*nnz)
		cols = make([]int, 2*nnz)
		vals = make([]float64, 2*nnz)
	)
	for i := 0; i < n; i++ {
		for k := lp[i]; k < lp[i+1]; k++ {
			j := li[k]
			rows[k], cols[k], vals[k] = i, j, ld[k]
			rows[nnz+k], cols[nnz+k], vals[nnz+k] = j, i, ld[k]
		}
	}
	indptr, ind, data := compress(n, rows, cols, vals, 0)
	for i := 0; i < n; i++ {
		for k := indptr[i]; k < indptr[i+1]; k++ {
			if ind[k] == i {
				data[k] /= 2
				break
			}
		}
	}
	return sparse.NewCSR(n, n, indptr, ind, data)
}

func zeroCSR(nr, nc int) *sparse.CSR {
	return sparse.NewCSR(nr, nc, make([]int, nr+1), []int{}, []float64{})
}

// compress converts triplets, whose indices start at base, into 0-based CSR
// arrays with sorted column indices and duplicates summed in input order.
func compress(nr int, rows, cols []int, vals []float64, base int) (indptr, ind []int, data []float64) {
	var (
		n = len(vals)
	)
	indptr = make([]int, nr+1)
	for _, r := range rows {
		indptr[r-base+1]++
	}
	for i := 0; i < nr; i++ {
		indptr[i+1] += indptr[i]
	}
	ind = make([]int, n)
	data = make([]float64, n)
	next := make([]int, nr)
	copy(next, indptr[:nr])
	for k, r := range rows {
		r -= base
		p := next[r]
		ind[p], data[p] = cols[k]-base, vals[k]
		next[r]++
	}
	var out int
	for i := 0; i < nr; i++ {
		start, end := indptr[i], indptr[i+1]
		sort.Stable(rowEntries{ind[start:end], data[start:end]})
		rowStart := out
		for k := start; k < end; k++ {
			if out > rowStart && ind[out-1] == ind[k] {
				data[out-1] += data[k]
				continue
			}
			ind[out], data[out] = ind[k], data[k]
			out++
		}
		indptr[i] = rowStart
	}
	indptr[nr] = out
	return indptr, ind[:out], data[:out]
}

type rowEntries struct {
	ind  []int
	data []float64
}

func (r rowEntries) Len() int           { return len(r.ind) }
func (r rowEntries) Less(i, j int) bool { return r.ind[i] < r.ind[j] }
func (r rowEntries) Swap(i, j int) {
	r.ind[i], r.ind[j] = r.ind[j], r.ind[i]
	r.data[i], r.data[j] = r.data[j], r.data[i]
}
