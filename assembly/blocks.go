package assembly

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// MatrixBlocks partitions a finalized n x n system whose DOFs are numbered
// free-first into the blocks
//
//	[ff fd]
//	[df dd]
//
// where ff is nFree x nFree. Blocks with a zero dimension are returned nil.
func MatrixBlocks(S *sparse.CSR, nFree int) (ff, fd, df, dd *sparse.CSR, err error) {
	nr, nc := S.Dims()
	if nr != nc || nFree < 0 || nFree > nr {
		err = fmt.Errorf("matrix blocks: %dx%d matrix with %d free dofs: %w",
			nr, nc, nFree, ErrDimensionMismatch)
		return
	}
	var (
		nData = nr - nFree
		blk   [2][2]*sparse.DOK
		dims  = [2]int{nFree, nData}
	)
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			if dims[a] > 0 && dims[b] > 0 {
				blk[a][b] = sparse.NewDOK(dims[a], dims[b])
			}
		}
	}
	split := func(i int) (part, local int) {
		if i < nFree {
			return 0, i
		}
		return 1, i - nFree
	}
	S.DoNonZero(func(i, j int, v float64) {
		a, li := split(i)
		b, lj := split(j)
		blk[a][b].Set(li, lj, v)
	})
	toCSR := func(d *sparse.DOK) *sparse.CSR {
		if d == nil {
			return nil
		}
		return d.ToCSR()
	}
	return toCSR(blk[0][0]), toCSR(blk[0][1]), toCSR(blk[1][0]), toCSR(blk[1][1]), nil
}

// VectorBlocks splits a free-first vector into its free and prescribed
// parts. Empty parts are returned nil.
func VectorBlocks(v mat.Vector, nFree int) (f, d *mat.VecDense, err error) {
	n := v.Len()
	if nFree < 0 || nFree > n {
		err = fmt.Errorf("vector blocks: length %d with %d free dofs: %w", n, nFree, ErrDimensionMismatch)
		return
	}
	if nFree > 0 {
		f = mat.NewVecDense(nFree, nil)
		for i := 0; i < nFree; i++ {
			f.SetVec(i, v.AtVec(i))
		}
	}
	if n-nFree > 0 {
		d = mat.NewVecDense(n-nFree, nil)
		for i := nFree; i < n; i++ {
			d.SetVec(i-nFree, v.AtVec(i))
		}
	}
	return
}
