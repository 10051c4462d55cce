package assembly

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/feassemble/utils"
)

// General assembles rectangular contributions whose rows and columns live
// in independent DOF spaces.
type General struct {
	sparseBase
}

func NewGeneral(opts ...Option) *General {
	return &General{sparseBase: newSparseBase(opts)}
}

// Start sizes the buffer for nElems contributions of rowsPerElem x
// colsPerElem the first time it is called, and opens a new cycle.
func (g *General) Start(rowsPerElem, colsPerElem, nElems, ndofsRow, ndofsCol int) {
	g.start(rowsPerElem*colsPerElem*nElems, ndofsRow, ndofsCol)
}

// Assemble adds mat[i,j] at (rowDofs[i], colDofs[j]) for every pair whose
// DOFs are both in range.
func (g *General) Assemble(m mat.Matrix, rowDofs, colDofs utils.Index) (err error) {
	if !g.buf.Started() {
		err = fmt.Errorf("general assemble: %w", ErrConfiguration)
		return
	}
	nr, nc := m.Dims()
	if nr != len(rowDofs) || nc != len(colDofs) {
		err = fmt.Errorf("general assemble: matrix is %dx%d, dof maps are %dx%d: %w",
			nr, nc, len(rowDofs), len(colDofs), ErrDimensionMismatch)
		return
	}
	g.buf.ensure(nr * nc)
	var (
		data, stride     = denseView(m)
		rows, cols, vals = g.buf.Rows, g.buf.Cols, g.buf.Vals
		p                = g.buf.Pointer - 1
	)
	for j, gj := range colDofs {
		if !inRange(gj, g.ndofsCol) {
			continue
		}
		for i, gi := range rowDofs {
			if !inRange(gi, g.ndofsRow) {
				continue
			}
			rows[p], cols[p], vals[p] = gi, gj, data[i*stride+j]
			p++
		}
	}
	g.buf.Pointer = p + 1
	return
}

// Finalize builds the ndofsRow x ndofsCol matrix with duplicates summed and
// rewinds the buffer. With NoMatrixResult set it returns a zero matrix and
// keeps the triplets.
func (g *General) Finalize() (S *sparse.CSR, err error) {
	if !g.buf.Started() {
		err = fmt.Errorf("general finalize: %w", ErrConfiguration)
		return
	}
	S = g.finalizeWith(func() *sparse.CSR {
		return buildCSR(&g.buf, g.ndofsRow, g.ndofsCol)
	})
	return
}
