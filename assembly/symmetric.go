package assembly

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/feassemble/utils"
)

// Symmetric assembles square symmetric contributions sharing one DOF map.
// Only the lower triangle of each contribution is stored.
type Symmetric struct {
	sparseBase
}

func NewSymmetric(opts ...Option) *Symmetric {
	return &Symmetric{sparseBase: newSparseBase(opts)}
}

func (s *Symmetric) Start(elemSize, nElems, ndofs int) {
	s.start(nElems*elemSize*(elemSize+1)/2, ndofs, ndofs)
}

func (s *Symmetric) Assemble(m mat.Matrix, dofs utils.Index) (err error) {
	if !s.buf.Started() {
		err = fmt.Errorf("symmetric assemble: %w", ErrConfiguration)
		return
	}
	n, nc := m.Dims()
	if n != nc || n != len(dofs) {
		err = fmt.Errorf("symmetric assemble: matrix is %dx%d, dof map has %d entries: %w",
			n, nc, len(dofs), ErrDimensionMismatch)
		return
	}
	s.buf.ensure(n * (n + 1) / 2)
	var (
		data, stride     = denseView(m)
		rows, cols, vals = s.buf.Rows, s.buf.Cols, s.buf.Vals
		p                = s.buf.Pointer - 1
	)
	for j, gj := range dofs {
		if !inRange(gj, s.ndofsCol) {
			continue
		}
		for i := j; i < n; i++ {
			gi := dofs[i]
			if !inRange(gi, s.ndofsRow) {
				continue
			}
			rows[p], cols[p], vals[p] = gi, gj, data[i*stride+j]
			p++
		}
	}
	s.buf.Pointer = p + 1
	return
}

// Finalize builds the stored triangle, adds its transpose and halves the
// diagonal, which the add counted twice.
func (s *Symmetric) Finalize() (S *sparse.CSR, err error) {
	if !s.buf.Started() {
		err = fmt.Errorf("symmetric finalize: %w", ErrConfiguration)
		return
	}
	S = s.finalizeWith(func() *sparse.CSR {
		return buildSymmetricCSR(&s.buf, s.ndofsRow)
	})
	return
}
