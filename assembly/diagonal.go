package assembly

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/feassemble/utils"
)

// Diagonal keeps only the diagonal of each square contribution, which lumps
// a matrix by discarding its off-diagonal coupling.
type Diagonal struct {
	sparseBase
}

func NewDiagonal(opts ...Option) *Diagonal {
	return &Diagonal{sparseBase: newSparseBase(opts)}
}

func (d *Diagonal) Start(elemSize, nElems, ndofs int) {
	d.start(nElems*elemSize, ndofs, ndofs)
}

func (d *Diagonal) Assemble(m mat.Matrix, dofs utils.Index) (err error) {
	if err = checkDiagonalInput("diagonal", &d.sparseBase, m, dofs); err != nil {
		return
	}
	data, stride := denseView(m)
	d.appendDiagonal(data, stride, dofs, 1)
	return
}

func (d *Diagonal) Finalize() (S *sparse.CSR, err error) {
	return d.finalizeDiagonal("diagonal")
}

// HRZ is the Hinton-Rock-Zienkiewicz lumped diagonal assembler. Each
// diagonal entry is scaled by sum(all entries)/sum(diagonal), so the lumped
// element keeps the total of the consistent one.
type HRZ struct {
	sparseBase
}

func NewHRZ(opts ...Option) *HRZ {
	return &HRZ{sparseBase: newSparseBase(opts)}
}

func (h *HRZ) Start(elemSize, nElems, ndofs int) {
	h.start(nElems*elemSize, ndofs, ndofs)
}

func (h *HRZ) Assemble(m mat.Matrix, dofs utils.Index) (err error) {
	if err = checkDiagonalInput("hrz", &h.sparseBase, m, dofs); err != nil {
		return
	}
	var (
		data, stride = denseView(m)
		n            = len(dofs)
		total        float64
		diagTotal    float64
	)
	for i := 0; i < n; i++ {
		total += floats.Sum(data[i*stride : i*stride+n])
		diagTotal += data[i*stride+i]
	}
	if diagTotal == 0 {
		err = fmt.Errorf("hrz assemble: %w", ErrSingularLumping)
		return
	}
	h.appendDiagonal(data, stride, dofs, total/diagTotal)
	return
}

func (h *HRZ) Finalize() (S *sparse.CSR, err error) {
	return h.finalizeDiagonal("hrz")
}

func checkDiagonalInput(name string, b *sparseBase, m mat.Matrix, dofs utils.Index) (err error) {
	if !b.buf.Started() {
		return fmt.Errorf("%s assemble: %w", name, ErrConfiguration)
	}
	n, nc := m.Dims()
	if n != nc || n != len(dofs) {
		return fmt.Errorf("%s assemble: matrix is %dx%d, dof map has %d entries: %w",
			name, n, nc, len(dofs), ErrDimensionMismatch)
	}
	return
}

func (b *sparseBase) appendDiagonal(data []float64, stride int, dofs utils.Index, scale float64) {
	b.buf.ensure(len(dofs))
	var (
		rows, cols, vals = b.buf.Rows, b.buf.Cols, b.buf.Vals
		p                = b.buf.Pointer - 1
	)
	for j, gj := range dofs {
		if !inRange(gj, b.ndofsRow) {
			continue
		}
		rows[p], cols[p], vals[p] = gj, gj, data[j*stride+j]*scale
		p++
	}
	b.buf.Pointer = p + 1
}

func (b *sparseBase) finalizeDiagonal(name string) (S *sparse.CSR, err error) {
	if !b.buf.Started() {
		err = fmt.Errorf("%s finalize: %w", name, ErrConfiguration)
		return
	}
	S = b.finalizeWith(func() *sparse.CSR {
		return buildCSR(&b.buf, b.ndofsRow, b.ndofsCol)
	})
	return
}
