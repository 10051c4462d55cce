// Package assembly accumulates per-element dense contributions, each tagged
// with a 1-based local-to-global DOF map, into global sparse matrices, dense
// vectors and reduced dense systems.
//
// DOF numbers <= 0, or larger than the declared number of DOFs, are dropped
// silently. This is how constrained DOFs are eliminated.
//
// Assemblers are single-writer. For parallel element loops give each worker
// its own assembler and merge before a single Finalize, see ParallelMatrix.
package assembly

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// MatrixAssembler is the capability shared by the triplet based assemblers.
// Each variant has its own Start and Assemble signature, known where the
// element loop is built.
type MatrixAssembler interface {
	Dims() (nr, nc int)
	Buffer() *TripletBuffer
	NoMatrixResult() bool
	SetNoMatrixResult(on bool)
	Finalize() (*sparse.CSR, error)
}

var (
	_ MatrixAssembler = (*General)(nil)
	_ MatrixAssembler = (*Symmetric)(nil)
	_ MatrixAssembler = (*Diagonal)(nil)
	_ MatrixAssembler = (*HRZ)(nil)
)

type sparseBase struct {
	buf            TripletBuffer
	ndofsRow       int
	ndofsCol       int
	noMatrixResult bool
	forceInit      bool
}

func newSparseBase(opts []Option) (b sparseBase) {
	c := newConfig(opts)
	b.noMatrixResult = c.noMatrixResult
	b.forceInit = c.forceInit
	b.buf.logger = c.logger
	return
}

func (b *sparseBase) start(capacity, ndofsRow, ndofsCol int) {
	b.buf.Reserve(capacity, b.forceInit)
	b.buf.Reset()
	b.ndofsRow, b.ndofsCol = ndofsRow, ndofsCol
}

func (b *sparseBase) Dims() (nr, nc int) { return b.ndofsRow, b.ndofsCol }

func (b *sparseBase) Buffer() *TripletBuffer { return &b.buf }

func (b *sparseBase) NoMatrixResult() bool { return b.noMatrixResult }

// SetNoMatrixResult switches the finalize mode. Turning it off after a
// no-result Finalize lets the next Finalize build from the retained triplets.
func (b *sparseBase) SetNoMatrixResult(on bool) { b.noMatrixResult = on }

// finalizeWith returns the zero matrix and keeps the triplets when no result
// is wanted, otherwise builds with build.
func (b *sparseBase) finalizeWith(build func() *sparse.CSR) *sparse.CSR {
	if b.noMatrixResult {
		b.buf.FillTail()
		return zeroCSR(b.ndofsRow, b.ndofsCol)
	}
	return build()
}

// denseView exposes the local contribution as row-major data with a stride.
func denseView(m mat.Matrix) (data []float64, stride int) {
	var (
		d  *mat.Dense
		ok bool
	)
	if d, ok = m.(*mat.Dense); !ok {
		d = mat.DenseCopyOf(m)
	}
	raw := d.RawMatrix()
	return raw.Data, raw.Stride
}

func inRange(dof, limit int) bool {
	return dof > 0 && dof <= limit
}
