package assembly

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/feassemble/utils"
)

// Reduced projects each contribution through a fixed basis T (ndofsFull x
// ndofsReduced) and accumulates T_local^T * mat * T_local into a dense
// ndofsReduced x ndofsReduced matrix. T is never modified.
type Reduced struct {
	transform  mat.Matrix
	nFull      int
	nReduced   int
	acc        *mat.Dense
	started    bool
	local      mat.Dense
	tLocal     mat.Dense
	work       mat.Dense
	projection mat.Dense
}

func NewReduced(T mat.Matrix) *Reduced {
	nFull, nReduced := T.Dims()
	return &Reduced{
		transform: T,
		nFull:     nFull,
		nReduced:  nReduced,
	}
}

func (r *Reduced) Dims() (nFull, nReduced int) { return r.nFull, r.nReduced }

// Start zeroes the accumulator. It is required before every cycle.
func (r *Reduced) Start() {
	if r.acc == nil {
		r.acc = mat.NewDense(r.nReduced, r.nReduced, nil)
	} else {
		r.acc.Zero()
	}
	r.started = true
}

// Assemble requires identical row and column DOF maps. Rows and columns
// whose DOF is not in 1..ndofsFull are zeroed in a private copy of the
// contribution and mapped onto row 1 of T, where they contribute nothing.
func (r *Reduced) Assemble(m mat.Matrix, rowDofs, colDofs utils.Index) (err error) {
	if !r.started {
		err = fmt.Errorf("reduced assemble: %w", ErrConfiguration)
		return
	}
	n, nc := m.Dims()
	if n != nc || n != len(rowDofs) {
		err = fmt.Errorf("reduced assemble: matrix is %dx%d, dof map has %d entries: %w",
			n, nc, len(rowDofs), ErrDimensionMismatch)
		return
	}
	if !rowDofs.Equal(colDofs) {
		err = fmt.Errorf("reduced assemble: row and column dof maps differ: %w", ErrDimensionMismatch)
		return
	}
	if n == 0 {
		return
	}
	r.local.Reset()
	r.local.CloneFrom(m)
	r.tLocal.Reset()
	r.tLocal.ReuseAs(n, r.nReduced)
	for i, g := range rowDofs {
		if !inRange(g, r.nFull) {
			for k := 0; k < n; k++ {
				r.local.Set(i, k, 0)
				r.local.Set(k, i, 0)
			}
			g = 1
		}
		for k := 0; k < r.nReduced; k++ {
			r.tLocal.Set(i, k, r.transform.At(g-1, k))
		}
	}
	r.work.Reset()
	r.work.Mul(&r.local, &r.tLocal)
	r.projection.Reset()
	r.projection.Mul(r.tLocal.T(), &r.work)
	r.acc.Add(r.acc, &r.projection)
	return
}

// Finalize returns a copy of the accumulator. Start must be called again
// before the next cycle.
func (r *Reduced) Finalize() (A *mat.Dense, err error) {
	if !r.started {
		err = fmt.Errorf("reduced finalize: %w", ErrConfiguration)
		return
	}
	A = mat.DenseCopyOf(r.acc)
	r.started = false
	return
}

// merge adds the accumulator of other into the receiver.
func (r *Reduced) merge(other *Reduced) (err error) {
	if !r.started || !other.started {
		return fmt.Errorf("reduced merge: %w", ErrConfiguration)
	}
	if other.nReduced != r.nReduced {
		return fmt.Errorf("reduced merge: %d vs %d reduced dofs: %w",
			r.nReduced, other.nReduced, ErrDimensionMismatch)
	}
	r.acc.Add(r.acc, other.acc)
	return
}
