package assembly

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/feassemble/utils"
)

// Vector accumulates element vectors into a dense global vector.
type Vector struct {
	buf     []float64
	ndofs   int
	started bool
}

func NewVector() *Vector {
	return &Vector{}
}

func (v *Vector) Len() int { return v.ndofs }

// Start zero-fills a buffer of length ndofs, reusing storage when possible.
func (v *Vector) Start(ndofs int) {
	if cap(v.buf) >= ndofs {
		v.buf = v.buf[:ndofs]
		for i := range v.buf {
			v.buf[i] = 0
		}
	} else {
		v.buf = make([]float64, ndofs)
	}
	v.ndofs = ndofs
	v.started = true
}

// Assemble adds vec[i] into entry dofs[i] for every in-range DOF.
func (v *Vector) Assemble(vec mat.Vector, dofs utils.Index) (err error) {
	if !v.started {
		err = fmt.Errorf("vector assemble: %w", ErrConfiguration)
		return
	}
	if vec.Len() != len(dofs) {
		err = fmt.Errorf("vector assemble: vector has %d entries, dof map has %d: %w",
			vec.Len(), len(dofs), ErrDimensionMismatch)
		return
	}
	if vd, ok := vec.(*mat.VecDense); ok {
		raw := vd.RawVector()
		for i, g := range dofs {
			if inRange(g, v.ndofs) {
				v.buf[g-1] += raw.Data[i*raw.Inc]
			}
		}
		return
	}
	for i, g := range dofs {
		if inRange(g, v.ndofs) {
			v.buf[g-1] += vec.AtVec(i)
		}
	}
	return
}

// Finalize returns a copy of the accumulated vector; the internal buffer is
// kept for reuse.
func (v *Vector) Finalize() (F *mat.VecDense, err error) {
	if !v.started {
		err = fmt.Errorf("vector finalize: %w", ErrConfiguration)
		return
	}
	if v.ndofs == 0 {
		F = &mat.VecDense{}
		return
	}
	data := make([]float64, v.ndofs)
	copy(data, v.buf)
	F = mat.NewVecDense(v.ndofs, data)
	return
}

func (v *Vector) merge(other *Vector) (err error) {
	if !v.started || !other.started {
		return fmt.Errorf("vector merge: %w", ErrConfiguration)
	}
	if other.ndofs != v.ndofs {
		return fmt.Errorf("vector merge: %d vs %d dofs: %w", v.ndofs, other.ndofs, ErrDimensionMismatch)
	}
	floats.Add(v.buf, other.buf)
	return
}
