package assembly

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/feassemble/utils"
)

type elementSet struct {
	mats []*mat.Dense
	vecs []*mat.VecDense
	dofs []utils.Index
}

func newElementSet(seed int64, nElem, esize, ndofs int) (es elementSet) {
	rng := rand.New(rand.NewSource(seed))
	for k := 0; k < nElem; k++ {
		es.mats = append(es.mats, randomSymmetric(rng, esize))
		v := mat.NewVecDense(esize, nil)
		for i := 0; i < esize; i++ {
			v.SetVec(i, rng.Float64())
		}
		es.vecs = append(es.vecs, v)
		es.dofs = append(es.dofs, randomDofs(rng, esize, ndofs))
	}
	return
}

func TestParallelMatrix(t *testing.T) {
	var (
		ndofs, nElem, esize = 25, 500, 4
		es                  = newElementSet(23, nElem, esize, ndofs)
		serial              = NewSymmetric()
		target              = NewSymmetric()
		workers             = make([]*Symmetric, 4)
	)
	serial.Start(esize, nElem, ndofs)
	for k := 0; k < nElem; k++ {
		require.NoError(t, serial.Assemble(es.mats[k], es.dofs[k]))
	}
	Sserial, err := serial.Finalize()
	require.NoError(t, err)

	target.Start(esize, 1, ndofs)
	for np := range workers {
		workers[np] = NewSymmetric(NoMatrixResult(true))
		workers[np].Start(esize, nElem/len(workers), ndofs)
	}
	S, err := ParallelMatrix(target, workers, nElem, func(np int, a *Symmetric, k int) error {
		return a.Assemble(es.mats[k], es.dofs[k])
	})
	require.NoError(t, err)
	assertDenseEqual(t, toDense(Sserial), toDense(S), 1e-12)
	for _, w := range workers {
		assert.Equal(t, 0, w.Buffer().Count())
	}
	{ // Worker errors are reported with the failing element
		bad := errors.New("bad element")
		target.Start(esize, 1, ndofs)
		_, err = ParallelMatrix(target, workers, nElem, func(np int, a *Symmetric, k int) error {
			if k == 17 {
				return bad
			}
			return a.Assemble(es.mats[k], es.dofs[k])
		})
		assert.ErrorIs(t, err, bad)
		assert.Contains(t, err.Error(), "element 17")
	}
	{ // Workers must share the target's dimensions
		g := NewGeneral()
		g.Start(1, 1, 1, 3, 3)
		w := NewGeneral()
		w.Start(1, 1, 1, 3, 4)
		_, err = ParallelMatrix(g, []*General{w}, 1, func(np int, a *General, k int) error { return nil })
		assert.ErrorIs(t, err, ErrDimensionMismatch)
		_, err = ParallelMatrix(g, []*General{NewGeneral()}, 1, func(np int, a *General, k int) error { return nil })
		assert.ErrorIs(t, err, ErrConfiguration)
		_, err = ParallelMatrix(g, nil, 1, func(np int, a *General, k int) error { return nil })
		assert.ErrorIs(t, err, ErrConfiguration)
	}
}

func TestParallelVectorAndReduced(t *testing.T) {
	var (
		ndofs, nElem, esize = 12, 300, 3
		es                  = newElementSet(29, nElem, esize, ndofs)
		serialV             = NewVector()
		T                   = mat.NewDense(ndofs, 2, nil)
		serialR             = NewReduced(T)
	)
	for i := 0; i < ndofs; i++ {
		T.Set(i, 0, 1)
		T.Set(i, 1, float64(i))
	}
	serialV.Start(ndofs)
	serialR.Start()
	for k := 0; k < nElem; k++ {
		require.NoError(t, serialV.Assemble(es.vecs[k], es.dofs[k]))
		require.NoError(t, serialR.Assemble(es.mats[k], es.dofs[k], es.dofs[k]))
	}
	Fserial, err := serialV.Finalize()
	require.NoError(t, err)
	Aserial, err := serialR.Finalize()
	require.NoError(t, err)

	{
		target := NewVector()
		target.Start(ndofs)
		workers := make([]*Vector, 3)
		for np := range workers {
			workers[np] = NewVector()
			workers[np].Start(ndofs)
		}
		F, err := ParallelVector(target, workers, nElem, func(np int, a *Vector, k int) error {
			return a.Assemble(es.vecs[k], es.dofs[k])
		})
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(Fserial, F, 1e-12))
	}
	{
		target := NewReduced(T)
		target.Start()
		workers := make([]*Reduced, 5)
		for np := range workers {
			workers[np] = NewReduced(T)
			workers[np].Start()
		}
		A, err := ParallelReduced(target, workers, nElem, func(np int, a *Reduced, k int) error {
			return a.Assemble(es.mats[k], es.dofs[k], es.dofs[k])
		})
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(Aserial, A, 1e-10))
	}
	{
		target := NewVector()
		target.Start(ndofs + 1)
		w := NewVector()
		w.Start(ndofs)
		_, err := ParallelVector(target, []*Vector{w}, 0, func(np int, a *Vector, k int) error { return nil })
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	}
}

func TestParallelRetry(t *testing.T) {
	var (
		fail = true
		bad  = errors.New("bad element")
		one  = mat.NewDense(1, 1, []float64{1})
		dofs = utils.Index{1}
	)
	{ // Triplets from a failed run are discarded
		target := NewGeneral()
		workers := []*General{NewGeneral(NoMatrixResult(true)), NewGeneral(NoMatrixResult(true))}
		for _, w := range workers {
			w.Start(1, 1, 2, 1, 1)
		}
		element := func(np int, a *General, k int) error {
			if fail && k == 3 {
				return bad
			}
			return a.Assemble(one, dofs, dofs)
		}
		target.Start(1, 1, 4, 1, 1)
		_, err := ParallelMatrix(target, workers, 4, element)
		assert.ErrorIs(t, err, bad)
		for _, w := range workers {
			assert.Equal(t, 0, w.Buffer().Count())
		}
		fail = false
		target.Start(1, 1, 4, 1, 1)
		S, err := ParallelMatrix(target, workers, 4, element)
		require.NoError(t, err)
		assert.Equal(t, 4., S.At(0, 0))
	}
	{ // Vector and reduced workers are zeroed after a failed run
		fail = true
		vTarget := NewVector()
		vWorkers := []*Vector{NewVector(), NewVector()}
		for _, w := range vWorkers {
			w.Start(1)
		}
		vElement := func(np int, a *Vector, k int) error {
			if fail && k == 3 {
				return bad
			}
			return a.Assemble(mat.NewVecDense(1, []float64{1}), dofs)
		}
		T := mat.NewDense(1, 1, []float64{1})
		rTarget := NewReduced(T)
		rWorkers := []*Reduced{NewReduced(T), NewReduced(T)}
		for _, w := range rWorkers {
			w.Start()
		}
		rElement := func(np int, a *Reduced, k int) error {
			if fail && k == 3 {
				return bad
			}
			return a.Assemble(one, dofs, dofs)
		}
		vTarget.Start(1)
		_, err := ParallelVector(vTarget, vWorkers, 4, vElement)
		assert.ErrorIs(t, err, bad)
		rTarget.Start()
		_, err = ParallelReduced(rTarget, rWorkers, 4, rElement)
		assert.ErrorIs(t, err, bad)

		fail = false
		vTarget.Start(1)
		F, err := ParallelVector(vTarget, vWorkers, 4, vElement)
		require.NoError(t, err)
		assert.Equal(t, 4., F.AtVec(0))
		rTarget.Start()
		A, err := ParallelReduced(rTarget, rWorkers, 4, rElement)
		require.NoError(t, err)
		assert.Equal(t, 4., A.At(0, 0))
	}
}
