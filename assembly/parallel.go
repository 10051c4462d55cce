package assembly

import (
	"fmt"
	"sync"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/feassemble/utils"
)

// ElementFunc computes the contribution of element k and assembles it into
// a, the assembler owned by worker np. Worker scratch can be indexed by np.
type ElementFunc[A any] func(np int, a A, k int) error

// runPartitioned splits [0, nElems) over the workers, one goroutine per
// worker, and returns the first error in worker order.
func runPartitioned[A any](workers []A, nElems int, element ElementFunc[A]) (err error) {
	var (
		NP   = len(workers)
		pm   = utils.NewPartitionMap(NP, nElems)
		errs = make([]error, NP)
		wg   = sync.WaitGroup{}
	)
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			kMin, kMax := pm.GetBucketRange(np)
			for k := kMin; k < kMax; k++ {
				if e := element(np, workers[np], k); e != nil {
					errs[np] = fmt.Errorf("element %d: %w", k, e)
					return
				}
			}
		}(np)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return
}

// ParallelMatrix runs the element loop over len(workers) goroutines, each
// assembling into its own started assembler, then merges the worker
// triplets into target and finalizes target once. Worker buffers are rewound
// on every return, so a failed run can be retried with the same workers. Duplicate summation makes the result independent of the
// split.
func ParallelMatrix[A MatrixAssembler](target A, workers []A, nElems int,
	element ElementFunc[A]) (S *sparse.CSR, err error) {
	if len(workers) == 0 {
		err = fmt.Errorf("parallel matrix: no workers: %w", ErrConfiguration)
		return
	}
	nr, nc := target.Dims()
	for _, w := range workers {
		if !w.Buffer().Started() {
			err = fmt.Errorf("parallel matrix: worker: %w", ErrConfiguration)
			return
		}
		if wr, wc := w.Dims(); wr != nr || wc != nc {
			err = fmt.Errorf("parallel matrix: worker is %dx%d, target is %dx%d: %w",
				wr, wc, nr, nc, ErrDimensionMismatch)
			return
		}
	}
	defer func() {
		for _, w := range workers {
			w.Buffer().Reset()
		}
	}()
	if err = runPartitioned(workers, nElems, element); err != nil {
		return
	}
	for _, w := range workers {
		if err = target.Buffer().Merge(w.Buffer()); err != nil {
			return
		}
	}
	return target.Finalize()
}

// ParallelVector is the Vector counterpart of ParallelMatrix; worker
// vectors are summed into target before it is finalized, then zeroed.
func ParallelVector(target *Vector, workers []*Vector, nElems int,
	element ElementFunc[*Vector]) (F *mat.VecDense, err error) {
	if len(workers) == 0 {
		err = fmt.Errorf("parallel vector: no workers: %w", ErrConfiguration)
		return
	}
	defer func() {
		for _, w := range workers {
			if w.started {
				w.Start(w.ndofs)
			}
		}
	}()
	if err = runPartitioned(workers, nElems, element); err != nil {
		return
	}
	for _, w := range workers {
		if err = target.merge(w); err != nil {
			return
		}
	}
	return target.Finalize()
}

// ParallelReduced sums per-worker reduced accumulators into target. Started
// workers are zeroed on return.
func ParallelReduced(target *Reduced, workers []*Reduced, nElems int,
	element ElementFunc[*Reduced]) (A *mat.Dense, err error) {
	if len(workers) == 0 {
		err = fmt.Errorf("parallel reduced: no workers: %w", ErrConfiguration)
		return
	}
	defer func() {
		for _, w := range workers {
			if w.started {
				w.Start()
			}
		}
	}()
	if err = runPartitioned(workers, nElems, element); err != nil {
		return
	}
	for _, w := range workers {
		if err = target.merge(w); err != nil {
			return
		}
	}
	return target.Finalize()
}
