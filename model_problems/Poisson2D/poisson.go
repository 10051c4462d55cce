package Poisson2D

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/feassemble/assembly"
	"github.com/notargets/feassemble/mesh"
	"github.com/notargets/feassemble/utils"
)

type StiffnessType uint8

const (
	SymmetricStiffness StiffnessType = iota
	GeneralStiffness
)

var (
	StiffnessNames = map[string]StiffnessType{
		"symmetric": SymmetricStiffness,
		"general":   GeneralStiffness,
	}
	StiffnessPrintNames = []string{"Symmetric", "General"}
)

func NewStiffnessType(label string) (st StiffnessType) {
	var (
		ok  bool
		err error
	)
	label = strings.ToLower(strings.TrimSpace(label))
	if st, ok = StiffnessNames[label]; !ok {
		err = fmt.Errorf("unable to use stiffness assembler named %s", label)
		panic(err)
	}
	return
}

func (st StiffnessType) Print() string { return StiffnessPrintNames[st] }

type LumpingType uint8

const (
	HRZLumping LumpingType = iota
	DiagonalLumping
)

var (
	LumpingNames = map[string]LumpingType{
		"hrz":      HRZLumping,
		"diagonal": DiagonalLumping,
	}
	LumpingPrintNames = []string{"HRZ", "Diagonal"}
)

func NewLumpingType(label string) (lt LumpingType) {
	var (
		ok  bool
		err error
	)
	label = strings.ToLower(strings.TrimSpace(label))
	if lt, ok = LumpingNames[label]; !ok {
		err = fmt.Errorf("unable to use lumping named %s", label)
		panic(err)
	}
	return
}

func (lt LumpingType) Print() string { return LumpingPrintNames[lt] }

// Poisson solves -laplacian(u) = f on a rectangle with u = 0 on the
// boundary, using the manufactured solution u = sin(pi x/lx) sin(pi y/ly).
// Boundary vertices carry DOF 0 and are eliminated during assembly.
type Poisson struct {
	Mesh      *mesh.TriMesh
	DOFs      *mesh.DOFMap
	Lx, Ly    float64
	Stiffness StiffnessType
	Lumping   LumpingType
	Workers   int
	// CapacityFactor scales the element count used to size triplet buffers;
	// below one the buffers grow during assembly.
	CapacityFactor float64
	Logger         *log.Logger
	Stats          Stats
}

type Stats struct {
	NElements       int
	NDofs           int
	NNZ             int
	Growths         int
	LumpedMassTotal float64
	LoadTotal       float64
	ReactionTotal   float64
	MaxError        float64
	ReducedMaxError float64
	AssemblyTime    time.Duration
	SolveTime       time.Duration
}

func NewPoisson(nx, ny int, lx, ly float64, stiffness StiffnessType, lumping LumpingType) (p *Poisson, err error) {
	var (
		tm *mesh.TriMesh
	)
	if tm, err = mesh.NewBlock2D(nx, ny, lx, ly); err != nil {
		return
	}
	p = &Poisson{
		Mesh:           tm,
		DOFs:           mesh.NewDOFMap(tm.Boundary, false),
		Lx:             lx,
		Ly:             ly,
		Stiffness:      stiffness,
		Lumping:        lumping,
		Workers:        1,
		CapacityFactor: 1,
	}
	if err = p.DOFs.Validate(tm); err != nil {
		return
	}
	p.Stats.NElements = tm.NumElements()
	p.Stats.NDofs = p.DOFs.NFree
	return
}

func (p *Poisson) Exact(x, y float64) float64 {
	return math.Sin(math.Pi*x/p.Lx) * math.Sin(math.Pi*y/p.Ly)
}

func (p *Poisson) Source(x, y float64) float64 {
	return math.Pi * math.Pi * (1/(p.Lx*p.Lx) + 1/(p.Ly*p.Ly)) * p.Exact(x, y)
}

func (p *Poisson) options() (opts []assembly.Option) {
	if p.Logger != nil {
		opts = append(opts, assembly.WithLogger(p.Logger))
	}
	return
}

func (p *Poisson) workerCount() int {
	if p.Workers < 1 {
		return 1
	}
	return p.Workers
}

// elementEstimate is the per-assembler element count used to size buffers.
func (p *Poisson) elementEstimate(workers int) int {
	est := int(p.CapacityFactor * float64(p.Mesh.NumElements()) / float64(workers))
	if est < 1 {
		est = 1
	}
	return est
}

// AssembleStiffness assembles the Laplacian on the free DOFs. With more than
// one worker each goroutine fills its own assembler and the triplets are
// merged before a single build.
func (p *Poisson) AssembleStiffness() (K *sparse.CSR, err error) {
	return p.assembleStiffness(p.DOFs)
}

func (p *Poisson) assembleStiffness(dm *mesh.DOFMap) (K *sparse.CSR, err error) {
	var (
		NP      = p.workerCount()
		n       = dm.NTotal
		kernels = make([]*elementKernel, NP)
	)
	for np := range kernels {
		kernels[np] = newElementKernel()
	}
	switch p.Stiffness {
	case GeneralStiffness:
		target := assembly.NewGeneral(p.options()...)
		target.Start(3, 3, p.elementEstimate(1), n, n)
		if NP == 1 {
			for k := 0; k < p.Mesh.NumElements(); k++ {
				kernels[0].stiffness(p.Mesh, k)
				dofs := dm.ElementDOFs(p.Mesh, k)
				if err = target.Assemble(kernels[0].K, dofs, dofs); err != nil {
					return
				}
			}
			p.Stats.Growths += target.Buffer().Growths
			return target.Finalize()
		}
		workers := make([]*assembly.General, NP)
		for np := range workers {
			workers[np] = assembly.NewGeneral(append(p.options(), assembly.NoMatrixResult(true))...)
			workers[np].Start(3, 3, p.elementEstimate(NP), n, n)
		}
		K, err = assembly.ParallelMatrix(target, workers, p.Mesh.NumElements(),
			func(np int, a *assembly.General, k int) error {
				kernels[np].stiffness(p.Mesh, k)
				dofs := dm.ElementDOFs(p.Mesh, k)
				return a.Assemble(kernels[np].K, dofs, dofs)
			})
		for _, w := range workers {
			p.Stats.Growths += w.Buffer().Growths
		}
	default:
		target := assembly.NewSymmetric(p.options()...)
		target.Start(3, p.elementEstimate(1), n)
		if NP == 1 {
			for k := 0; k < p.Mesh.NumElements(); k++ {
				kernels[0].stiffness(p.Mesh, k)
				if err = target.Assemble(kernels[0].K, dm.ElementDOFs(p.Mesh, k)); err != nil {
					return
				}
			}
			p.Stats.Growths += target.Buffer().Growths
			return target.Finalize()
		}
		workers := make([]*assembly.Symmetric, NP)
		for np := range workers {
			workers[np] = assembly.NewSymmetric(append(p.options(), assembly.NoMatrixResult(true))...)
			workers[np].Start(3, p.elementEstimate(NP), n)
		}
		K, err = assembly.ParallelMatrix(target, workers, p.Mesh.NumElements(),
			func(np int, a *assembly.Symmetric, k int) error {
				kernels[np].stiffness(p.Mesh, k)
				return a.Assemble(kernels[np].K, dm.ElementDOFs(p.Mesh, k))
			})
		for _, w := range workers {
			p.Stats.Growths += w.Buffer().Growths
		}
	}
	return
}

// AssembleLumpedMass lumps the consistent mass matrix onto the diagonal
// using the numbering in dm.
func (p *Poisson) AssembleLumpedMass(dm *mesh.DOFMap) (M *sparse.CSR, err error) {
	var (
		ek = newElementKernel()
		a  interface {
			Assemble(mat.Matrix, utils.Index) error
			Finalize() (*sparse.CSR, error)
		}
	)
	switch p.Lumping {
	case DiagonalLumping:
		d := assembly.NewDiagonal(p.options()...)
		d.Start(3, p.elementEstimate(1), dm.NTotal)
		a = d
	default:
		h := assembly.NewHRZ(p.options()...)
		h.Start(3, p.elementEstimate(1), dm.NTotal)
		a = h
	}
	for k := 0; k < p.Mesh.NumElements(); k++ {
		ek.mass(p.Mesh, k)
		if err = a.Assemble(ek.M, dm.ElementDOFs(p.Mesh, k)); err != nil {
			return
		}
	}
	return a.Finalize()
}

func (p *Poisson) AssembleLoad() (F *mat.VecDense, err error) {
	return p.assembleLoad(p.DOFs)
}

func (p *Poisson) assembleLoad(dm *mesh.DOFMap) (F *mat.VecDense, err error) {
	var (
		NP      = p.workerCount()
		kernels = make([]*elementKernel, NP)
		target  = assembly.NewVector()
		workers = make([]*assembly.Vector, NP)
	)
	target.Start(dm.NTotal)
	for np := range workers {
		kernels[np] = newElementKernel()
		workers[np] = assembly.NewVector()
		workers[np].Start(dm.NTotal)
	}
	return assembly.ParallelVector(target, workers, p.Mesh.NumElements(),
		func(np int, a *assembly.Vector, k int) error {
			kernels[np].load(p.Mesh, k, p.Source)
			return a.Assemble(kernels[np].F, dm.ElementDOFs(p.Mesh, k))
		})
}

// ReducedBasis samples the first modes sin(a pi x/lx) sin(b pi y/ly),
// ordered by a+b, at the free DOFs. The result is NFree x modes.
func (p *Poisson) ReducedBasis(modes int) (T *mat.Dense, err error) {
	if modes < 1 || modes > p.DOFs.NFree {
		err = fmt.Errorf("number of reduced modes %d must be in 1..%d", modes, p.DOFs.NFree)
		return
	}
	var (
		pairs [][2]int
	)
	for s := 2; len(pairs) < modes; s++ {
		for a := 1; a < s && len(pairs) < modes; a++ {
			pairs = append(pairs, [2]int{a, s - a})
		}
	}
	T = mat.NewDense(p.DOFs.NFree, modes, nil)
	for v, dof := range p.DOFs.VertexDOF {
		if dof < 1 {
			continue
		}
		x, y := p.Mesh.X[v], p.Mesh.Y[v]
		for m, ab := range pairs {
			T.Set(dof-1, m, math.Sin(float64(ab[0])*math.Pi*x/p.Lx)*math.Sin(float64(ab[1])*math.Pi*y/p.Ly))
		}
	}
	return
}

func (p *Poisson) AssembleReduced(T *mat.Dense) (Kr *mat.Dense, err error) {
	var (
		NP      = p.workerCount()
		kernels = make([]*elementKernel, NP)
		target  = assembly.NewReduced(T)
		workers = make([]*assembly.Reduced, NP)
	)
	target.Start()
	for np := range workers {
		kernels[np] = newElementKernel()
		workers[np] = assembly.NewReduced(T)
		workers[np].Start()
	}
	return assembly.ParallelReduced(target, workers, p.Mesh.NumElements(),
		func(np int, a *assembly.Reduced, k int) error {
			kernels[np].stiffness(p.Mesh, k)
			dofs := p.DOFs.ElementDOFs(p.Mesh, k)
			return a.Assemble(kernels[np].K, dofs, dofs)
		})
}

// Solve assembles and solves the full system, then the reduced one when
// reducedModes > 0, recording errors against the exact solution.
func (p *Poisson) Solve(reducedModes int) (U *mat.VecDense, err error) {
	var (
		K     *sparse.CSR
		F     *mat.VecDense
		M     *sparse.CSR
		start = time.Now()
	)
	if p.DOFs.NFree == 0 {
		err = fmt.Errorf("mesh of %d elements has no free dofs", p.Stats.NElements)
		return
	}
	if K, err = p.AssembleStiffness(); err != nil {
		return
	}
	if F, err = p.AssembleLoad(); err != nil {
		return
	}
	if M, err = p.AssembleLumpedMass(mesh.NewDOFMap(p.Mesh.Boundary, true)); err != nil {
		return
	}
	p.Stats.AssemblyTime = time.Since(start)
	p.Stats.NNZ = K.NNZ()
	p.Stats.LumpedMassTotal = 0
	M.DoNonZero(func(i, j int, v float64) { p.Stats.LumpedMassTotal += v })

	start = time.Now()
	if U, err = solveSPD(K.ToDense(), F); err != nil {
		return
	}
	p.Stats.SolveTime = time.Since(start)
	if utils.IsNan(U) {
		err = fmt.Errorf("NaN in solution")
		return
	}
	p.Stats.MaxError = p.maxError(U)
	if err = p.recordReaction(U); err != nil {
		return
	}
	if reducedModes > 0 {
		var (
			T  *mat.Dense
			Kr *mat.Dense
			q  *mat.VecDense
		)
		if T, err = p.ReducedBasis(reducedModes); err != nil {
			return
		}
		if Kr, err = p.AssembleReduced(T); err != nil {
			return
		}
		Fr := mat.NewVecDense(reducedModes, nil)
		Fr.MulVec(T.T(), F)
		if q, err = solveSPD(Kr, Fr); err != nil {
			return
		}
		Ur := mat.NewVecDense(p.DOFs.NFree, nil)
		Ur.MulVec(T, q)
		p.Stats.ReducedMaxError = p.maxError(Ur)
	}
	if p.Logger != nil {
		p.Logger.Printf("%d elements, %d dofs, nnz = %d, max error = %8.5f, boundary reaction = %8.5f",
			p.Stats.NElements, p.Stats.NDofs, p.Stats.NNZ, p.Stats.MaxError, p.Stats.ReactionTotal)
	}
	return
}

// BoundaryReaction assembles stiffness and load over all vertices, numbered
// free-first, splits them into free and prescribed blocks and returns the
// reaction K_df u_f - F_d at the boundary DOFs, for boundary values of zero.
// It also returns the assembled load over all vertices.
func (p *Poisson) BoundaryReaction(U mat.Vector) (R, F *mat.VecDense, err error) {
	var (
		all = mesh.NewDOFMap(p.Mesh.Boundary, true)
		K   *sparse.CSR
		Kdf *sparse.CSR
		Fd  *mat.VecDense
	)
	if err = all.Validate(p.Mesh); err != nil {
		return
	}
	if U.Len() != all.NFree {
		err = fmt.Errorf("solution has %d entries, mesh has %d free dofs", U.Len(), all.NFree)
		return
	}
	if K, err = p.assembleStiffness(all); err != nil {
		return
	}
	if F, err = p.assembleLoad(all); err != nil {
		return
	}
	if _, _, Kdf, _, err = assembly.MatrixBlocks(K, all.NFree); err != nil {
		return
	}
	if _, Fd, err = assembly.VectorBlocks(F, all.NFree); err != nil {
		return
	}
	if Kdf == nil || Fd == nil {
		err = fmt.Errorf("mesh has no free or no prescribed dofs")
		return
	}
	R = mat.NewVecDense(Fd.Len(), nil)
	R.MulVec(Kdf, U)
	R.SubVec(R, Fd)
	return
}

func (p *Poisson) recordReaction(U mat.Vector) (err error) {
	var R, F *mat.VecDense
	if R, F, err = p.BoundaryReaction(U); err != nil {
		return
	}
	p.Stats.ReactionTotal = floats.Sum(R.RawVector().Data)
	p.Stats.LoadTotal = floats.Sum(F.RawVector().Data)
	return
}

func (p *Poisson) maxError(U *mat.VecDense) (e float64) {
	for v, dof := range p.DOFs.VertexDOF {
		if dof < 1 {
			continue
		}
		e = math.Max(e, math.Abs(U.AtVec(dof-1)-p.Exact(p.Mesh.X[v], p.Mesh.Y[v])))
	}
	return
}

func solveSPD(A mat.Matrix, b mat.Vector) (x *mat.VecDense, err error) {
	var (
		n, _ = A.Dims()
		sym  = mat.NewSymDense(n, nil)
		chol mat.Cholesky
	)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, A.At(i, j))
		}
	}
	if ok := chol.Factorize(sym); !ok {
		err = fmt.Errorf("system matrix is not positive definite")
		return
	}
	x = mat.NewVecDense(n, nil)
	err = chol.SolveVecTo(x, b)
	return
}
