package Poisson2D

import (
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/feassemble/mesh"
)

// elementKernel holds per-element scratch so the element loop does not
// allocate. One kernel per worker.
type elementKernel struct {
	K, M *mat.Dense
	F    *mat.VecDense
}

func newElementKernel() *elementKernel {
	return &elementKernel{
		K: mat.NewDense(3, 3, nil),
		M: mat.NewDense(3, 3, nil),
		F: mat.NewVecDense(3, nil),
	}
}

// stiffness fills K with the linear triangle Laplacian:
// K_ij = (b_i*b_j + c_i*c_j) / (4A)
func (ek *elementKernel) stiffness(tm *mesh.TriMesh, k int) {
	var (
		v    = tm.EToV[k]
		x1   = tm.X[v[0]]
		x2   = tm.X[v[1]]
		x3   = tm.X[v[2]]
		y1   = tm.Y[v[0]]
		y2   = tm.Y[v[1]]
		y3   = tm.Y[v[2]]
		b    = [3]float64{y2 - y3, y3 - y1, y1 - y2}
		c    = [3]float64{x3 - x2, x1 - x3, x2 - x1}
		area = tm.Area(k)
	)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ek.K.Set(i, j, (b[i]*b[j]+c[i]*c[j])/(4*area))
		}
	}
}

// mass fills M with the consistent linear triangle mass matrix.
func (ek *elementKernel) mass(tm *mesh.TriMesh, k int) {
	a := tm.Area(k) / 12
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i == j {
				ek.M.Set(i, j, 2*a)
			} else {
				ek.M.Set(i, j, a)
			}
		}
	}
}

// load fills F with a one point (centroid) quadrature of the source.
func (ek *elementKernel) load(tm *mesh.TriMesh, k int, source func(x, y float64) float64) {
	x, y := tm.Centroid(k)
	f := source(x, y) * tm.Area(k) / 3
	for i := 0; i < 3; i++ {
		ek.F.SetVec(i, f)
	}
}
