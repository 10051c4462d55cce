package mesh

import (
	"fmt"
	"math"
)

// TriMesh is a linear triangle mesh. Vertex numbers in EToV are 0-based.
type TriMesh struct {
	X, Y     []float64
	EToV     [][3]int
	Boundary []bool // vertex lies on the outer boundary
}

func (tm *TriMesh) NumVertices() int { return len(tm.X) }

func (tm *TriMesh) NumElements() int { return len(tm.EToV) }

// NewBlock2D meshes the rectangle [0,lx]x[0,ly] with nx*ny cells, each
// split into two counter-clockwise triangles.
func NewBlock2D(nx, ny int, lx, ly float64) (tm *TriMesh, err error) {
	if nx < 1 || ny < 1 || lx <= 0 || ly <= 0 {
		err = fmt.Errorf("invalid block: nx, ny = %d, %d; lx, ly = %v, %v", nx, ny, lx, ly)
		return
	}
	var (
		nv  = (nx + 1) * (ny + 1)
		vid = func(i, j int) int { return j*(nx+1) + i }
	)
	tm = &TriMesh{
		X:        make([]float64, nv),
		Y:        make([]float64, nv),
		EToV:     make([][3]int, 0, 2*nx*ny),
		Boundary: make([]bool, nv),
	}
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			v := vid(i, j)
			tm.X[v] = lx * float64(i) / float64(nx)
			tm.Y[v] = ly * float64(j) / float64(ny)
			tm.Boundary[v] = i == 0 || j == 0 || i == nx || j == ny
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v00, v10, v01, v11 := vid(i, j), vid(i+1, j), vid(i, j+1), vid(i+1, j+1)
			tm.EToV = append(tm.EToV, [3]int{v00, v10, v11}, [3]int{v00, v11, v01})
		}
	}
	return
}

// Area returns the signed area of element k, positive for counter-clockwise
// vertex order.
func (tm *TriMesh) Area(k int) float64 {
	var (
		v      = tm.EToV[k]
		x1, y1 = tm.X[v[0]], tm.Y[v[0]]
		x2, y2 = tm.X[v[1]], tm.Y[v[1]]
		x3, y3 = tm.X[v[2]], tm.Y[v[2]]
	)
	return 0.5 * ((x2-x1)*(y3-y1) - (x3-x1)*(y2-y1))
}

func (tm *TriMesh) Centroid(k int) (x, y float64) {
	v := tm.EToV[k]
	for _, n := range v {
		x += tm.X[n]
		y += tm.Y[n]
	}
	return x / 3, y / 3
}

// TotalArea sums the absolute element areas.
func (tm *TriMesh) TotalArea() (area float64) {
	for k := range tm.EToV {
		area += math.Abs(tm.Area(k))
	}
	return
}
