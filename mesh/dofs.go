package mesh

import (
	"fmt"

	"github.com/notargets/feassemble/utils"
)

// DOFMap numbers one scalar unknown per vertex. Free vertices get 1..NFree.
// Fixed vertices get 0 so assembly drops them, or NFree+1..NTotal when they
// are retained for a free/prescribed block split.
type DOFMap struct {
	VertexDOF utils.Index
	NFree     int
	NTotal    int
}

func NewDOFMap(fixed []bool, retainFixed bool) (dm *DOFMap) {
	dm = &DOFMap{VertexDOF: utils.NewIndex(len(fixed))}
	for v, isFixed := range fixed {
		if !isFixed {
			dm.NFree++
			dm.VertexDOF[v] = dm.NFree
		}
	}
	dm.NTotal = dm.NFree
	if retainFixed {
		for v, isFixed := range fixed {
			if isFixed {
				dm.NTotal++
				dm.VertexDOF[v] = dm.NTotal
			}
		}
	}
	return
}

// ElementDOFs returns the DOF map of element k.
func (dm *DOFMap) ElementDOFs(tm *TriMesh, k int) (dofs utils.Index) {
	dofs = utils.NewIndex(3)
	for i, v := range tm.EToV[k] {
		dofs[i] = dm.VertexDOF[v]
	}
	return
}

// Validate checks that the numbering covers every vertex of tm and that no
// element map addresses a DOF beyond NTotal.
func (dm *DOFMap) Validate(tm *TriMesh) (err error) {
	if len(dm.VertexDOF) != tm.NumVertices() {
		err = fmt.Errorf("dof map numbers %d vertices, mesh has %d", len(dm.VertexDOF), tm.NumVertices())
		return
	}
	for k := 0; k < tm.NumElements(); k++ {
		if err = dm.ElementDOFs(tm, k).Validate(dm.NTotal); err != nil {
			err = fmt.Errorf("element %d: %w", k, err)
			return
		}
	}
	return
}
