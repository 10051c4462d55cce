package utils

import (
	"fmt"
)

// Index holds integer indices. For assembly it carries local-to-global DOF
// maps, which are 1-based: values <= 0 mark eliminated (constrained) DOFs.
type Index []int

func NewIndex(N int) (I Index) {
	return make(Index, N)
}

func (I Index) Equal(J Index) bool {
	if len(I) != len(J) {
		return false
	}
	for i, val := range I {
		if J[i] != val {
			return false
		}
	}
	return true
}

// Validate checks that every entry is either an elimination sentinel (<= 0)
// or a DOF number not larger than limit.
func (I Index) Validate(limit int) (err error) {
	for i, val := range I {
		if val > limit {
			err = fmt.Errorf("dof map entry %d = %d exceeds number of dofs %d", i, val, limit)
			return
		}
	}
	return
}
