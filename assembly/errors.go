package assembly

import "errors"

// Sentinel errors returned by the assemblers. Call sites wrap them with
// context using fmt.Errorf("...: %w", ErrX); match with errors.Is.
var (
	// ErrConfiguration is returned when Assemble or Finalize is called on an
	// assembler whose storage was never sized by Start.
	ErrConfiguration = errors.New("assembly: assembler not started")

	// ErrDimensionMismatch is returned when a local contribution disagrees
	// with its DOF maps, when a square contribution is required and not
	// supplied, or when two assemblers with different global sizes are merged.
	ErrDimensionMismatch = errors.New("assembly: dimension mismatch")

	// ErrSingularLumping is returned by the HRZ assembler when the diagonal
	// of a contribution sums to zero and no scale factor exists.
	ErrSingularLumping = errors.New("assembly: zero diagonal sum, cannot HRZ lump")
)
