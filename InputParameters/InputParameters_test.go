package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	{
		ip := NewAssemblyParameters()
		require.NoError(t, ip.Parse([]byte(`
Title: Coarse
Nx: 4
Stiffness: general
Workers: 3
CapacityFactor: 0.25
ReducedModes: 2
`)))
		assert.Equal(t, "Coarse", ip.Title)
		assert.Equal(t, 4, ip.Nx)
		assert.Equal(t, 16, ip.Ny) // default kept
		assert.Equal(t, "general", ip.Stiffness)
		assert.Equal(t, "hrz", ip.Lumping)
		assert.Equal(t, 3, ip.Workers)
		assert.Equal(t, 0.25, ip.CapacityFactor)
		assert.Equal(t, 2, ip.ReducedModes)
		ip.Print()
	}
	{
		ip := NewAssemblyParameters()
		assert.Error(t, ip.Parse([]byte("Lx: -1\n")))
		ip = NewAssemblyParameters()
		assert.Error(t, ip.Parse([]byte("Nx: 0\n")))
		ip = NewAssemblyParameters()
		assert.Error(t, ip.Parse([]byte("Nx: 1\nNy: 1\n")))
		ip = NewAssemblyParameters()
		assert.NoError(t, ip.Parse([]byte("Nx: 2\nNy: 2\n")))
		ip = NewAssemblyParameters()
		assert.Error(t, ip.Parse([]byte("Nx: [1\n")))
	}
}
