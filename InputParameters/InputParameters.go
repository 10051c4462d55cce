package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type AssemblyParameters struct {
	Title          string  `yaml:"Title"`
	Nx             int     `yaml:"Nx"`
	Ny             int     `yaml:"Ny"`
	Lx             float64 `yaml:"Lx"`
	Ly             float64 `yaml:"Ly"`
	Stiffness      string  `yaml:"Stiffness"` // symmetric or general
	Lumping        string  `yaml:"Lumping"`   // hrz or diagonal
	Workers        int     `yaml:"Workers"`
	CapacityFactor float64 `yaml:"CapacityFactor"`
	ReducedModes   int     `yaml:"ReducedModes"`
}

func NewAssemblyParameters() *AssemblyParameters {
	return &AssemblyParameters{
		Title:          "Poisson block",
		Nx:             16,
		Ny:             16,
		Lx:             1,
		Ly:             1,
		Stiffness:      "symmetric",
		Lumping:        "hrz",
		Workers:        1,
		CapacityFactor: 1,
	}
}

// Parse overlays the YAML document on the receiver, so fields absent from
// the file keep their current values.
func (ip *AssemblyParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	return ip.Validate()
}

func (ip *AssemblyParameters) Validate() (err error) {
	switch {
	case ip.Nx < 2 || ip.Ny < 2:
		// a single cell in either direction leaves no interior vertex to solve for
		err = fmt.Errorf("mesh resolution must be at least 2: Nx, Ny = %d, %d", ip.Nx, ip.Ny)
	case ip.Lx <= 0 || ip.Ly <= 0:
		err = fmt.Errorf("domain extent must be positive: Lx, Ly = %v, %v", ip.Lx, ip.Ly)
	case ip.CapacityFactor <= 0:
		err = fmt.Errorf("capacity factor must be positive: %v", ip.CapacityFactor)
	case ip.ReducedModes < 0:
		err = fmt.Errorf("reduced modes must not be negative: %d", ip.ReducedModes)
	}
	return
}

func (ip *AssemblyParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d x %d]\t\t= Mesh cells\n", ip.Nx, ip.Ny)
	fmt.Printf("[%8.5f x %8.5f]\t= Domain\n", ip.Lx, ip.Ly)
	fmt.Printf("[%s]\t\t= Stiffness assembler\n", ip.Stiffness)
	fmt.Printf("[%s]\t\t\t= Mass lumping\n", ip.Lumping)
	fmt.Printf("[%d]\t\t\t= Workers\n", ip.Workers)
	fmt.Printf("%8.5f\t\t= Capacity factor\n", ip.CapacityFactor)
	fmt.Printf("[%d]\t\t\t= Reduced modes\n", ip.ReducedModes)
}
