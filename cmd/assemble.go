/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/feassemble/InputParameters"
	"github.com/notargets/feassemble/model_problems/Poisson2D"
	"github.com/notargets/feassemble/utils"
)

// Report summarizes one assembly run.
type Report struct {
	Title           string  `json:"title"`
	Stiffness       string  `json:"stiffness"`
	Lumping         string  `json:"lumping"`
	Workers         int     `json:"workers"`
	Elements        int     `json:"elements"`
	Dofs            int     `json:"dofs"`
	NNZ             int     `json:"nnz"`
	BufferGrowths   int     `json:"buffer_growths"`
	LumpedMass      float64 `json:"lumped_mass"`
	MaxError        float64 `json:"max_error"`
	LoadTotal       float64 `json:"load_total"`
	ReactionTotal   float64 `json:"reaction_total"`
	ReducedModes    int     `json:"reduced_modes"`
	ReducedMaxError float64 `json:"reduced_max_error,omitempty"`
	AssemblySeconds float64 `json:"assembly_seconds"`
	SolveSeconds    float64 `json:"solve_seconds"`
}

// AssembleCmd represents the assemble command
var AssembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble and solve a Poisson model problem on a block mesh",
	Long: `Assemble and solve a Poisson model problem on a block mesh, using the
symmetric or general stiffness assembler, HRZ or diagonal mass lumping and
optionally a reduced basis`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
			ip  *InputParameters.AssemblyParameters
			rpt *Report
		)
		fmt.Println("assemble called")
		if ip, err = processInput(cmd); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		ip.Print()
		switch prof, _ := cmd.Flags().GetString("profile"); prof {
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
		}
		logger := log.New(os.Stderr, "feassemble: ", log.LstdFlags)
		if rpt, err = RunAssembly(ip, logger); err != nil {
			logger.Printf("assembly failed: %v", err)
			os.Exit(1)
		}
		logger.Println(utils.GetMemUsage())
		reportFile, _ := cmd.Flags().GetString("report")
		if err = writeReport(rpt, reportFile); err != nil {
			logger.Printf("unable to write report: %v", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(AssembleCmd)
	AssembleCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Nx, Ny\n\t- Stiffness\n\t- Lumping")
	AssembleCmd.Flags().Int("nx", 16, "number of cells in x")
	AssembleCmd.Flags().Int("ny", 16, "number of cells in y")
	AssembleCmd.Flags().String("stiffness", "symmetric", "stiffness assembler: symmetric or general")
	AssembleCmd.Flags().String("lumping", "hrz", "mass lumping: hrz or diagonal")
	AssembleCmd.Flags().IntP("workers", "w", 1, "number of parallel assembly workers")
	AssembleCmd.Flags().Float64("capacityFactor", 1, "fraction of the element count used to size triplet buffers")
	AssembleCmd.Flags().Int("reducedModes", 0, "number of sine modes in the reduced basis, 0 to skip")
	AssembleCmd.Flags().StringP("report", "r", "", "write a JSON report to this file, - for stdout")
	AssembleCmd.Flags().String("profile", "", "profile the run: cpu or mem")
	for _, name := range flagKeys {
		if err := viper.BindPFlag(name, AssembleCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

var flagKeys = []string{"nx", "ny", "stiffness", "lumping", "workers", "capacityFactor", "reducedModes"}

// processInput reads the optional YAML input file, then applies values from
// the config file or command line, which take precedence.
func processInput(cmd *cobra.Command) (ip *InputParameters.AssemblyParameters, err error) {
	ip = InputParameters.NewAssemblyParameters()
	if icFile, _ := cmd.Flags().GetString("inputConditionsFile"); len(icFile) != 0 {
		var data []byte
		if data, err = os.ReadFile(icFile); err != nil {
			return
		}
		if err = ip.Parse(data); err != nil {
			return
		}
	}
	set := func(key string) bool {
		return cmd.Flags().Changed(key) || viper.InConfig(key)
	}
	if set("nx") {
		ip.Nx = viper.GetInt("nx")
	}
	if set("ny") {
		ip.Ny = viper.GetInt("ny")
	}
	if set("stiffness") {
		ip.Stiffness = viper.GetString("stiffness")
	}
	if set("lumping") {
		ip.Lumping = viper.GetString("lumping")
	}
	if set("workers") {
		ip.Workers = viper.GetInt("workers")
	}
	if set("capacityFactor") {
		ip.CapacityFactor = viper.GetFloat64("capacityFactor")
	}
	if set("reducedModes") {
		ip.ReducedModes = viper.GetInt("reducedModes")
	}
	err = ip.Validate()
	return
}

func RunAssembly(ip *InputParameters.AssemblyParameters, logger *log.Logger) (rpt *Report, err error) {
	var (
		p         *Poisson2D.Poisson
		stiffness Poisson2D.StiffnessType
		lumping   Poisson2D.LumpingType
	)
	if stiffness, lumping, err = parseTypes(ip); err != nil {
		return
	}
	if p, err = Poisson2D.NewPoisson(ip.Nx, ip.Ny, ip.Lx, ip.Ly, stiffness, lumping); err != nil {
		return
	}
	p.Workers = ip.Workers
	p.CapacityFactor = ip.CapacityFactor
	p.Logger = logger
	if _, err = p.Solve(ip.ReducedModes); err != nil {
		return
	}
	rpt = &Report{
		Title:           ip.Title,
		Stiffness:       stiffness.Print(),
		Lumping:         lumping.Print(),
		Workers:         p.Workers,
		Elements:        p.Stats.NElements,
		Dofs:            p.Stats.NDofs,
		NNZ:             p.Stats.NNZ,
		BufferGrowths:   p.Stats.Growths,
		LumpedMass:      p.Stats.LumpedMassTotal,
		MaxError:        p.Stats.MaxError,
		LoadTotal:       p.Stats.LoadTotal,
		ReactionTotal:   p.Stats.ReactionTotal,
		ReducedModes:    ip.ReducedModes,
		ReducedMaxError: p.Stats.ReducedMaxError,
		AssemblySeconds: p.Stats.AssemblyTime.Seconds(),
		SolveSeconds:    p.Stats.SolveTime.Seconds(),
	}
	return
}

// parseTypes converts the string selections, turning the panics of the
// model problem constructors into errors.
func parseTypes(ip *InputParameters.AssemblyParameters) (st Poisson2D.StiffnessType, lt Poisson2D.LumpingType, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	st = Poisson2D.NewStiffnessType(ip.Stiffness)
	lt = Poisson2D.NewLumpingType(ip.Lumping)
	return
}

func writeReport(rpt *Report, fileName string) (err error) {
	var data []byte
	if len(fileName) == 0 {
		fmt.Printf("%d elements, %d dofs, nnz = %d, growths = %d, max error = %8.5f, in %v\n",
			rpt.Elements, rpt.Dofs, rpt.NNZ, rpt.BufferGrowths, rpt.MaxError,
			time.Duration(rpt.AssemblySeconds*float64(time.Second)))
		return
	}
	if data, err = json.MarshalIndent(rpt, "", "  "); err != nil {
		return
	}
	if fileName == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return
	}
	return os.WriteFile(fileName, data, 0644)
}
