/*
ff-timecourse runs many independent stochastic folding trajectories over
the same starting sequence and structure, classifies each sampled
structure against a macrostate registry, and prints the resulting
occupancy curve. It is a thin front-end over packages ssa, macrostate,
and timeline.
*/
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/fuzzyfold/foldkinetics/energy_params"
	"github.com/fuzzyfold/foldkinetics/energymodel"
	"github.com/fuzzyfold/foldkinetics/internal/runinput"
	"github.com/fuzzyfold/foldkinetics/loopstructure"
	"github.com/fuzzyfold/foldkinetics/macrostate"
	"github.com/fuzzyfold/foldkinetics/ratemodel"
	"github.com/fuzzyfold/foldkinetics/ssa"
	"github.com/fuzzyfold/foldkinetics/timeline"
)

func main() {
	run(os.Args)
}

func run(args []string) {
	if err := application().Run(args); err != nil {
		log.Fatal(err)
	}
}

func application() *cli.App {
	return &cli.App{
		Name:  "ff-timecourse",
		Usage: "Run many folding trajectories and report macrostate occupancy over time.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "i",
				Usage: "Input file: a '>name' header, a sequence line, and a starting dot-bracket structure line.",
			},
			&cli.StringSliceFlag{
				Name:  "macrostate",
				Usage: "Path to a macrostate file (repeatable). Each adds one named macrostate.",
			},
			&cli.Float64Flag{
				Name:  "celsius",
				Value: 37,
				Usage: "Simulation temperature in degrees Celsius.",
			},
			&cli.Float64Flag{
				Name:  "k0",
				Value: 1e6,
				Usage: "Metropolis base rate constant.",
			},
			&cli.Float64Flag{
				Name:  "tmax",
				Value: 1.0,
				Usage: "Simulated time at which each trajectory stops.",
			},
			&cli.IntFlag{
				Name:  "samples",
				Value: 10,
				Usage: "Number of evenly-spaced sampling times between 0 and tmax.",
			},
			&cli.IntFlag{
				Name:  "trajectories",
				Value: 100,
				Usage: "Number of independent trajectories to run and merge.",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Value: 1,
				Usage: "Random seed for the first trajectory; trajectory n uses seed+n.",
			},
		},
		Action: func(c *cli.Context) error {
			return timecourseCommand(c)
		},
	}
}

func timecourseCommand(c *cli.Context) error {
	path := c.String("i")
	if path == "" {
		return fmt.Errorf("ff-timecourse: -i input file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ff-timecourse: %w", err)
	}
	defer f.Close()

	in, err := runinput.Parse(f, path)
	if err != nil {
		return err
	}

	celsius := c.Float64("celsius")
	model := energymodel.NewTurnerModel(energy_params.NewEnergyParams(energy_params.Turner2004, celsius))
	rm := ratemodel.NewMetropolis(celsius, c.Float64("k0"))

	registry := macrostate.NewRegistry()
	for _, mpath := range c.StringSlice("macrostate") {
		mf, err := os.Open(mpath)
		if err != nil {
			return fmt.Errorf("ff-timecourse: %w", err)
		}
		err = registry.Load(mf, mpath, in.Seq, model, celsius)
		mf.Close()
		if err != nil {
			return err
		}
	}

	tMax := c.Float64("tmax")
	samples := c.Int("samples")
	times := make([]float64, samples)
	for i := range times {
		times[i] = tMax * float64(i+1) / float64(samples)
	}

	merged := timeline.New(times, registry)
	seed := c.Int64("seed")
	for n := 0; n < c.Int("trajectories"); n++ {
		ls := loopstructure.New(in.Seq, in.PairTable, model)
		sim := ssa.New(ls, rm)
		rng := rand.New(rand.NewSource(seed + int64(n)))

		tl := timeline.New(times, registry)
		rec := timeline.NewRecorder(tl)
		sim.Simulate(rng, tMax, func(t, tau, flux float64, ls *loopstructure.LoopStructure) bool {
			// ls holds from t until t+tau, when the next move is applied.
			return rec.Observe(t+tau, ls)
		})
		// Flux may vanish before tMax; the structure is frozen from then
		// on, so flush any sampling times the last event never reached.
		rec.Observe(tMax, ls)
		merged.Merge(tl)
	}

	var sb strings.Builder
	if err := merged.WriteOccupancies(&sb); err != nil {
		return fmt.Errorf("ff-timecourse: %w", err)
	}
	fmt.Print(sb.String())
	return nil
}
