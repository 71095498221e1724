// Command platebench runs the simulation headless and reports step cost,
// field statistics and the accuracy of the tree approximation.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"

	"github.com/olivierh59500/plate-field-go/pkg/body"
	"github.com/olivierh59500/plate-field-go/pkg/config"
	"github.com/olivierh59500/plate-field-go/pkg/seed"
)

func main() {
	configPath := flag.String("config", "", "settings file; defaults when empty")
	preset := flag.String("preset", "disc", "starting scene: "+strings.Join(seed.Presets(), ", "))
	bodies := flag.Int("n", 5000, "body count for generated scenes")
	steps := flag.Int("steps", 100, "steps to run")
	workers := flag.Int("workers", 0, "parallel workers, 0 for GOMAXPROCS")
	thetaList := flag.String("thetas", "0.25,0.5,0.75,1,1.5", "theta values for the accuracy sweep")
	samples := flag.Int("samples", 256, "probe positions for the accuracy sweep")
	height := flag.Int("height", 10, "chart height")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	cfg.Scenario.Preset = *preset
	cfg.Scenario.Bodies = *bodies
	cfg.Workers = *workers

	thetas, err := parseThetas(*thetaList)
	if err != nil {
		log.Fatal(err)
	}

	sim, err := cfg.NewSimulation()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("preset %s: %d bodies, %d plates, theta %.2f, %d workers\n",
		cfg.Scenario.Preset, len(sim.Bodies), len(sim.Plates), cfg.Theta, sim.Workers)

	stats := runSteps(sim, *steps)
	if len(stats) > 0 {
		var total time.Duration
		for _, s := range stats {
			total += s.Duration
		}
		fmt.Printf("%d steps in %v (%v per step)\n\n", len(stats), total, total/time.Duration(len(stats)))

		plot := func(caption string, fn func(StepStats) float64) {
			fmt.Println(asciigraph.Plot(series(stats, fn),
				asciigraph.Height(*height), asciigraph.Width(70), asciigraph.Caption(caption)))
			fmt.Println()
		}
		plot("step time (ms)", func(s StepStats) float64 { return float64(s.Duration.Microseconds()) / 1000 })
		plot("tree interactions", func(s StepStats) float64 { return float64(s.Calcs) })
		plot("mean |field|", func(s StepStats) float64 { return s.MeanField })
	}

	results := measureAccuracy(body.Positions(sim.Bodies), thetas, cfg.Epsilon, *samples, rand.New(rand.NewSource(cfg.Scenario.Seed)))
	if len(results) == 0 {
		fmt.Println("no bodies left to measure")
		return
	}
	fmt.Printf("%8s %12s %12s %12s\n", "theta", "rms rel err", "max rel err", "visits/query")
	errs := make([]float64, 0, len(results))
	for _, r := range results {
		fmt.Printf("%8.2f %12.2e %12.2e %12.1f\n", r.Theta, r.RelError, r.MaxError, r.Visits)
		errs = append(errs, r.RelError)
	}
	if len(errs) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(errs, asciigraph.Height(*height), asciigraph.Caption("rms relative error by theta")))
	}
}

// parseThetas reads a comma separated list of non-negative values
func parseThetas(s string) ([]float64, error) {
	var thetas []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		theta, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("parse theta %q: %w", field, err)
		}
		if theta < 0 {
			return nil, fmt.Errorf("theta %v is negative", theta)
		}
		thetas = append(thetas, theta)
	}
	if len(thetas) == 0 {
		return nil, errors.New("no theta values given")
	}
	return thetas, nil
}
