package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/olivierh59500/plate-field-go/pkg/config"
	"github.com/olivierh59500/plate-field-go/pkg/exchange"
	"github.com/olivierh59500/plate-field-go/pkg/seed"
	"github.com/olivierh59500/plate-field-go/pkg/simulation"
)

func main() {
	configPath := flag.String("config", "plates.json", "settings file, created with S")
	preset := flag.String("preset", "", "starting scene: "+strings.Join(seed.Presets(), ", "))
	bodies := flag.Int("n", 0, "body count for generated scenes")
	width := flag.Int("width", 1280, "window width")
	height := flag.Int("height", 720, "window height")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *preset != "" {
		cfg.Scenario.Preset = *preset
	}
	if *bodies > 0 {
		cfg.Scenario.Bodies = *bodies
	}

	sim, err := cfg.NewSimulation()
	if err != nil {
		log.Fatal(err)
	}

	// The simulation runs on its own goroutine and only talks to the window through ex
	ex := exchange.New()
	runner := simulation.NewRunner(sim, ex, cfg.TickInterval())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Go(ctx, func(err error) {
		log.Printf("simulation stopped: %v", err)
	})

	viewer := NewViewer(float64(*width), float64(*height), cfg, *configPath, ex)

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("Plate Field Simulation")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(viewer); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads path, falling back to the defaults when it does not exist yet
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("no settings at %s, using defaults", path)
		return config.Default(), nil
	}
	return cfg, err
}
