// Command plateterm shows a running simulation as a density map in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/plate-field-go/pkg/config"
	"github.com/olivierh59500/plate-field-go/pkg/exchange"
	"github.com/olivierh59500/plate-field-go/pkg/plate"
	"github.com/olivierh59500/plate-field-go/pkg/seed"
	"github.com/olivierh59500/plate-field-go/pkg/simulation"
)

const (
	frameInterval = 33 * time.Millisecond
	zoomRatio     = 1.25
	dtStep        = 0.1
)

var (
	bodyStyle   = tcell.StyleDefault.Foreground(tcell.NewRGBColor(50, 180, 240))
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
	plateBg     = map[plate.Type]tcell.Color{
		plate.Normal:   tcell.NewRGBColor(50, 50, 50),
		plate.Battery:  tcell.NewRGBColor(30, 100, 30),
		plate.Resistor: tcell.NewRGBColor(120, 70, 10),
	}
)

// Terminal draws snapshots and forwards key presses to the simulation
type Terminal struct {
	screen   tcell.Screen
	ex       *exchange.Exchange
	cfg      config.Config
	view     View
	snap     exchange.Snapshot
	tunables exchange.Tunables
	paused   bool
	message  string
}

// NewTerminal initialises the screen
func NewTerminal(cfg config.Config, ex *exchange.Exchange) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return newTerminal(screen, cfg, ex)
}

func newTerminal(screen tcell.Screen, cfg config.Config, ex *exchange.Exchange) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}

	t := &Terminal{
		screen:   screen,
		ex:       ex,
		cfg:      cfg,
		view:     View{Scale: 4},
		tunables: cfg.Tunables,
	}
	t.resize()
	return t, nil
}

func (t *Terminal) resize() {
	cols, rows := t.screen.Size()
	t.view.Cols, t.view.Rows = cols, max(rows-1, 0)
}

// Run draws until the user quits or ctx ends
func (t *Terminal) Run(ctx context.Context) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if !t.handleEvent(ev) {
				return
			}
		case snap := <-t.ex.Snapshots():
			t.snap = snap
		case <-ticker.C:
			t.draw()
		}
	}
}

// handleEvent reports false when the user asked to quit
func (t *Terminal) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.resize()
		t.screen.Sync()
	case *tcell.EventKey:
		pan := t.view.Scale * 5
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			t.view.Center.Y += 2 * pan
		case tcell.KeyDown:
			t.view.Center.Y -= 2 * pan
		case tcell.KeyLeft:
			t.view.Center.X -= pan
		case tcell.KeyRight:
			t.view.Center.X += pan
		case tcell.KeyRune:
			return t.handleRune(ev.Rune())
		}
	}
	return true
}

func (t *Terminal) handleRune(r rune) bool {
	tun := t.tunables
	switch r {
	case 'q':
		return false
	case ' ':
		t.paused = t.ex.TogglePaused()
	case '+', '=':
		t.view.Scale /= zoomRatio
	case '-':
		t.view.Scale *= zoomRatio
	case 'c':
		t.view.Center = t.snapCenter()
	case '[':
		tun.Dt = math.Max(tun.Dt-dtStep, exchange.MinDt)
	case ']':
		tun.Dt += dtStep
	case 'r':
		scene, err := t.cfg.Scene()
		if err != nil {
			t.message = fmt.Sprintf("reset failed: %v", err)
			break
		}
		t.ex.SubmitObjects(exchange.Objects{Bodies: scene.Bodies, Plates: scene.Plates})
	}
	if tun != t.tunables {
		t.tunables = tun
		t.ex.SubmitTunables(tun)
	}
	return true
}

// snapCenter returns the mean body position of the latest snapshot
func (t *Terminal) snapCenter() r2.Vec {
	var c r2.Vec
	if len(t.snap.Bodies) == 0 {
		return c
	}
	for _, b := range t.snap.Bodies {
		c = r2.Add(c, b.Pos)
	}
	return r2.Scale(1/float64(len(t.snap.Bodies)), c)
}

func (t *Terminal) draw() {
	t.screen.Clear()

	counts, peak := t.view.Density(t.snap.Bodies)
	for row := 0; row < t.view.Rows; row++ {
		for col := 0; col < t.view.Cols; col++ {
			style := bodyStyle
			if pt, ok := t.view.PlateAt(t.snap.Plates, col, row); ok {
				style = style.Background(plateBg[pt])
			}
			t.screen.SetContent(col, row, densityRune(counts[row*t.view.Cols+col], peak), nil, style)
		}
	}

	state := "running"
	if t.paused {
		state = "paused"
	}
	status := fmt.Sprintf(" frame %d %s | bodies %d plates %d | dt %.2f qe %.3g qp %.3g | scale %.2f | space pause  +/- zoom  arrows pan  c centre  [ ] dt  r reset  q quit",
		t.snap.Frame, state, len(t.snap.Bodies), len(t.snap.Plates),
		t.snap.Tunables.Dt, t.snap.Tunables.QE, t.snap.Tunables.QP, t.view.Scale)
	if t.message != "" {
		status = " " + t.message + " |" + status
	}
	t.drawText(0, t.view.Rows, status, statusStyle)

	t.screen.Show()
}

func (t *Terminal) drawText(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		if x+i >= t.view.Cols {
			return
		}
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}

// Close restores the terminal
func (t *Terminal) Close() {
	t.screen.Fini()
}

func main() {
	configPath := flag.String("config", "plates.json", "settings file")
	preset := flag.String("preset", "", "starting scene: "+strings.Join(seed.Presets(), ", "))
	bodies := flag.Int("n", 0, "body count for generated scenes")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}
	if *preset != "" {
		cfg.Scenario.Preset = *preset
	}
	if *bodies > 0 {
		cfg.Scenario.Bodies = *bodies
	}

	sim, err := cfg.NewSimulation()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build scene: %v\n", err)
		os.Exit(1)
	}

	ex := exchange.New()
	runner := simulation.NewRunner(sim, ex, cfg.TickInterval())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Go(ctx, func(err error) {
		fmt.Fprintf(os.Stderr, "simulation stopped: %v\n", err)
	})

	term, err := NewTerminal(cfg, ex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer term.Close()

	term.Run(ctx)
}
