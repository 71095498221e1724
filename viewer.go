package main

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/plate-field-go/pkg/config"
	"github.com/olivierh59500/plate-field-go/pkg/editor"
	"github.com/olivierh59500/plate-field-go/pkg/exchange"
	"github.com/olivierh59500/plate-field-go/pkg/plate"
	"github.com/olivierh59500/plate-field-go/pkg/quadtree"
)

// Viewer constants
const (
	MinZoom     = 0.05
	MaxZoom     = 200.0
	ZoomSteps   = 5.0 // Wheel steps to double the zoom
	HeatStep    = 10.0
	HeatScale   = 0.1 // Field magnitude drawn at half intensity
	DtStep      = 0.1
	MinDt       = 0.1
	MaxDt       = 1.0
	ChargeRatio = 1.25
)

// Visualisation modes
const (
	VisBodies = iota
	VisHeatmap
	numVisModes
)

var (
	bodyColor      = color.RGBA{50, 180, 240, 255}
	selectionColor = color.RGBA{255, 255, 255, 255}
	plateColors    = map[plate.Type]color.RGBA{
		plate.Normal:   {50, 50, 50, 255},
		plate.Battery:  {30, 100, 30, 255},
		plate.Resistor: {120, 70, 10, 255},
	}
)

// Viewer is the interactive consumer: it draws the latest snapshot and edits a copy of it
type Viewer struct {
	Width, Height  float64
	Zoom           float64 // Pixels per world unit
	CamX, CamY     float64 // World point at the screen centre
	PrevMX, PrevMY float64 // Previous mouse position for panning
	VisMode        int
	ShowBodies     bool
	ShowPlates     bool
	ShowQuadtree   bool
	ShowHelp       bool

	cfg        config.Config
	configPath string
	ex         *exchange.Exchange
	editor     *editor.Editor
	snap       exchange.Snapshot
	tunables   exchange.Tunables
	paused     bool
}

// NewViewer creates a viewer for ex using the settings in cfg
func NewViewer(width, height float64, cfg config.Config, configPath string, ex *exchange.Exchange) *Viewer {
	return &Viewer{
		Width:      width,
		Height:     height,
		Zoom:       2.0,
		ShowBodies: true,
		ShowPlates: true,
		cfg:        cfg,
		configPath: configPath,
		ex:         ex,
		editor:     editor.New(cfg.Editor, rand.New(rand.NewSource(time.Now().UnixNano()))),
		tunables:   cfg.Tunables,
	}
}

// Update is called each tick by Ebitengine
func (v *Viewer) Update() error {
	v.handleInput()

	snap, ok := v.ex.Latest()
	if !ok {
		return nil
	}
	v.snap = snap
	// Queued edit requests wait until the last submission has been ingested
	if !v.ex.Current(snap) {
		return nil
	}
	v.editor.Sync(snap.Bodies, snap.Plates)
	if v.editor.Apply() {
		v.ex.SubmitObjects(v.editor.Objects())
	}
	return nil
}

// Draw is called each frame by Ebitengine
func (v *Viewer) Draw(screen *ebiten.Image) {
	if v.VisMode == VisHeatmap {
		v.drawHeatmap(screen)
	}
	if v.ShowPlates {
		v.drawPlates(screen)
	}
	if v.ShowQuadtree {
		v.drawQuadtree(screen)
	}
	if v.ShowBodies {
		v.drawBodies(screen)
	}
	v.drawSelection(screen)
	v.drawHUD(screen)
}

// Layout follows the window size
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	v.Width, v.Height = float64(outsideWidth), float64(outsideHeight)
	return outsideWidth, outsideHeight
}

// handleInput processes keyboard and mouse input
func (v *Viewer) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.paused = v.ex.TogglePaused()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		v.ShowHelp = !v.ShowHelp
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		v.VisMode = (v.VisMode + 1) % numVisModes
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		v.ShowBodies = !v.ShowBodies
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		v.ShowPlates = !v.ShowPlates
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		v.ShowQuadtree = !v.ShowQuadtree
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		v.resetScene()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		v.saveSettings()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		v.loadSettings()
	}

	v.handleTunables()
	v.handleEditing()
	v.handleCamera()
}

// handleTunables adjusts the time step, charge scales and editor strengths
func (v *Viewer) handleTunables() {
	t := v.tunables
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		t.Dt = math.Max(t.Dt-DtStep, MinDt)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		t.Dt = math.Min(t.Dt+DtStep, MaxDt)
	case inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft):
		t.QE /= ChargeRatio
	case inpututil.IsKeyJustPressed(ebiten.KeyBracketRight):
		t.QE *= ChargeRatio
	case inpututil.IsKeyJustPressed(ebiten.KeySemicolon):
		t.QP /= ChargeRatio
	case inpututil.IsKeyJustPressed(ebiten.KeyQuote):
		t.QP *= ChargeRatio
	}
	if t != v.tunables {
		v.tunables = t
		v.ex.SubmitTunables(t)
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		v.editor.AdjustBattery(0.5)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		v.editor.AdjustBattery(-0.5)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		v.editor.AdjustResistor(0.05)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		v.editor.AdjustResistor(-0.05)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		v.editor.AdjustDensity(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown):
		v.editor.AdjustDensity(-1)
	}
}

// handleEditing drives the grid selection and plate edits
func (v *Viewer) handleEditing() {
	mx, my := ebiten.CursorPosition()
	world := v.screenToWorld(float64(mx), float64(my))
	v.editor.Hover(world)

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		v.editor.Press(world)
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		v.editor.Release()
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		v.editor.Cancel()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) || inpututil.IsKeyJustPressed(ebiten.KeyDelete) {
		v.editor.RequestRemove()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		v.editor.RequestType(plate.Normal)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		v.editor.RequestType(plate.Battery)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit3) {
		v.editor.RequestType(plate.Resistor)
	}
}

// handleCamera zooms around the cursor and pans with the middle button
func (v *Viewer) handleCamera() {
	mx, my := ebiten.CursorPosition()
	fx, fy := float64(mx), float64(my)

	if _, wheelY := ebiten.Wheel(); wheelY != 0 {
		anchor := v.screenToWorld(fx, fy)
		v.Zoom = math.Min(math.Max(v.Zoom*math.Exp2(wheelY/ZoomSteps), MinZoom), MaxZoom)
		v.CamX = anchor.X - (fx-v.Width/2)/v.Zoom
		v.CamY = anchor.Y - (v.Height/2-fy)/v.Zoom
	}

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle) {
		v.CamX -= (fx - v.PrevMX) / v.Zoom
		v.CamY += (fy - v.PrevMY) / v.Zoom
	}
	v.PrevMX, v.PrevMY = fx, fy
}

// resetScene replaces the running bodies and plates with the configured starting scene
func (v *Viewer) resetScene() {
	scene, err := v.cfg.Scene()
	if err != nil {
		log.Printf("reset scene: %v", err)
		return
	}
	v.editor.Cancel()
	v.ex.SubmitObjects(exchange.Objects{Bodies: scene.Bodies, Plates: scene.Plates})
}

// saveSettings writes the current tunables and editor defaults to the config file
func (v *Viewer) saveSettings() {
	v.cfg.Tunables = v.tunables
	v.cfg.Editor = config.Editor{
		GridSize:         v.editor.GridSize,
		Density:          v.editor.Density,
		BatteryStrength:  v.editor.BatteryStrength,
		ResistorStrength: v.editor.ResistorStrength,
	}
	if err := v.cfg.Save(v.configPath); err != nil {
		log.Printf("save settings: %v", err)
		return
	}
	log.Printf("saved settings to %s", v.configPath)
}

// loadSettings applies tunables and editor defaults from the config file
func (v *Viewer) loadSettings() {
	cfg, err := config.Load(v.configPath)
	if err != nil {
		log.Printf("load settings: %v", err)
		return
	}
	v.cfg = cfg
	v.tunables = cfg.Tunables
	v.ex.SubmitTunables(cfg.Tunables)

	v.editor.GridSize = cfg.Editor.GridSize
	v.editor.Density = cfg.Editor.Density
	v.editor.BatteryStrength = cfg.Editor.BatteryStrength
	v.editor.ResistorStrength = cfg.Editor.ResistorStrength
}

func (v *Viewer) drawBodies(screen *ebiten.Image) {
	for _, b := range v.snap.Bodies {
		sx, sy := v.worldToScreen(b.Pos)
		r := b.Radius * v.Zoom
		if sx < -r || sx > v.Width+r || sy < -r || sy > v.Height+r {
			continue
		}
		vector.DrawFilledCircle(screen, float32(sx), float32(sy), float32(math.Max(r, 1)), bodyColor, true)
	}
}

func (v *Viewer) drawPlates(screen *ebiten.Image) {
	for _, p := range v.snap.Plates {
		x, y, w, h := v.screenRect(p.Min, p.Max)
		col := plateColors[p.Type]
		if v.VisMode == VisHeatmap {
			vector.StrokeRect(screen, x, y, w, h, 1, col, true)
			continue
		}
		vector.DrawFilledRect(screen, x, y, w, h, col, true)
	}
}

// drawQuadtree shades tree cells from the shallowest to the deepest leaf depth
func (v *Viewer) drawQuadtree(screen *ebiten.Image) {
	nodes := v.snap.Nodes
	minDepth, maxDepth := quadtree.DepthRange(nodes)

	quadtree.Walk(nodes, minDepth, maxDepth, func(n quadtree.Node, depth int) {
		x, y, w, h := v.screenRect(n.Quad.Min(), n.Quad.Max())
		if x > float32(v.Width) || y > float32(v.Height) || x+w < 0 || y+h < 0 {
			return
		}
		vector.DrawFilledRect(screen, x, y, w, h, depthColor(n, depth, minDepth, maxDepth), false)
	})
}

// depthColor ramps hue and brightness with depth; occupied leaves sit one step brighter
func depthColor(n quadtree.Node, depth, minDepth, maxDepth int) color.RGBA {
	level := depth - minDepth
	if !n.IsEmpty() {
		level++
	}
	t := float64(level) / float64(maxDepth-minDepth+1)

	const startH, endH = -100.0, 80.0
	r, g, b := hsvToRGB(startH+(endH-startH)*t, 1, t)
	// Premultiplied alpha for a half-transparent overlay
	return color.RGBA{uint8(r * 0x80), uint8(g * 0x80), uint8(b * 0x80), 0x80}
}

// drawHeatmap shades the screen by the strength of the plate field
func (v *Viewer) drawHeatmap(screen *ebiten.Image) {
	if len(v.snap.Plates) == 0 {
		return
	}
	for sx := 0.0; sx < v.Width; sx += HeatStep {
		for sy := 0.0; sy < v.Height; sy += HeatStep {
			world := v.screenToWorld(sx+HeatStep/2, sy+HeatStep/2)
			mag := r2.Norm(sampleFieldAt(world, v.snap.Plates, v.snap.Tunables.QP))
			intensity := uint8(255 * mag / (mag + HeatScale))
			col := color.RGBA{intensity, 0, 255 - intensity, 255}
			vector.DrawFilledRect(screen, float32(sx), float32(sy), HeatStep, HeatStep, col, false)
		}
	}
}

// sampleFieldAt computes the plate field a body at pos would feel
func sampleFieldAt(pos r2.Vec, plates []plate.Plate, qp float64) r2.Vec {
	var field r2.Vec
	for _, p := range plates {
		field = r2.Add(field, r2.Scale(qp, p.EFieldAt(pos)))
		if p.InPlate(pos) {
			field = r2.Add(field, p.BatteryAt(pos))
		}
	}
	return field
}

// drawSelection outlines picked plates, or the selected cells when nothing is picked
func (v *Viewer) drawSelection(screen *ebiten.Image) {
	ed := v.editor
	if !ed.Active() {
		hovered := ed.Hovered()
		v.strokeWorldRect(screen, hovered, r2.Add(hovered, r2.Vec{X: ed.GridSize, Y: ed.GridSize}))
		return
	}

	selected := ed.Selected()
	for _, i := range selected {
		if i < len(ed.Plates) {
			v.strokeWorldRect(screen, ed.Plates[i].Min, ed.Plates[i].Max)
		}
	}
	if len(selected) == 0 || ed.Dragging() {
		min, max := ed.Selection()
		v.strokeWorldRect(screen, min, max)
	}
}

func (v *Viewer) strokeWorldRect(screen *ebiten.Image, min, max r2.Vec) {
	x, y, w, h := v.screenRect(min, max)
	vector.StrokeRect(screen, x, y, w, h, 1, selectionColor, true)
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	state := "running"
	if v.paused {
		state = "paused"
	}
	t := v.snap.Tunables
	lines := []string{
		fmt.Sprintf("Frame %d (%s)  Bodies %d  Plates %d  Nodes %d  Calcs %d",
			v.snap.Frame, state, len(v.snap.Bodies), len(v.snap.Plates), len(v.snap.Nodes), v.snap.Calcs),
		fmt.Sprintf("dt %.2f  qe %.3g  qp %.3g  battery %.2f  resistor %.2f  density %d  FPS %.0f",
			t.Dt, t.QE, t.QP, v.editor.BatteryStrength, v.editor.ResistorStrength, v.editor.Density, ebiten.ActualFPS()),
	}
	if v.ShowHelp {
		lines = append(lines,
			"Space: pause  H: heatmap  B/P/Q: bodies/plates/tree  R: reset  S/L: save/load settings",
			"Drag: select  1/2/3: normal/battery/resistor  Backspace: remove  Right click: deselect",
			"-/=: dt  [/]: qe  ;/': qp  Up/Down: battery  Left/Right: resistor  PgUp/PgDn: density",
		)
	} else {
		lines = append(lines, "E: help")
	}

	for i, line := range lines {
		text.Draw(screen, line, basicfont.Face7x13, 6, 16*(i+1), color.White)
	}
}

// hsvToRGB helper; negative hues wrap around
func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

// worldToScreen maps a world position (y up) to pixels (y down)
func (v *Viewer) worldToScreen(p r2.Vec) (float64, float64) {
	return (p.X-v.CamX)*v.Zoom + v.Width/2, v.Height/2 - (p.Y-v.CamY)*v.Zoom
}

func (v *Viewer) screenToWorld(sx, sy float64) r2.Vec {
	return r2.Vec{X: (sx-v.Width/2)/v.Zoom + v.CamX, Y: (v.Height/2-sy)/v.Zoom + v.CamY}
}

// screenRect converts a world rectangle to a screen-space x, y, width, height
func (v *Viewer) screenRect(min, max r2.Vec) (float32, float32, float32, float32) {
	x0, y1 := v.worldToScreen(min)
	x1, y0 := v.worldToScreen(max)
	return float32(x0), float32(y0), float32(x1 - x0), float32(y1 - y0)
}
