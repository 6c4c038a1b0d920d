package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"echo-loop/internal/game"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Config holds the output frame size
type Config struct {
	Width  int
	Height int
}

// DefaultConfig returns a 800x640 frame
func DefaultConfig() Config {
	return Config{Width: 800, Height: 640}
}

const (
	hudHeight  = 36.0
	margin     = 16.0
	fallbackWH = 25.0
)

var (
	colorBackground = color.RGBA{12, 12, 28, 255}
	colorFloor      = color.RGBA{20, 22, 40, 255}
	colorGrid       = color.RGBA{40, 40, 64, 255}
	colorDummy      = color.RGBA{150, 150, 160, 255}
	colorHostile    = color.RGBA{255, 70, 70, 255}
	colorText       = color.RGBA{235, 235, 245, 255}
	colorDim        = color.RGBA{160, 165, 180, 255}
	colorAccent     = color.RGBA{0, 212, 255, 255}
	colorPanel      = color.RGBA{18, 18, 24, 220}
)

// Renderer rasterizes game snapshots. It reuses one gg.Context, so calls
// are serialized.
type Renderer struct {
	mu      sync.Mutex
	cfg     Config
	dc      *gg.Context
	printer *message.Printer

	// per-frame world to screen transform
	scale  float64
	origin [2]float64
}

// New creates a renderer
func New(cfg Config) *Renderer {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg = DefaultConfig()
	}
	dc := gg.NewContext(cfg.Width, cfg.Height)
	dc.SetFontFace(basicfont.Face7x13)
	return &Renderer{
		cfg:     cfg,
		dc:      dc,
		printer: message.NewPrinter(language.English),
	}
}

// RenderPNG draws snap and encodes it as PNG into w
func (r *Renderer) RenderPNG(w io.Writer, snap game.GameSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(&snap)
	if err := r.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

// Render draws snap and returns a copy of the frame
func (r *Renderer) Render(snap game.GameSnapshot) *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(&snap)
	src := r.dc.Image().(*image.RGBA)
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}

func (r *Renderer) draw(snap *game.GameSnapshot) {
	r.layout(snap)

	canvas := NewCanvas(r.dc.Image().(*image.RGBA))
	canvas.Clear(colorBackground)
	r.drawFloor(canvas, snap)
	r.drawBullets(canvas, snap.Bullets)

	for _, e := range snap.Echoes {
		r.drawEcho(e)
	}
	if snap.Player.Alive {
		r.drawPlayer(snap.Player)
	}

	r.drawHUD(snap)
	r.drawOverlay(snap)
}

// layout fits the map below the HUD bar, keeping aspect ratio
func (r *Renderer) layout(snap *game.GameSnapshot) {
	mw, mh := snap.MapWidth, snap.MapHeight
	if mw <= 0 || mh <= 0 {
		mw, mh = fallbackWH, fallbackWH
	}
	availW := float64(r.cfg.Width) - 2*margin
	availH := float64(r.cfg.Height) - hudHeight - 2*margin
	r.scale = math.Min(availW/mw, availH/mh)
	r.origin = [2]float64{
		float64(r.cfg.Width) / 2,
		hudHeight + (float64(r.cfg.Height)-hudHeight)/2,
	}
}

// toScreen maps world units (y up, origin at map center) to pixels
func (r *Renderer) toScreen(x, y float64) (float64, float64) {
	return r.origin[0] + x*r.scale, r.origin[1] - y*r.scale
}

func (r *Renderer) drawFloor(c *Canvas, snap *game.GameSnapshot) {
	mw, mh := snap.MapWidth, snap.MapHeight
	if mw <= 0 || mh <= 0 {
		mw, mh = fallbackWH, fallbackWH
	}
	x0, y0 := r.toScreen(-mw/2, mh/2)
	x1, y1 := r.toScreen(mw/2, -mh/2)
	c.FillRect(int(x0), int(y0), int(x1-x0), int(y1-y0), colorFloor)

	// one grid line per world unit
	for gx := math.Ceil(-mw / 2); gx <= mw/2; gx++ {
		sx, _ := r.toScreen(gx, 0)
		c.VLine(int(sx), int(y0), int(y1), colorGrid)
	}
	for gy := math.Ceil(-mh / 2); gy <= mh/2; gy++ {
		_, sy := r.toScreen(0, gy)
		c.HLine(int(x0), int(x1), int(sy), colorGrid)
	}
}

func (r *Renderer) drawBullets(c *Canvas, bullets []game.BulletSnapshot) {
	radius := math.Max(2, 0.15*r.scale)
	for _, b := range bullets {
		col := parseHexColor(b.Color)
		if b.Hostile {
			col = colorHostile
		}
		sx, sy := r.toScreen(b.X, b.Y)
		glow := col
		glow.A = 90
		c.FillCircle(int(sx), int(sy), radius*2, glow)
		c.FillCircle(int(sx), int(sy), radius, col)
	}
}

func (r *Renderer) drawEcho(e game.EchoSnapshot) {
	dc := r.dc
	x, y := r.toScreen(e.X, e.Y)
	radius := 0.5 * r.scale

	col := parseHexColor(e.Color)
	if e.IsDummy {
		col = colorDummy
	}

	if !e.Alive {
		// wreck marker
		col.A = 120
		dc.SetColor(col)
		dc.SetLineWidth(2)
		d := radius * 0.6
		dc.DrawLine(x-d, y-d, x+d, y+d)
		dc.DrawLine(x-d, y+d, x+d, y-d)
		dc.Stroke()
		return
	}

	// finished echoes linger as ghosts
	if e.Finished {
		col.A = 90
	} else if e.IsDashing {
		col.A = 160
	}

	dc.SetColor(col)
	dc.DrawCircle(x, y, radius)
	dc.Fill()

	dc.SetColor(color.RGBA{255, 255, 255, col.A})
	dc.SetLineWidth(1.5)
	dc.DrawCircle(x, y, radius)
	dc.Stroke()

	r.drawFacing(x, y, radius, e.Facing, col)
}

func (r *Renderer) drawPlayer(p game.PlayerSnapshot) {
	dc := r.dc
	x, y := r.toScreen(p.X, p.Y)
	radius := 0.5 * r.scale

	// Shadow
	dc.SetColor(color.RGBA{0, 0, 0, 128})
	dc.DrawCircle(x, y+radius*0.25, radius)
	dc.Fill()

	col := parseHexColor(p.Color)
	if p.IsDashing {
		glow := col
		glow.A = 77
		dc.SetColor(glow)
		dc.DrawCircle(x, y, radius*1.5)
		dc.Fill()
	}

	dc.SetColor(col)
	dc.DrawCircle(x, y, radius)
	dc.Fill()

	dc.SetColor(color.White)
	dc.SetLineWidth(3)
	dc.DrawCircle(x, y, radius)
	dc.Stroke()

	r.drawFacing(x, y, radius, p.Facing, color.RGBA{255, 255, 255, 255})
}

// drawFacing puts a muzzle dot on the rim in the facing direction
func (r *Renderer) drawFacing(x, y, radius, degrees float64, col color.RGBA) {
	rad := degrees * math.Pi / 180
	mx := x + math.Cos(rad)*radius
	my := y - math.Sin(rad)*radius
	r.dc.SetColor(col)
	r.dc.DrawCircle(mx, my, math.Max(2, radius*0.25))
	r.dc.Fill()
}

func (r *Renderer) drawHUD(snap *game.GameSnapshot) {
	dc := r.dc
	w := float64(r.cfg.Width)

	dc.SetColor(colorPanel)
	dc.DrawRectangle(0, 0, w, hudHeight)
	dc.Fill()
	dc.SetColor(colorAccent)
	dc.DrawRectangle(0, hudHeight-2, w, 2)
	dc.Fill()

	mid := hudHeight / 2
	dc.SetColor(colorText)
	dc.DrawStringAnchored(fmt.Sprintf("LOOP %d", snap.Loop), margin, mid, 0, 0.35)
	dc.DrawStringAnchored(snap.Weapon, margin+80, mid, 0, 0.35)
	dc.DrawStringAnchored(r.printer.Sprintf("SCORE %d", snap.Score), w/2, mid, 0.5, 0.35)

	dc.SetColor(colorDim)
	dc.DrawStringAnchored(fmt.Sprintf("ECHOES %d", snap.AliveEchoes), margin+200, mid, 0, 0.35)
	dc.DrawStringAnchored(r.printer.Sprintf("HI %d", snap.HighScore), w-margin-80, mid, 1, 0.35)

	dc.SetColor(colorText)
	if snap.TimeLeft <= 10 && snap.State == game.StatePlaying {
		dc.SetColor(colorHostile)
	}
	dc.DrawStringAnchored(fmt.Sprintf("%04.1f", snap.TimeLeft), w-margin, mid, 1, 0.35)
}

func (r *Renderer) drawOverlay(snap *game.GameSnapshot) {
	var title, sub string
	switch snap.State {
	case game.StateIdle:
		title, sub = "ECHO LOOP", "press start"
	case game.StateIntro:
		title, sub = fmt.Sprintf("LOOP %d", snap.Loop), snap.Weapon
	case game.StatePaused:
		title = "PAUSED"
	case game.StateLoopTransition:
		title = "LOOP CLEARED"
		sub = r.printer.Sprintf("score %d + time %d = %d",
			snap.LastResult.BaseScore, snap.LastResult.TimeBonus, snap.LastResult.Total)
	case game.StateRewinding:
		title = "REWINDING"
	case game.StateGameOver:
		title = "GAME OVER"
		sub = r.printer.Sprintf("score %d  loops %d  best %d", snap.Score, snap.LastResult.LoopsSurvived, snap.HighScore)
		if snap.LastResult.NewRecord {
			sub += "  NEW RECORD"
		}
	default:
		return
	}

	dc := r.dc
	w, h := float64(r.cfg.Width), float64(r.cfg.Height)
	dc.SetColor(color.RGBA{0, 0, 0, 140})
	dc.DrawRectangle(0, hudHeight, w, h-hudHeight)
	dc.Fill()

	boxW, boxH := 320.0, 72.0
	bx, by := (w-boxW)/2, (h-boxH)/2
	dc.SetColor(colorPanel)
	dc.DrawRoundedRectangle(bx, by, boxW, boxH, 6)
	dc.Fill()
	dc.SetColor(colorAccent)
	dc.DrawRoundedRectangle(bx, by, 4, boxH, 2)
	dc.Fill()

	dc.SetColor(colorText)
	dc.DrawStringAnchored(title, w/2, by+26, 0.5, 0.5)
	if sub != "" {
		dc.SetColor(colorDim)
		dc.DrawStringAnchored(sub, w/2, by+50, 0.5, 0.5)
	}
}

func parseHexColor(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{255, 255, 255, 255}
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	return color.RGBA{r, g, b, 255}
}
