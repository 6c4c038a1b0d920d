package tui

import (
	"fmt"
	"math"

	"echo-loop/internal/game"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Two columns per world unit keeps cells roughly square.
const (
	colsPerUnit = 2
	hudRows     = 2
)

var (
	styleDefault = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleWall    = styleDefault.Foreground(tcell.ColorDarkSlateGray)
	styleFloor   = styleDefault.Foreground(tcell.NewRGBColor(40, 40, 64))
	styleHUD     = styleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleDim     = styleDefault.Foreground(tcell.ColorGray)
	styleHostile = styleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleBanner  = tcell.StyleDefault.Background(tcell.NewRGBColor(18, 18, 24)).Foreground(tcell.ColorWhite).Bold(true)
)

// Glyphs for arena entities
const (
	glyphPlayer  = '@'
	glyphEcho    = 'E'
	glyphDummy   = '&'
	glyphGhost   = 'e'
	glyphWreck   = 'x'
	glyphBullet  = '•'
	glyphHostile = '*'
	glyphFloor   = '·'
)

// View draws snapshots onto a tcell screen.
type View struct {
	screen  tcell.Screen
	printer *message.Printer

	// arena placement for the current frame
	left, top    int
	cols, rows   int
	halfW, halfH float64
}

// NewView creates a view for screen
func NewView(screen tcell.Screen) *View {
	return &View{
		screen:  screen,
		printer: message.NewPrinter(language.English),
	}
}

// Draw renders snap plus an optional centered banner. It does not call Show.
func (v *View) Draw(snap game.GameSnapshot, banner []string) {
	v.screen.Clear()
	v.layout(snap)
	v.drawArena()

	for _, b := range snap.Bullets {
		glyph, style := glyphBullet, styleFromHex(b.Color)
		if b.Hostile {
			glyph, style = glyphHostile, styleHostile
		}
		v.plot(b.X, b.Y, glyph, style)
	}
	for _, e := range snap.Echoes {
		v.plot(e.X, e.Y, echoGlyph(e), echoStyle(e))
	}
	if snap.Player.Alive {
		style := styleFromHex(snap.Player.Color).Bold(true)
		if snap.Player.IsDashing {
			style = style.Reverse(true)
		}
		v.plot(snap.Player.X, snap.Player.Y, glyphPlayer, style)
	}

	v.drawHUD(snap)
	if len(banner) > 0 {
		v.drawBanner(banner)
	}
}

func (v *View) layout(snap game.GameSnapshot) {
	w, h := v.screen.Size()
	mw, mh := snap.MapWidth, snap.MapHeight
	if mw <= 0 || mh <= 0 {
		mw, mh = 25, 25
	}
	v.halfW, v.halfH = mw/2, mh/2
	v.cols = int(math.Round(mw)) * colsPerUnit
	v.rows = int(math.Round(mh))

	// shrink to fit small terminals
	if v.cols+2 > w {
		v.cols = max(1, w-2)
	}
	if v.rows+2+hudRows > h {
		v.rows = max(1, h-2-hudRows)
	}
	v.left = max(0, (w-v.cols-2)/2) + 1
	v.top = hudRows + 1
}

// cell maps a world position (y up) to a screen cell inside the frame
func (v *View) cell(x, y float64) (int, int, bool) {
	cx := int((x + v.halfW) / (2 * v.halfW) * float64(v.cols))
	cy := int((v.halfH - y) / (2 * v.halfH) * float64(v.rows))
	if cx < 0 || cx >= v.cols || cy < 0 || cy >= v.rows {
		return 0, 0, false
	}
	return v.left + cx, v.top + cy, true
}

func (v *View) plot(x, y float64, glyph rune, style tcell.Style) {
	if sx, sy, ok := v.cell(x, y); ok {
		v.screen.SetContent(sx, sy, glyph, nil, style)
	}
}

func (v *View) drawArena() {
	l, t := v.left-1, v.top-1
	r, b := v.left+v.cols, v.top+v.rows

	for x := l + 1; x < r; x++ {
		v.screen.SetContent(x, t, '─', nil, styleWall)
		v.screen.SetContent(x, b, '─', nil, styleWall)
	}
	for y := t + 1; y < b; y++ {
		v.screen.SetContent(l, y, '│', nil, styleWall)
		v.screen.SetContent(r, y, '│', nil, styleWall)
	}
	v.screen.SetContent(l, t, '┌', nil, styleWall)
	v.screen.SetContent(r, t, '┐', nil, styleWall)
	v.screen.SetContent(l, b, '└', nil, styleWall)
	v.screen.SetContent(r, b, '┘', nil, styleWall)

	for y := 0; y < v.rows; y += 2 {
		for x := 0; x < v.cols; x += 4 {
			v.screen.SetContent(v.left+x, v.top+y, glyphFloor, nil, styleFloor)
		}
	}
}

func (v *View) drawHUD(snap game.GameSnapshot) {
	w, _ := v.screen.Size()

	left := fmt.Sprintf(" LOOP %d  %s  ECHOES %d", snap.Loop, snap.Weapon, snap.AliveEchoes)
	v.putString(0, 0, left, styleHUD)

	score := v.printer.Sprintf("SCORE %d", snap.Score)
	v.putString((w-runewidth.StringWidth(score))/2, 0, score, styleHUD)

	timeStyle := styleHUD
	if snap.State == game.StatePlaying && snap.TimeLeft <= 10 {
		timeStyle = styleHostile
	}
	clock := fmt.Sprintf("%04.1f ", snap.TimeLeft)
	v.putString(w-runewidth.StringWidth(clock), 0, clock, timeStyle)

	status := v.printer.Sprintf(" HI %d  %s", snap.HighScore, snap.State)
	v.putString(0, 1, status, styleDim)
	help := "wasd move  space fire  e dash  p pause  m music  enter next  r restart  q quit "
	if runewidth.StringWidth(help)+runewidth.StringWidth(status) < w {
		v.putString(w-runewidth.StringWidth(help), 1, help, styleDim)
	}
}

func (v *View) drawBanner(lines []string) {
	w, h := v.screen.Size()

	width := 0
	for _, l := range lines {
		width = max(width, runewidth.StringWidth(l))
	}
	width += 4
	top := (h - len(lines) - 2) / 2
	left := (w - width) / 2

	for y := top; y < top+len(lines)+2; y++ {
		for x := left; x < left+width; x++ {
			v.screen.SetContent(x, y, ' ', nil, styleBanner)
		}
	}
	for i, l := range lines {
		x := left + (width-runewidth.StringWidth(l))/2
		v.putString(x, top+1+i, l, styleBanner)
	}
}

// putString writes s at x, y and returns the column after it.
// Wide runes take two cells.
func (v *View) putString(x, y int, s string, style tcell.Style) int {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
	return x
}

func echoGlyph(e game.EchoSnapshot) rune {
	switch {
	case !e.Alive:
		return glyphWreck
	case e.IsDummy:
		return glyphDummy
	case e.Finished:
		return glyphGhost
	}
	return glyphEcho
}

func echoStyle(e game.EchoSnapshot) tcell.Style {
	if !e.Alive || e.Finished {
		return styleDim
	}
	if e.IsDummy {
		return styleDefault.Foreground(tcell.ColorSilver)
	}
	style := styleFromHex(e.Color)
	if e.IsDashing {
		style = style.Reverse(true)
	}
	return style
}

func styleFromHex(hex string) tcell.Style {
	c := tcell.GetColor(hex)
	if c == tcell.ColorDefault {
		c = tcell.ColorWhite
	}
	return styleDefault.Foreground(c)
}
