package tui

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"echo-loop/internal/game"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FrameInterval is the redraw and input push period
const FrameInterval = 33 * time.Millisecond

// Controller is the part of the engine the terminal client drives
type Controller interface {
	GetSnapshot() game.GameSnapshot
	SetInput(in game.Input)
	StartNewLoop() error
	ConfirmNextLoop()
	TogglePause()
	Restart() error
}

// MusicToggle switches background music on and off
type MusicToggle interface {
	SetMusicEnabled(on bool)
}

// App is the terminal front-end. It implements game.PresentationSink; the
// sink methods only store text for the next frame.
type App struct {
	screen  tcell.Screen
	ctl     Controller
	view    *View
	input   *InputState
	printer *message.Printer
	music   MusicToggle
	musicOn bool

	mu         sync.Mutex
	banner     []string
	bannerTill time.Time
}

// NewApp creates an app on an initialized screen. Set it as the engine's
// presentation sink, then call SetController before Run.
func NewApp(screen tcell.Screen) *App {
	return &App{
		screen:  screen,
		view:    NewView(screen),
		input:   NewInputState(),
		printer: message.NewPrinter(language.English),
		musicOn: true,
	}
}

// SetController attaches the engine
func (a *App) SetController(ctl Controller) {
	a.ctl = ctl
}

// SetMusic attaches the background music switch bound to 'm'
func (a *App) SetMusic(m MusicToggle) {
	a.music = m
}

// Run polls keys and redraws until quit or ctx is done
func (a *App) Run(ctx context.Context) error {
	if a.ctl == nil {
		return fmt.Errorf("tui: no controller")
	}

	events := make(chan tcell.Event, 32)
	quit := make(chan struct{})
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()
	defer close(quit)

	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				a.screen.Sync()
			case *tcell.EventKey:
				if !a.HandleKey(ev, time.Now()) {
					return nil
				}
			}
		case now := <-ticker.C:
			a.ctl.SetInput(a.input.Input(now))
			a.Draw(now)
		}
	}
}

// HandleKey applies one key event. It returns false when the user quits.
func (a *App) HandleKey(ev *tcell.EventKey, now time.Time) bool {
	action := keyToAction(ev)
	if isShifted(ev) {
		a.input.Press(ActionDash, now)
	}

	switch action {
	case ActionQuit:
		return false
	case ActionPause:
		a.ctl.TogglePause()
	case ActionRestart:
		a.input.Reset()
		a.clearBanner()
		if err := a.ctl.Restart(); err != nil {
			log.Printf("⚠️ Restart refused: %v", err)
		}
	case ActionConfirm:
		a.confirm()
	case ActionMusic:
		if a.music != nil {
			a.musicOn = !a.musicOn
			a.music.SetMusicEnabled(a.musicOn)
		}
	case ActionNone:
	default:
		a.input.Press(action, now)
	}
	return true
}

// confirm advances whatever screen is waiting on the player
func (a *App) confirm() {
	switch a.ctl.GetSnapshot().State {
	case game.StateIdle:
		if err := a.ctl.StartNewLoop(); err != nil {
			log.Printf("⚠️ Loop start refused: %v", err)
		}
	case game.StateLoopTransition:
		a.ctl.ConfirmNextLoop()
	case game.StateGameOver:
		a.input.Reset()
		a.clearBanner()
		if err := a.ctl.Restart(); err != nil {
			log.Printf("⚠️ Restart refused: %v", err)
		}
	}
}

// Draw renders the latest snapshot
func (a *App) Draw(now time.Time) {
	snap := a.ctl.GetSnapshot()
	a.view.Draw(snap, a.Banner(snap, now))
	a.screen.Show()
}

// Banner returns the overlay lines for the frame at now
func (a *App) Banner(snap game.GameSnapshot, now time.Time) []string {
	a.mu.Lock()
	lines, till := a.banner, a.bannerTill
	a.mu.Unlock()

	if len(lines) > 0 && (till.IsZero() || now.Before(till)) {
		return lines
	}

	switch snap.State {
	case game.StateIdle:
		return []string{"ECHO LOOP", "press enter to start"}
	case game.StatePaused:
		return []string{"PAUSED", "p to resume"}
	case game.StateRewinding:
		return []string{"REWINDING..."}
	}
	return nil
}

func (a *App) setBanner(lines []string, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.banner = lines
	if d > 0 {
		a.bannerTill = time.Now().Add(d)
	} else {
		a.bannerTill = time.Time{}
	}
}

func (a *App) clearBanner() {
	a.setBanner(nil, 0)
}

// LoopIntro implements game.PresentationSink
func (a *App) LoopIntro(loop int, weaponName string) {
	a.setBanner([]string{
		fmt.Sprintf("LOOP %d", loop),
		weaponName,
	}, 2500*time.Millisecond)
}

// WinSummary implements game.PresentationSink
func (a *App) WinSummary(baseScore int, timeLeft float64, total int) {
	a.setBanner([]string{
		"LOOP CLEARED",
		a.printer.Sprintf("score %d   time left %.1fs", baseScore, timeLeft),
		a.printer.Sprintf("total %d", total),
		"enter to continue",
	}, 3*time.Second)
}

// GameOver implements game.PresentationSink
func (a *App) GameOver(finalScore, loopsSurvived, highScore int, isNewRecord bool) {
	lines := []string{
		"GAME OVER",
		a.printer.Sprintf("score %d", finalScore),
		a.printer.Sprintf("loops survived %d", loopsSurvived),
		a.printer.Sprintf("best %d", highScore),
	}
	if isNewRecord {
		lines = append(lines, "NEW RECORD!")
	}
	lines = append(lines, "enter or r to restart, q to quit")
	a.setBanner(lines, 0)
}
