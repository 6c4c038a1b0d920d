package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"echo-loop/internal/audio"
	"echo-loop/internal/config"
	"echo-loop/internal/game"
	"echo-loop/internal/prefs"
	"echo-loop/internal/tui"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
)

// cueVolume is the master gain for synthesized effects
const cueVolume = 0.5

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "arena: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load(".env")

	// The terminal belongs to tcell; logs go to a file
	logFile, err := os.OpenFile("arena.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	appConfig := config.Load()

	store, err := prefs.Open(appConfig.Storage.PrefsPath)
	if err != nil {
		log.Printf("⚠️ Preferences unreadable, high score starts at 0: %v", err)
		store, _ = prefs.Open("")
	}

	arsenal := game.DefaultArsenal()
	if path := appConfig.Storage.ArsenalPath; path != "" {
		if loaded, err := game.LoadArsenal(path); err != nil {
			log.Printf("⚠️ Arsenal override ignored: %v", err)
		} else {
			arsenal = loaded
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	app := tui.NewApp(screen)

	cues := audio.NewCuePlayer(audio.Config{
		SampleRate: appConfig.Audio.SampleRate,
		Volume:     cueVolume,
		Enabled:    appConfig.Audio.Enabled,
		MusicPath:  appConfig.Audio.MusicPath,
		MusicLevel: appConfig.Audio.Volume,
	})
	if err := cues.Start(); err == nil {
		defer cues.Stop()
		app.SetMusic(cues)
	}

	engine := game.NewEngine(appConfig.GameSettings(), game.EngineDeps{
		Arsenal:      arsenal,
		Presentation: app,
		Feedback:     cues,
		Prefs:        store,
		Seed:         appConfig.Server.RNGSeed,
	})
	app.SetController(engine)

	if err := engine.StartEventLog(appConfig.Storage.EventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	}
	defer engine.StopEventLog()

	engine.Start()
	defer engine.Stop()
	log.Printf("🎮 Arena session %s started", engine.SessionID())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		return err
	}

	if err := store.Flush(); err != nil {
		log.Printf("⚠️ %v", err)
	}
	log.Printf("👋 Best score %d", engine.HighScore())
	return nil
}
