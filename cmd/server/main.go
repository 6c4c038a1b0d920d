package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"echo-loop/internal/api"
	"echo-loop/internal/config"
	"echo-loop/internal/game"
	"echo-loop/internal/prefs"
	"echo-loop/internal/render"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  ECHO LOOP - HEADLESS ENGINE")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	settings := appConfig.GameSettings()
	port := strconv.Itoa(appConfig.Server.Port)

	log.Printf("🎮 Config: %d TPS, %.0fs loops, %.0fx%.0f arena",
		settings.TickRate, settings.LoopDuration, appConfig.Arena.MapWidth, appConfig.Arena.MapHeight)

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
			log.Printf("🔫 Arsenal loaded from %s (%d weapons)", path, len(arsenal))
		}
	}

	// The hub exists before the engine so it can act as its sinks
	hub := api.NewWebSocketHub()

	engine := game.NewEngine(settings, game.EngineDeps{
		Arsenal:      arsenal,
		Presentation: hub,
		Feedback:     hub,
		Prefs:        store,
		Seed:         appConfig.Server.RNGSeed,
	})
	engine.Subscribe(api.MetricsObserver())
	engine.OnTick = api.RecordTick
	log.Printf("🎲 Session %s (seed %d)", engine.SessionID(), engine.Seed())

	if err := engine.StartEventLog(appConfig.Storage.EventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if appConfig.Storage.EventLogPath != "" {
		log.Printf("📝 Event log: %s", appConfig.Storage.EventLogPath)
	}

	if appConfig.Debug.Enabled {
		debugCfg := api.DefaultObservabilityConfig()
		debugCfg.ListenAddr = appConfig.Debug.Addr
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	renderer := render.New(render.DefaultConfig())
	server := api.NewServer(engine, hub, renderer)

	engine.Start()
	log.Println("✅ Game Engine started")

	if err := engine.StartNewLoop(); err != nil {
		log.Printf("⚠️ First loop refused: %v", err)
	}

	go func() {
		addr := ":" + port
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Mirror event log counters into Prometheus
	statsDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-statsDone:
				return
			case <-ticker.C:
				el := engine.GetEventLog()
				api.UpdateEventLogStats(el.GetTotalCount(), el.GetDroppedCount())
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	close(statsDone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}

	engine.Stop()
	engine.StopEventLog()
	if err := store.Flush(); err != nil {
		log.Printf("⚠️ %v", err)
	}
	log.Println("👋 Goodbye!")
}
