package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	fv := registerFlags()
	flag.Parse()
	cfg := loadConfig(*fv.configPath)
	fv.applyTo(&cfg)
	if cfg.Dev {
		cfg.LogDebug = true
	}

	if err := InitAppLogger(cfg.toLogConfig()); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer GetAppLogger().Close()
	if GetAppLogger().IsEnabled() {
		log.Printf("Extended logging enabled (dir=%s ws=%v game=%v debug=%v)",
			cfg.LogOutputDir, cfg.LogWS, cfg.LogGame, cfg.LogDebug)
	}

	stats, err := openStatsStore(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer stats.Close()

	hub := newHub()
	go hub.run()
	defer hub.stop()

	game := newGame(cfg, hub, newTimerScheduler(), stats)
	game.storyteller = initStoryteller(cfg)

	auth := &authHandler{stats: stats}

	mux := http.NewServeMux()
	mux.HandleFunc("/signup", auth.handleSignup)
	mux.HandleFunc("/login", auth.handleLogin)
	mux.HandleFunc("/logout", auth.handleLogout)
	mux.Handle("/ws", serveWS(hub, auth, game))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		log.Printf("Listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
