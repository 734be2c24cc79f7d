package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/asana/internal/app"
	"github.com/ayusman/asana/internal/classification"
	"github.com/ayusman/asana/internal/config"
	"github.com/ayusman/asana/internal/server"
	"github.com/ayusman/asana/internal/store"
	"github.com/ayusman/asana/internal/tray"
)

func main() {
	fmt.Println("Asana - Pose Classification and Repetition Counting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize the store
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}
	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	application := app.New(app.Config{Store: st, Settings: cfg})
	defer application.Close()

	// A configured reference file replaces the stored set on every start
	if cfg.SamplesPath != "" {
		if _, err := application.ImportSamples(cfg.SamplesPath); err != nil {
			log.Printf("Failed to import samples from %s: %v", cfg.SamplesPath, err)
		}
	}
	if application.Classifier() == nil {
		if err := application.LoadClassifier(); err != nil {
			log.Fatalf("Failed to load reference samples: %v", err)
		}
	}
	if application.Classifier() == nil {
		log.Println("No reference samples loaded; set samples_path to import a reference file")
	}

	if err := application.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}

	if err := application.StartReaper(cfg.ReaperSchedule); err != nil {
		log.Fatalf("Failed to start session reaper: %v", err)
	}

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		App:       application,
	})
	httpSrv := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	quitCh := make(chan struct{})

	if cfg.Tray {
		// The tray owns the main goroutine until it quits
		tr := newTray(application, cfg.Addr, quitCh)
		tr.OnQuit(func() { close(quitCh) })
		go func() {
			waitForStop(errCh, sigCh, quitCh)
			tr.Quit()
		}()
		tr.Run()
	} else {
		waitForStop(errCh, sigCh, quitCh)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.CloseStreams()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// waitForStop blocks until the server fails, a signal arrives or quit is closed.
func waitForStop(errCh <-chan error, sigCh <-chan os.Signal, quit <-chan struct{}) {
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
		}
	case sig := <-sigCh:
		log.Printf("Received %s, shutting down", sig)
	case <-quit:
		log.Println("Quit from tray, shutting down")
	}
}

// newTray creates a tray that shows the latest repetition and the number of
// open sessions until stop is closed.
func newTray(application *app.App, addr string, stop <-chan struct{}) *tray.Tray {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	tr := tray.New("http://" + host)

	application.OnRep(func(_ string, ev classification.RepEvent) {
		tr.SetLastRep(fmt.Sprintf("%s : %d reps", ev.Class, ev.Reps))
	})

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				tr.SetSessions(len(application.Sessions()))
			}
		}
	}()

	return tr
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web" and "../../web".
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}
	return ""
}
