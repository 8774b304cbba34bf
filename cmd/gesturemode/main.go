package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"

	"github.com/talkheal/gesturemode/internal/app"
	"github.com/talkheal/gesturemode/internal/config"
	"github.com/talkheal/gesturemode/internal/server"
	"github.com/talkheal/gesturemode/internal/tray"
)

func main() {
	parser := argparse.NewParser("gesturemode", "Hand gesture input for the chat client")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Configuration file (JSON)", Default: config.DefaultConfigPath})
	device := parser.Int("d", "device", &argparse.Options{Help: "Camera device index (overrides config)", Default: -1})
	source := parser.String("", "source", &argparse.Options{Help: "Video file or stream URL to read instead of a camera", Default: ""})
	addr := parser.String("a", "addr", &argparse.Options{Help: "HTTP listen address (overrides config)", Default: ""})
	webDir := parser.String("", "web", &argparse.Options{Help: "Directory with the settings UI", Default: ""})
	showTray := parser.Flag("", "tray", &argparse.Options{Help: "Show the system tray icon", Default: false})
	autostart := parser.Flag("", "start", &argparse.Options{Help: "Start gesture mode immediately", Default: false})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	log, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(log, *configFile)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
	if *device >= 0 {
		cfg.Camera.Device = *device
	}
	if *source != "" {
		cfg.Camera.Source = *source
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *webDir != "" {
		cfg.Server.StaticDir = *webDir
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = findWebDir()
	}
	if *showTray {
		cfg.Tray = true
	}
	if *autostart {
		cfg.Autostart = true
	}
	if err := cfg.Validate(); err != nil {
		log.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	a, err := app.New(log, cfg)
	if err != nil {
		log.Errorf("Failed to initialize: %v", err)
		os.Exit(1)
	}

	srv := server.New(server.Config{
		Log:        log,
		StaticDir:  cfg.Server.StaticDir,
		Controller: a,
		Store:      a.Store(),
		Hooks:      a.Hooks(),
		Preview:    a.Preview(),
	})
	a.AddReporter(srv.Hub())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe(cfg.Server.Addr)
	}()

	if cfg.Autostart {
		if err := a.Start(ctx); err != nil {
			log.Warnf("Gesture mode did not start: %v", err)
		}
	}

	if cfg.Tray {
		t := tray.New(log, a)
		a.AddReporter(t)
		t.OnSettings(func() { openBrowser(log, "http://"+cfg.Server.Addr) })
		t.OnQuit(stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// systray must own the main thread on some platforms.
		go waitServer(log, serverErr, stop)
		t.Run()
	} else {
		select {
		case <-ctx.Done():
		case err := <-serverErr:
			if err != nil {
				log.Errorf("Server failed: %v", err)
			}
		}
	}

	log.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Server shutdown: %v", err)
	}
	if err := a.Close(); err != nil {
		log.Warnf("Close: %v", err)
	}
}

// waitServer triggers shutdown when the server stops on its own.
func waitServer(log logs.Log, serverErr <-chan error, stop func()) {
	if err := <-serverErr; err != nil {
		log.Errorf("Server failed: %v", err)
	}
	stop()
}

func loadConfig(log logs.Log, path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if path != config.DefaultConfigPath {
			return nil, fmt.Errorf("config file %s not found", path)
		}
		log.Infof("No %s, using defaults", path)
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	log.Infof("Loaded config from %s", path)
	return cfg, nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.gesturemode/web.
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

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".gesturemode", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

func openBrowser(log logs.Log, url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warnf("Failed to open browser: %v", err)
	}
}
