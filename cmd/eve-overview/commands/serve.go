package commands

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AreteDriver/EVE-Overview/internal/api"
	"github.com/AreteDriver/EVE-Overview/internal/capture"
	"github.com/AreteDriver/EVE-Overview/internal/config"
	"github.com/AreteDriver/EVE-Overview/internal/display"
	"github.com/AreteDriver/EVE-Overview/internal/hotkey"
	"github.com/AreteDriver/EVE-Overview/internal/logger"
	"github.com/AreteDriver/EVE-Overview/internal/proc"
	"github.com/AreteDriver/EVE-Overview/internal/scheduler"
	"github.com/AreteDriver/EVE-Overview/internal/window"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the preview overlay and control server",
	Long: `Start EVE-Overview: open a live preview window for every enabled
entry in the active profile and serve the control API.

Each preview refreshes at the profile's rate, stays on top when the
profile says so, and activates its source window when clicked.`,
	Example: `  # Run with the current profile
  eve-overview serve

  # Run a specific profile
  eve-overview serve --profile mining

  # Custom control port and verbose logging
  eve-overview serve --port 9090 --log-level debug`,
	RunE: runServe,
}

var serveProfile string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveProfile, "profile", "", "profile to load (default is the current profile)")
}

// fanoutSink delivers scheduler output to several sinks.
type fanoutSink struct {
	sinks []scheduler.Sink
}

func (f *fanoutSink) PublishFrame(sessionID string, frame *image.RGBA) {
	for _, s := range f.sinks {
		s.PublishFrame(sessionID, frame)
	}
}

func (f *fanoutSink) PublishDegraded(sessionID string) {
	for _, s := range f.sinks {
		s.PublishDegraded(sessionID)
	}
}

// windowService bundles enumeration and activation for the API.
type windowService struct {
	enum *window.Enumerator
	act  *window.Activator
}

func (ws *windowService) List(ctx context.Context) ([]window.Handle, error) {
	return ws.enum.List(ctx)
}

func (ws *windowService) Activate(ctx context.Context, h window.Handle) error {
	return ws.act.Activate(ctx, h)
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigDir())
	if err != nil {
		return fmt.Errorf("failed to initialize config manager: %w", err)
	}

	settings := configMgr.Settings()
	if viper.IsSet("server_port") && viper.GetInt("server_port") > 0 {
		settings.ServerPort = viper.GetInt("server_port")
	}
	if viper.IsSet("log_level") && viper.GetString("log_level") != "" {
		settings.LogLevel = viper.GetString("log_level")
	}
	logger.Init(settings.LogLevel, true)
	log := logger.WithComponent("serve")

	profileName := serveProfile
	if profileName == "" {
		profileName = settings.CurrentProfile
	}
	profile, err := configMgr.LoadProfile(profileName)
	if err != nil {
		return fmt.Errorf("failed to load profile %q: %w", profileName, err)
	}
	log.Info().Str("profile", profile.Name).Int("windows", len(profile.Windows)).Msg("Profile loaded")

	runner := proc.NewRunner(proc.DefaultTimeout)
	enum := window.NewEnumerator(runner)
	activator := window.NewActivator(runner)
	chain := capture.NewChain(runner)

	displayMgr, err := display.NewManager()
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}
	defer displayMgr.Stop()

	hub := api.NewHub()
	sched := scheduler.New(chain, &fanoutSink{sinks: []scheduler.Sink{displayMgr, api.NewEventSink(hub)}})
	defer sched.Stop()

	// Resolve each configured window to a live handle before creating
	// previews.
	handles, err := enum.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}
	sessions := make(map[string]window.Handle)
	hotkeys := hotkey.NewManager(nil)

	for _, wc := range profile.Windows {
		if !wc.Enabled {
			continue
		}
		handle, ok := resolveWindow(wc, handles)
		if !ok {
			log.Warn().
				Str("window_id", wc.WindowID).
				Str("title", wc.WindowTitle).
				Msg("Configured window not found, skipping")
			continue
		}

		sessionID := window.FormatHex(handle.ID)
		opts := display.PreviewOptions{
			Title:        "Preview: " + handle.Title,
			Geometry:     window.Geometry{X: wc.X, Y: wc.Y, Width: wc.Width, Height: wc.Height},
			AlwaysOnTop:  profile.AlwaysOnTop,
			ClickThrough: profile.ClickThrough,
		}
		if err := displayMgr.CreatePreview(sessionID, opts); err != nil {
			log.Error().Err(err).Str("session", sessionID).Msg("Failed to create preview")
			continue
		}
		if err := sched.Add(sessionID, handle, wc.Scale, profile.RefreshRate); err != nil {
			log.Error().Err(err).Str("session", sessionID).Msg("Failed to start session")
			displayMgr.RemovePreview(sessionID)
			continue
		}
		sessions[sessionID] = handle
		hub.Broadcast(api.Event{Type: api.EventSessionAdded, SessionID: sessionID})

		if wc.Hotkey != "" {
			h := handle
			if err := hotkeys.Register(wc.Hotkey, func() {
				if err := activator.Activate(context.Background(), h); err != nil {
					log.Warn().Err(err).Str("window", window.FormatHex(h.ID)).Msg("Hotkey activation failed")
				}
			}); err != nil {
				log.Warn().Err(err).Str("hotkey", wc.Hotkey).Msg("Invalid hotkey, skipping")
			}
		}
	}
	if len(sessions) == 0 {
		log.Warn().Msg("No previews active; check the profile's windows")
	}

	displayMgr.SetActivateHandler(func(sessionID string) {
		handle, ok := sessions[sessionID]
		if !ok {
			return
		}
		if err := activator.Activate(context.Background(), handle); err != nil {
			log.Warn().Err(err).Str("session", sessionID).Msg("Activation failed")
			return
		}
		hub.Broadcast(api.Event{Type: api.EventWindowActivated, SessionID: sessionID})
	})
	if err := displayMgr.Start(); err != nil {
		return fmt.Errorf("failed to start display: %w", err)
	}

	if err := hotkeys.Start(); err != nil {
		log.Warn().Err(err).Msg("Hotkey listener failed to start")
	}
	defer hotkeys.Stop()

	server := api.NewServer(&windowService{enum: enum, act: activator}, sched, configMgr, hub)
	go func() {
		if err := server.Start(settings.ServerPort); err != nil {
			log.Error().Err(err).Msg("Control server error")
		}
	}()

	log.Info().
		Int("sessions", len(sessions)).
		Int("port", settings.ServerPort).
		Msg("EVE-Overview running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// resolveWindow matches a profile entry to a live window: exact id first,
// then title substring. Saved ids go stale across client restarts, so the
// title match keeps old profiles usable.
func resolveWindow(wc config.WindowConfig, handles []window.Handle) (window.Handle, bool) {
	if wc.WindowID != "" {
		if id, err := window.ParseID(wc.WindowID); err == nil {
			for _, h := range handles {
				if h.ID == id {
					return h, true
				}
			}
		}
	}
	if wc.WindowTitle != "" {
		for _, h := range handles {
			if strings.Contains(h.Title, wc.WindowTitle) {
				return h, true
			}
		}
	}
	return window.Handle{}, false
}
