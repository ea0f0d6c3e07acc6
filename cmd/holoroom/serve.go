package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/holoroom/internal/app"
	"github.com/ayusman/holoroom/internal/log"
	"github.com/ayusman/holoroom/internal/server"
	"github.com/ayusman/holoroom/internal/server/api"
	"github.com/ayusman/holoroom/internal/tray"
	"github.com/spf13/cobra"
)

var serveOpts struct {
	addr     string
	mode     string
	camera   int
	record   bool
	withTray bool
	web      string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream the rendered frames and landmarks over HTTP",
	Long: `Serve runs the pipeline without a window. The rendered frames are served
as MJPEG on /api/stream and the landmarks as JSON over a WebSocket on
/api/landmarks. The mode can be switched with PUT /api/mode or from the tray.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveOpts.addr
		}
		if cmd.Flags().Changed("camera") {
			cfg.Camera.DeviceID = serveOpts.camera
		}
		if cmd.Flags().Changed("record") {
			cfg.Record = serveOpts.record
		}
		if cmd.Flags().Changed("web") {
			cfg.Server.StaticDir = serveOpts.web
		}
		if cfg.Server.StaticDir == "" {
			cfg.Server.StaticDir = findWebDir()
		}

		// Sessions and the remembered mode need the database even without recording.
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if cmd.Flags().Changed("mode") {
			cfg.Mode = serveOpts.mode
		} else if saved, err := st.Settings().Get(api.SettingMode); err == nil {
			cfg.Mode = saved
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		a, cleanup, err := buildApp(newCamera(), cameraSource(), st)
		if err != nil {
			return err
		}
		defer cleanup()

		hub := app.NewHub()
		a.AddSink(hub)

		srv := server.New(server.Config{
			StaticDir:  cfg.Server.StaticDir,
			Store:      st,
			Frames:     hub,
			Controller: a,
		})

		log.Info("serving", "addr", cfg.Server.Addr, "mode", a.Mode(), "web", cfg.Server.StaticDir)
		return serve(cmd.Context(), a, srv)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveOpts.addr, "addr", "a", ":8080", "listen address")
	serveCmd.Flags().StringVarP(&serveOpts.mode, "mode", "m", "", "render mode: overlay or room")
	serveCmd.Flags().IntVarP(&serveOpts.camera, "camera", "c", 0, "camera device index")
	serveCmd.Flags().BoolVarP(&serveOpts.record, "record", "r", false, "record landmarks to the session database")
	serveCmd.Flags().BoolVar(&serveOpts.withTray, "tray", false, "show a system tray menu")
	serveCmd.Flags().StringVar(&serveOpts.web, "web", "", "directory with static files for the preview page")
	rootCmd.AddCommand(serveCmd)
}

// serve runs the display loop and the HTTP server until either stops or ctx
// is cancelled. With --tray the tray owns the main thread.
func serve(ctx context.Context, a *app.App, srv *server.Server) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
		cancel()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		record(a.Run(ctx))
	}()
	go func() {
		defer wg.Done()
		record(srv.ListenAndServe(ctx, cfg.Server.Addr))
	}()

	if serveOpts.withTray {
		t := tray.New(a.Mode())
		t.OnPause(a.SetPaused)
		t.OnMode(a.SetMode)
		t.OnOpen(func() {
			if err := openBrowser(previewURL(cfg.Server.Addr)); err != nil {
				log.Warn("failed to open browser", "error", err)
			}
		})
		t.OnQuit(cancel)
		t.OnState(func() (app.Mode, bool) { return a.Mode(), a.IsPaused() })

		go func() {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					t.Quit()
					return
				case <-ticker.C:
					t.Sync()
					t.SetFrames(a.Frames())
				}
			}
		}()
		t.Run()
		cancel()
	}

	wg.Wait()
	return errors.Join(errs...)
}

func previewURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
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
		return fmt.Errorf("open %s: %w", url, err)
	}
	return cmd.Process.Release()
}

// findWebDir looks for the preview page in web, ../web, ../../web and
// ~/.holoroom/web. It returns "" if none exists.
func findWebDir() string {
	candidates := []string{"web", "../web", "../../web"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".holoroom", "web"))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

var (
	_ api.Controller     = (*app.App)(nil)
	_ server.FrameSource = (*app.Hub)(nil)
)
