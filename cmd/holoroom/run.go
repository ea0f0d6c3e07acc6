package main

import (
	"fmt"

	"github.com/ayusman/holoroom/internal/app"
	"github.com/ayusman/holoroom/internal/capture"
	"github.com/ayusman/holoroom/internal/log"
	"github.com/ayusman/holoroom/internal/store"
	"github.com/spf13/cobra"
)

var runOpts struct {
	mode     string
	camera   int
	record   bool
	headless bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Show the live camera with landmarks in a window",
	Long: `Run opens the camera and shows every frame with the detected hands, body
pose and face mesh. In overlay mode skeletons are drawn on the picture with
an FPS counter; in room mode they are drawn on a black canvas.
Press q or Esc in the window to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("mode") {
			cfg.Mode = runOpts.mode
		}
		if cmd.Flags().Changed("camera") {
			cfg.Camera.DeviceID = runOpts.camera
		}
		if cmd.Flags().Changed("record") {
			cfg.Record = runOpts.record
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		a, cleanup, err := buildApp(newCamera(), cameraSource(), nil)
		if err != nil {
			return err
		}
		defer cleanup()

		if !runOpts.headless {
			a.AddSink(app.NewWindowSink(cfg.Window))
		}

		log.Info("starting", "mode", a.Mode(), "camera", cfg.Camera.DeviceID, "record", cfg.Record)
		return a.Run(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVarP(&runOpts.mode, "mode", "m", "", "render mode: overlay or room")
	runCmd.Flags().IntVarP(&runOpts.camera, "camera", "c", 0, "camera device index")
	runCmd.Flags().BoolVarP(&runOpts.record, "record", "r", false, "record landmarks to the session database")
	runCmd.Flags().BoolVar(&runOpts.headless, "headless", false, "do not open a window")
	rootCmd.AddCommand(runCmd)
}

func newCamera() capture.Camera {
	return capture.NewCamera(cfg.Camera.DeviceID, capture.Settings{
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		FPS:    cfg.Camera.FPS,
	})
}

func cameraSource() string {
	return fmt.Sprintf("camera:%d", cfg.Camera.DeviceID)
}

// buildApp wires detectors and, when recording, the session recorder around
// cam. st is reused for recording if non-nil. cleanup closes whatever
// buildApp opened that Run does not close.
func buildApp(cam capture.Camera, source string, st *store.Store) (*app.App, func(), error) {
	mode, err := app.ParseMode(cfg.Mode)
	if err != nil {
		return nil, nil, err
	}

	detectors, err := app.NewDetectors(cfg)
	if err != nil {
		return nil, nil, err
	}

	a := app.New(app.Options{
		Camera:    cam,
		Detectors: detectors,
		Mode:      mode,
		ShowFPS:   cfg.ShowFPS,
	})

	cleanup := func() {}
	if cfg.Record {
		if st == nil {
			opened, err := openStore()
			if err != nil {
				detectors.Close()
				return nil, nil, err
			}
			st = opened
			cleanup = func() { opened.Close() }
		}
		a.AddSink(app.NewRecorderSink(st, source))
	}

	return a, cleanup, nil
}
