package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ayusman/holoroom/internal/app"
	"github.com/ayusman/holoroom/internal/capture"
	"github.com/ayusman/holoroom/internal/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"
)

var renderOpts struct {
	input  string
	output string
	mode   string
	record bool
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a video file through the landmark pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("mode") {
			cfg.Mode = renderOpts.mode
		}
		if cmd.Flags().Changed("record") {
			cfg.Record = renderOpts.record
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if renderOpts.input == renderOpts.output {
			return errors.New("input and output must differ")
		}

		video := capture.NewVideoFile(renderOpts.input)
		if err := video.Open(); err != nil {
			return err
		}

		a, cleanup, err := buildApp(video, renderOpts.input, nil)
		if err != nil {
			video.Close()
			return err
		}
		defer cleanup()

		total := video.FrameCount()
		if total <= 0 {
			// unknown length, show a spinner
			total = -1
		}
		bar := progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Rendering"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)

		out := app.NewVideoSink(renderOpts.output, video.SourceFPS())
		a.AddSink(out)
		a.AddSink(&progressSink{bar: bar})

		if err := a.Run(cmd.Context()); err != nil {
			return err
		}

		log.Info("render finished", "frames", out.Frames(), "output", renderOpts.output)
		fmt.Fprintf(os.Stderr, "\nWrote %d frames to %s\n", out.Frames(), renderOpts.output)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOpts.input, "input", "i", "", "input video")
	renderCmd.Flags().StringVarP(&renderOpts.output, "output", "o", "", "output video (.mp4 or .avi)")
	renderCmd.Flags().StringVarP(&renderOpts.mode, "mode", "m", "", "render mode: overlay or room")
	renderCmd.Flags().BoolVarP(&renderOpts.record, "record", "r", false, "record landmarks to the session database")

	renderCmd.MarkFlagRequired("input")
	renderCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(renderCmd)
}

// progressSink advances a progress bar once per frame.
type progressSink struct {
	bar *progressbar.ProgressBar
}

func (p *progressSink) Consume(frame *gocv.Mat, res *app.Result) error {
	return p.bar.Add(1)
}

func (p *progressSink) Close() error {
	return p.bar.Finish()
}
