package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vecplay/vecplay/anim"
	"github.com/vecplay/vecplay/decode"
	"github.com/vecplay/vecplay/player"
	"github.com/vecplay/vecplay/renderer"
)

type ProbeOptions struct {
	Width  int
	Height int
}

func NewProbeCommand() *cobra.Command {
	opts := &ProbeOptions{}

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Validate a document and print its metadata",
		Args:  cobra.ExactArgs(1),
		Example: `  vecplay probe sticker.json
  vecplay probe sticker.json.gz --width 256 --height 256`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.Width, "width", 0, "Raster width (defaults to the document size)")
	flags.IntVar(&opts.Height, "height", 0, "Raster height (defaults to the document size)")

	return cmd
}

func runProbe(file string, opts *ProbeOptions) error {
	content := player.ReadContent(nil, file)
	if content == nil {
		return errors.Errorf("failed to read %s (missing or over the size ceiling)", file)
	}

	request := anim.FrameRequest{Box: anim.Size{Width: opts.Width, Height: opts.Height}}
	pool := renderer.NewPool(1)
	defer pool.Close()

	animation := player.New(content, "", request, player.Options{
		Pool:    pool,
		Decoder: decode.NewJSON(),
	})
	defer animation.Close()

	for u := range animation.Updates() {
		switch u := u.(type) {
		case player.InformationReady:
			info := u.Information
			color.Green("OK %s", file)
			fmt.Printf("  frame rate:   %g fps\n", info.FrameRate)
			fmt.Printf("  frames count: %d\n", info.FramesCount)
			fmt.Printf("  size:         %s\n", info.Size)
			fmt.Printf("  duration:     %.2fs\n", float64(info.FramesCount)/info.FrameRate)
			return nil
		case player.Failure:
			color.Red("FAILED %s", file)
			return u.Err
		}
	}
	return errors.New("animation closed without a result")
}
