package cmd

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vecplay/vecplay/anim"
	"github.com/vecplay/vecplay/cache"
	"github.com/vecplay/vecplay/config"
	"github.com/vecplay/vecplay/player"
	"github.com/vecplay/vecplay/renderer"
)

type PlayOptions struct {
	Width    int
	Height   int
	Duration time.Duration
	NoCache  bool
}

func NewPlayCommand() *cobra.Command {
	opts := &PlayOptions{}

	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Play a document and log the display cadence",
		Args:  cobra.ExactArgs(1),
		Example: `  vecplay play sticker.json --for 3s
  vecplay play sticker.json.gz --width 128 --height 128 --no-cache`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.Width, "width", 128, "Raster width")
	flags.IntVar(&opts.Height, "height", 128, "Raster height")
	flags.DurationVar(&opts.Duration, "for", 3*time.Second, "How long to play")
	flags.BoolVar(&opts.NoCache, "no-cache", false, "Skip the persisted frame cache")

	return cmd
}

func runPlay(file string, opts *PlayOptions) error {
	request := anim.FrameRequest{Box: anim.Size{Width: opts.Width, Height: opts.Height}}
	pool := renderer.NewPool(config.GetPoolWorkers())
	defer pool.Close()

	playerOpts := player.Options{
		Pool:         pool,
		TickInterval: config.GetTickInterval(),
	}

	var animation *player.Animation
	if opts.NoCache {
		animation = player.New(nil, file, request, playerOpts)
	} else {
		store := cache.NewDiskStore(config.GetCacheDir())
		key := cache.Key(file, request)
		get := func(deliver func(cached []byte)) {
			deliver(store.Load(key))
		}
		put := func(blob []byte) {
			if err := store.Save(key, blob); err != nil {
				fmt.Printf("cache persist failed: %v\n", err)
			}
		}
		animation = player.NewCached(get, put, nil, file, request, playerOpts)
	}
	defer animation.Close()

	deadline := time.After(opts.Duration)
	start := time.Now()
	for {
		select {
		case <-deadline:
			return nil
		case u, ok := <-animation.Updates():
			if !ok {
				return nil
			}
			switch u := u.(type) {
			case player.InformationReady:
				info := u.Information
				fmt.Printf("information: %d frames @ %g fps, %s\n",
					info.FramesCount, info.FrameRate, info.Size)
			case player.DisplayFrameRequest:
				animation.Frame(request)
				animation.MarkFrameShown()
				fmt.Printf("%8.0fms  display frame at position %s\n",
					float64(time.Since(start).Milliseconds()), u.Position)
			case player.Failure:
				return errors.Wrap(u.Err, "playback failed")
			}
		}
	}
}
