package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vecplay/vecplay/cache"
	"github.com/vecplay/vecplay/config"
	"github.com/vecplay/vecplay/internal/server"
	"github.com/vecplay/vecplay/player"
	"github.com/vecplay/vecplay/renderer"
)

type ServeOptions struct {
	Addr    string
	NoCache bool
}

func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve <file>",
		Short: "Serve a document as a websocket preview stream",
		Args:  cobra.ExactArgs(1),
		Example: `  vecplay serve sticker.json
  vecplay serve sticker.json --addr localhost:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Addr, "addr", config.GetPreviewAddr(), "Listen address")
	flags.BoolVar(&opts.NoCache, "no-cache", false, "Skip the persisted frame cache")

	return cmd
}

func runServe(file string, opts *ServeOptions) error {
	pool := renderer.NewPool(config.GetPoolWorkers())
	defer pool.Close()

	var store *cache.DiskStore
	if !opts.NoCache {
		store = cache.NewDiskStore(config.GetCacheDir())
	}

	srv := server.New(opts.Addr, file, store, player.Options{
		Pool:         pool,
		TickInterval: config.GetTickInterval(),
	})
	return srv.ListenAndServe()
}
