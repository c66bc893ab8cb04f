package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gltf-viewer/remote"
	"gltf-viewer/renderer"
	"gltf-viewer/scene"
	"gltf-viewer/settings"
)

type options struct {
	lookAt      string
	width       int
	height      int
	output      string
	config      string
	watchConfig bool
	controlAddr string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "gltf-viewer <file.gltf>",
		Short:         "Deferred glTF viewer with SSAO and bloom",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.lookAt, "lookat", "", "camera as eye,center,up (9 comma-separated numbers)")
	f.IntVar(&opts.width, "width", 1280, "viewport width in pixels")
	f.IntVar(&opts.height, "height", 720, "viewport height in pixels")
	f.StringVarP(&opts.output, "output", "o", "", "render one frame to this image (.png, .bmp, .tiff) and exit")
	f.StringVar(&opts.config, "config", "", "render parameter file (.toml, .yaml, .json)")
	f.BoolVar(&opts.watchConfig, "watch-config", false, "reload --config when it changes")
	f.StringVar(&opts.controlAddr, "control-addr", "", "serve the WebSocket parameter endpoint on this address")
	f.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")

	cmd.AddCommand(newParamsCmd())
	return cmd
}

func newParamsCmd() *cobra.Command {
	format := string(settings.TOML)
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print the default render parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return settings.Encode(cmd.OutOrStdout(), settings.Defaults(), settings.Format(format))
		},
	}
	cmd.Flags().StringVar(&format, "format", format, "toml, yaml or json")
	return cmd
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func (o options) validate() error {
	if o.width <= 0 || o.height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", o.width, o.height)
	}
	if o.watchConfig && o.config == "" {
		return errors.New("--watch-config needs --config")
	}
	if o.output != "" {
		if _, err := renderer.ExportFormat(o.output); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, path string, opts options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	params := settings.Defaults()
	if opts.config != "" {
		if params, err = settings.Load(opts.config); err != nil {
			return err
		}
	}

	var cam *scene.Camera
	if opts.lookAt != "" {
		c, err := scene.ParseLookAt(opts.lookAt)
		if err != nil {
			return err
		}
		cam = &c
	}

	model, err := scene.Load(path)
	if err != nil {
		return err
	}
	logger.Info("model loaded", "path", path, "nodes", len(model.Doc.Nodes), "meshes", len(model.Doc.Meshes))

	v, err := renderer.NewViewer(model, renderer.Config{
		Width:  opts.width,
		Height: opts.height,
		Title:  "glTF Viewer",
		Camera: cam,
		Params: params,
		Hidden: opts.output != "",
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer v.Close()

	if opts.output != "" {
		return v.Export(opts.output)
	}

	if opts.watchConfig {
		updates, err := settings.Watch(ctx, opts.config, logger)
		if err != nil {
			return err
		}
		v.WatchParams(updates)
	}

	if opts.controlAddr != "" {
		srv := remote.NewServer(v.Params(), logger)
		v.AcceptPatches(srv.Patches())
		v.OnParamsChange(srv.Publish)
		go func() {
			if err := srv.ListenAndServe(ctx, opts.controlAddr); err != nil {
				logger.Error("control server stopped", "err", err)
			}
		}()
	}

	v.OnFrame(newControls().onFrame)
	return v.Run(ctx)
}
