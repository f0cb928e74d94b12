package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/five82/krui/internal/config"
	"github.com/five82/krui/internal/link"
	"github.com/five82/krui/internal/logging"
	"github.com/five82/krui/internal/prefs"
	"github.com/five82/krui/internal/transport"
	"github.com/five82/krui/internal/ui"
)

const projectURL = "https://github.com/five82/krui"

// Options configure the krui application.
type Options struct {
	ConfigPath string // empty uses ~/.config/krui/config.toml
	PrefsPath  string // empty uses ~/.config/krui/prefs.toml
	LogPath    string // overrides log_file from the config
	Endpoint   string // overrides endpoint from the config
	Version    string
}

// runtime is everything Run wires together before the UI starts.
type runtime struct {
	cfg    config.Config
	prefs  prefs.Prefs
	logger zerolog.Logger
	logs   io.Closer
	link   *link.Link
}

// Run boots the krui TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logs.Close() }()

	rt.link.Start(ctx)
	defer rt.link.Stop()

	err = ui.Run(ui.Options{
		Context:   ctx,
		Link:      rt.link,
		Prefs:     rt.prefs,
		PrefsPath: opts.PrefsPath,
		Endpoint:  rt.cfg.Endpoint,
		Logger:    rt.logger,
	})
	if err != nil {
		rt.logger.Error().Err(err).Msg("ui exited")
		return fmt.Errorf("run ui: %w", err)
	}
	rt.logger.Info().Msg("exiting")
	return nil
}

// setup loads configuration, opens the log and builds the link. Nothing
// touches the network until the link is started.
func setup(opts Options) (runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return runtime{}, fmt.Errorf("load config: %w", err)
	}
	if opts.Endpoint != "" {
		if err := cfg.SetEndpoint(opts.Endpoint); err != nil {
			return runtime{}, err
		}
	}
	if opts.LogPath != "" {
		cfg.LogFile = opts.LogPath
	}

	logger, logs, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return runtime{}, fmt.Errorf("open log: %w", err)
	}
	logger.Info().
		Str("endpoint", cfg.Endpoint).
		Str("version", opts.Version).
		Str("log_file", cfg.LogFile).
		Msg("starting")

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn().Err(err).Msg("load prefs, using defaults")
	}

	sup := transport.NewSupervisor(transport.Options{
		Endpoint:    cfg.Endpoint,
		MinBackoff:  cfg.ReconnectMin,
		MaxBackoff:  cfg.ReconnectMax,
		ReadTimeout: cfg.ReadTimeout,
		Logger:      logger,
	})
	lnk := link.New(sup, link.Options{
		ClientName:   cfg.ClientName,
		Version:      opts.Version,
		URL:          projectURL,
		HistoryLimit: cfg.HistoryLimit,
		ConsoleLimit: cfg.ConsoleLimit,
		Logger:       logger,
	})

	return runtime{
		cfg:    cfg,
		prefs:  userPrefs,
		logger: logger,
		logs:   logs,
		link:   lnk,
	}, nil
}
