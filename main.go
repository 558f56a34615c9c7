package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/john/livefeed/internal/avatar"
	"github.com/john/livefeed/internal/bridge"
	"github.com/john/livefeed/internal/config"
	"github.com/john/livefeed/internal/cooldown"
	"github.com/john/livefeed/internal/dedup"
	"github.com/john/livefeed/internal/feed"
	"github.com/john/livefeed/internal/ingest"
	"github.com/john/livefeed/internal/kick"
	"github.com/john/livefeed/internal/logging"
	"github.com/john/livefeed/internal/message"
	"github.com/john/livefeed/internal/notice"
	"github.com/john/livefeed/internal/server"
	"github.com/john/livefeed/internal/twitch"
	"github.com/john/livefeed/internal/validate"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "livefeed",
		Short:         "Serve a live-stream chat feed merged from local, bridged and platform chat",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultPath, "path to the YAML config file")

	return cmd
}

func run(ctx context.Context, configPath string) error {
	bootLog := logging.New("info")

	// A .env file is optional; the environment may be set some other way
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		bootLog.Warn().Err(err).Msg("failed to load .env file")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		bootLog.Error().Err(err).Str("path", configPath).Msg("failed to load config")
		return err
	}

	log := logging.New(cfg.Log.Level)
	log.Info().
		Bool("bridge", cfg.Bridge.Enabled).
		Bool("twitch", cfg.Twitch.Enabled).
		Bool("kick", cfg.Kick.Enabled).
		Msg("configuration loaded")

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	clk := clock.New()

	store := feed.New(feed.Options{
		Capacity:       cfg.Feed.Capacity,
		BurstWindow:    cfg.LikeBurstWindow(),
		BurstThreshold: cfg.Feed.LikeBurstThreshold,
		Viewer:         feed.Identity{Name: cfg.Viewer.Name, Avatar: cfg.Viewer.Avatar},
		Clock:          clk,
		Renderer:       logRenderer{log: log},
	})

	var avatars ingest.AvatarResolver = avatar.Static(cfg.Twitch.DefaultAvatar)
	if cfg.Twitch.Enabled && cfg.Twitch.ClientID != "" {
		avatars = avatar.NewHelix(cfg.Twitch.OAuth, cfg.Twitch.ClientID, log, avatar.WithFallback(cfg.Twitch.DefaultAvatar))
	}

	pipeline, err := ingest.New(ingest.Config{
		BridgeEnabled:           cfg.Bridge.Enabled,
		PlatformEnabled:         cfg.PlatformEnabled(),
		SanitizeExternal:        cfg.Ingest.SanitizeExternal,
		ExternalCooldownSeconds: cfg.Ingest.ExternalCooldownSeconds,
	}, ingest.Deps{
		Store:     store,
		Limiter:   cooldown.New(clk, cfg.Chat.CooldownSeconds),
		Notices:   notice.New(clk, cfg.NoticeTTL()),
		Dedup:     dedup.New(),
		Validator: validate.New(cfg.Chat.MaxLength, cfg.Chat.ForbiddenWords),
		Avatars:   avatars,
		Clock:     clk,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	var bridgeHandler *bridge.Handler
	if cfg.Bridge.Enabled {
		bridgeHandler = bridge.NewHandler(pipeline, cfg.Bridge.AllowedOrigins, log)
	}

	httpServer := server.New(cfg.Server.Addr, server.Deps{
		Pipeline:       pipeline,
		Store:          store,
		Bridge:         bridgeHandler,
		AllowedOrigins: cfg.Bridge.AllowedOrigins,
		Logger:         log,
	})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := pipeline.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("pipeline error")
		}
	}()

	if cfg.Twitch.Enabled {
		twitchConn := twitch.New(cfg.Twitch.Username, cfg.Twitch.OAuth, cfg.Twitch.Channel, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := twitchConn.Start(ctx, pipeline); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Twitch connector error")
			}
		}()
	}

	if cfg.Kick.Enabled {
		channels := make([]kick.ChannelConfig, 0, len(cfg.Kick.Channels))
		for _, ch := range cfg.Kick.Channels {
			channels = append(channels, kick.ChannelConfig{Slug: ch.Slug, ChatroomID: ch.ChatroomID})
		}
		kickAvatar := cfg.Kick.Avatar
		if kickAvatar == "" {
			kickAvatar = avatar.DefaultURL
		}
		kickConn := kick.New(channels, kickAvatar, nil, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := kickConn.Start(ctx, pipeline); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Kick connector error")
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	log.Info().Msg("all components started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server error")
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("error shutting down HTTP server")
	}
	pipeline.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all components stopped gracefully")
	case <-shutdownCtx.Done():
		log.Warn().Msg("shutdown timeout exceeded, forcing exit")
	}

	return nil
}

// logRenderer stands in for the front end when no renderer is attached
type logRenderer struct {
	log zerolog.Logger
}

func (r logRenderer) ScrollToBottom(last message.DisplayMessage) {
	r.log.Debug().Str("id", last.ID).Str("user", last.User).Msg("feed appended")
}

func (r logRenderer) LikeTriggered(state feed.LikeState) {
	r.log.Debug().Int("count", state.Count).Int("burst", state.Burst).Msg("like triggered")
}
