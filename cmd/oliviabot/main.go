// oliviabot - Main entry point
//
// The bot answers prefix and slash commands on Discord and reports every
// command failure to an operator webhook.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/oliviabot/oliviabot/pkg/cogs"
	"github.com/oliviabot/oliviabot/pkg/command"
	"github.com/oliviabot/oliviabot/pkg/config"
	"github.com/oliviabot/oliviabot/pkg/diagnostics"
	"github.com/oliviabot/oliviabot/pkg/discord"
	"github.com/oliviabot/oliviabot/pkg/lifecycle"
	"github.com/oliviabot/oliviabot/pkg/logger"
	"github.com/oliviabot/oliviabot/pkg/repo"
	"github.com/oliviabot/oliviabot/pkg/store"
	"github.com/oliviabot/oliviabot/pkg/webhook"
)

var (
	version   = "0.1.0"
	buildTime = "unknown"
)

const reconnectDelay = 5 * time.Second

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "oliviabot",
		Short: "Discord bot with operator failure reports",
		Long: `oliviabot answers text and slash commands on Discord.

Every command failure is classified and posted to the configured
diagnostics webhook. A failure during startup stops the bot.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (TOML)")

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Connect and serve commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.Load(configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration OK")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write an example configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "oliviabot.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.GenerateExampleConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "oliviabot version %s (build: %s)\n", version, buildTime)
		},
	})

	return cmd
}

func run(parent context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger.Version = version
	if err := logger.Initialize(cfg.LoggerConfig("bot")); err != nil {
		return err
	}
	log := logger.Global()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdown := lifecycle.NewSignal()
	shutdown.OnShutdown(cancel)

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := command.RegisterMetrics(metrics); err != nil {
		return fmt.Errorf("register command metrics: %w", err)
	}
	if err := diagnostics.RegisterMetrics(metrics); err != nil {
		return fmt.Errorf("register diagnostics metrics: %w", err)
	}

	var limiter *rate.Limiter
	if n := cfg.Diagnostics.RatePerMinute; n > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 5)
	}
	sink, err := webhook.New(cfg.Diagnostics.WebhookURL, webhook.WithLimiter(limiter))
	if err != nil {
		return err
	}

	diag := diagnostics.NewHandler(diagnostics.HandlerConfig{
		Sink:     sink,
		Shutdown: shutdown,
		Logger:   log.WithComponent("diagnostics"),
	})

	rest := discord.NewClient(cfg.Bot.Token)
	state := discord.NewState(rest)

	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	var history cogs.History
	if r, err := repo.Discover(ctx, cfg.Repo.Path); err != nil {
		log.Warn("could not open a git repository; some features will be unavailable", "error", err)
	} else {
		history = r
	}

	var gateway *discord.Gateway
	deps := cogs.Deps{
		Logos:           st,
		History:         history,
		Latency:         func() time.Duration { return gateway.Latency() },
		SourceURLFormat: cfg.Diagnostics.SourceURLFormat,
		EmbedColor:      int(cfg.Embed.DefaultColor),
	}

	registry := command.NewRegistry(cogs.Commands(deps)...)
	fw := command.New(registry, command.Options{
		Prefix:   cfg.Bot.Prefix,
		Owners:   cfg.Bot.OwnerIDs,
		Platform: rest,
		Cache:    state,
		Logger:   log.WithComponent("framework"),
		OnError:  diag.OnError,
	})

	log.Info("commands registered", "count", registry.Len())

	gwOpts := []discord.GatewayOption{discord.WithLogger(log.WithComponent("gateway"))}
	if cfg.Bot.GatewayURL != "" {
		gwOpts = append(gwOpts, discord.WithGatewayURL(cfg.Bot.GatewayURL))
	}
	intents := discord.IntentGuilds | discord.IntentGuildMessages |
		discord.IntentDirectMessages | discord.IntentMessageContent
	ready := make(chan discord.Ready, 1)
	gateway = discord.NewGateway(cfg.Bot.Token, intents, state, discord.Handlers{
		Ready: func(r discord.Ready) {
			log.Info("connected", "user", r.User.Tag(), "session", r.SessionID)
			select {
			case ready <- r:
			default:
			}
		},
		MessageCreate: func(m discord.Message) {
			fw.HandleMessage(ctx, m)
		},
		InteractionCreate: func(in discord.Interaction) {
			fw.HandleInteraction(ctx, in)
		},
	}, gwOpts...)

	var refresher *store.Refresher
	if cfg.Database.RefreshSchedule != "" && cfg.Database.NeofetchCSV != "" {
		refresher, err = store.NewRefresher(st, cfg.Database.NeofetchCSV, cfg.Database.RefreshSchedule, log.WithComponent("store"))
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runGateway(gctx, gateway, log)
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case r := <-ready:
			return setupOnReady(gctx, fw, rest, st, cfg.Database.NeofetchCSV, r.Application.ID, log)
		}
	})

	if refresher != nil {
		g.Go(func() error {
			return refresher.Run(gctx)
		})
	}

	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
		server := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Info("metrics listening", "addr", cfg.Metrics.Listen)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdown.Shutdown("stopping")
		return nil
	})

	err = g.Wait()
	log.Info("oliviabot stopped", "reason", shutdown.Reason())
	return err
}

// setupOnReady publishes the slash commands and imports the neofetch table.
// Both run inside fw.Setup, so an error is reported as a fatal SetupFailure.
func setupOnReady(ctx context.Context, fw *command.Framework, reg command.Registrar, st *store.Store, csvPath, appID string, log *logger.Logger) error {
	err := fw.Setup(ctx, func(ctx context.Context) error {
		if err := fw.RegisterGlobally(ctx, reg, appID); err != nil {
			return err
		}
		if csvPath == "" {
			return nil
		}
		n, err := st.ImportFile(ctx, csvPath)
		if err != nil {
			return err
		}
		log.Info("neofetch table imported", "rows", n)
		return nil
	})
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	return nil
}

// runGateway keeps a gateway session open until ctx is done, reconnecting
// after dropped connections.
func runGateway(ctx context.Context, gw *discord.Gateway, log *logger.Logger) error {
	for {
		err := gw.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, discord.ErrReconnect) {
			log.Info("gateway requested reconnect")
			continue
		}
		log.Warn("gateway connection lost", "error", err, "retry_in", reconnectDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}
