// cmd/botport/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/mattn/go-isatty"

	_ "github.com/keshon/botport/addons/about"
	_ "github.com/keshon/botport/addons/ping"
	_ "github.com/keshon/botport/addons/welcome"
	_ "github.com/keshon/botport/events"

	"github.com/keshon/botport/internal/banner"
	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/command"
	"github.com/keshon/botport/internal/config"
	"github.com/keshon/botport/internal/discord"
	"github.com/keshon/botport/internal/errclass"
	"github.com/keshon/botport/internal/lang"
	"github.com/keshon/botport/internal/loader"
	"github.com/keshon/botport/internal/logger"
	"github.com/keshon/botport/internal/members"
	"github.com/keshon/botport/internal/module"
	"github.com/keshon/botport/internal/router"
	"github.com/keshon/botport/internal/storage"
	"github.com/keshon/botport/internal/version"
)

type Options struct {
	EnvFile  string `long:"env" default:".env" description:"Path to the .env file"`
	Debug    bool   `long:"debug" description:"Enable debug logging (same as DEBUG=true)"`
	NoBanner bool   `long:"no-banner" description:"Do not print the startup banner"`
	Version  bool   `long:"version" description:"Print the version and exit"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if opts.Version {
		fmt.Printf("%s %s, %s\n", version.AppName, version.String(), version.Release())
		return
	}

	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if opts.Debug {
		cfg.Debug = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, cfg, !opts.NoBanner && cfg.ShowBanner))
}

func run(ctx context.Context, cfg *config.Config, showBanner bool) int {
	log := logger.New(os.Stdout, logger.Options{Debug: cfg.Debug, File: cfg.LogFile})
	if showBanner {
		banner.Print(os.Stdout, isatty.IsTerminal(os.Stdout.Fd()))
	}
	log.Info("Starting bot", "app", version.AppName, "version", version.String())

	if !checkCredentials(cfg, log) {
		return 1
	}

	classifier := errclass.New()

	store, err := storage.Open(ctx, cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		classifier.Report(log, err, "database connection")
		return 1
	}
	defer store.Close()
	if _, err := store.InitSchema(ctx, under(cfg.ProjectDir, cfg.SchemaDir)); err != nil {
		log.Warn("Skipping schema initialization", "error", err)
	}

	msgs, err := lang.Load(under(cfg.ProjectDir, cfg.LangFile))
	if err != nil {
		log.Warn("Failed to load language file, using defaults", "path", cfg.LangFile, "error", err)
	}

	bus := bot.NewBus(log)
	client, err := discord.New(cfg.Token, bus, log)
	if err != nil {
		classifier.Report(log, err, "gateway session")
		return 1
	}

	registry := command.NewRegistry()
	modules := module.NewMulti(module.NewManifest(cfg.ProjectDir), module.NewScript(log))
	ld := loader.New(modules, client, log)

	haveCommands := ld.Commands(ctx, under(cfg.ProjectDir, cfg.AddonsDir), registry)
	ld.Events(ctx, under(cfg.ProjectDir, cfg.EventsDir))
	ld.Addons(ctx, cfg.Addons, under(cfg.ProjectDir, cfg.AddonsDir))

	rt := router.New(registry, client, msgs, log, commandMiddleware(log)...)
	client.Attach(ctx, discord.DispatchFunc(func(ctx context.Context, in command.Interaction) {
		rt.Dispatch(ctx, in)
	}))

	cache, err := discord.OpenHashCache(under(cfg.ProjectDir, cfg.CommandCache))
	if err != nil {
		log.Warn("Command cache unreadable, starting empty", "error", err)
	}
	publisher := discord.NewPublisher(client.Session(), discord.Credentials{
		Token:    cfg.Token,
		ClientID: cfg.ClientID,
		GuildID:  cfg.GuildID,
	}, cache, log)

	halt := make(chan int, 1)
	registrar := members.New(
		discord.NewMemberSource(client.Session(), client.Session().State),
		store, classifier, log,
		members.WithWorkers(cfg.MemberWorkers),
		members.WithExit(func(code int) {
			select {
			case halt <- code:
			default:
			}
		}),
	)

	client.Once("READY", func(ctx context.Context, _ ...any) error {
		go func() {
			if haveCommands {
				if _, err := publisher.Publish(ctx, registry.Definitions()); err != nil {
					classifier.Report(log, err, "command registration")
				}
			}
			registrar.Run(ctx)
		}()
		return nil
	})

	if err := client.Open(); err != nil {
		classifier.Report(log, err, "gateway login")
		return 1
	}
	defer client.Close()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received, cleaning up")
		return 0
	case code := <-halt:
		log.Error("Stopping after a critical error")
		return code
	}
}

// checkCredentials reports whether the bot can log in. Without CLIENT_ID
// or GUILD_ID it still runs, but slash commands are not published.
func checkCredentials(cfg *config.Config, log logger.Logger) bool {
	missing := cfg.Missing()
	if len(missing) == 0 {
		return true
	}
	if slices.Contains(missing, "TOKEN") {
		log.Error("Missing required environment variables", "missing", missing)
		return false
	}
	log.Warn("Slash command registration will be skipped", "missing", missing)
	return true
}

// commandMiddleware wraps every command handler. Commands are published as
// guild commands, so direct-message invocations are dropped.
func commandMiddleware(log logger.Logger) []command.Middleware {
	return []command.Middleware{command.WithLogging(log), command.GuildOnly()}
}

// under resolves p against base unless it is absolute.
func under(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
