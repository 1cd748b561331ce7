package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/rocade/rocade/internal/assets"
	"github.com/rocade/rocade/internal/config"
	"github.com/rocade/rocade/internal/igdb"
	"github.com/rocade/rocade/internal/library"
	"github.com/rocade/rocade/internal/steam"
	"github.com/rocade/rocade/internal/store"
	"github.com/rocade/rocade/internal/twitch"
)

// Version is set at build time via -ldflags
var Version = "dev"

const usage = `Usage: rocade <command> [arguments]

Commands:
  refresh              rebuild the library from Steam and IGDB
  list [query]         list stored games, optionally filtered by name
  show <id>            show one game with its install status
  resolve <appid>      look up IGDB metadata for a Steam App ID
  install <id>         install a game through the Steam client
  uninstall <id>       uninstall a game through the Steam client
  config [init]        show effective paths, or write the config file
`

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if showVersion {
		fmt.Printf("rocade %s\n", Version)
		return
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("no command given")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := config.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = config.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting rocade", "version", Version, "command", args[0])

	// The config command must work before any credentials are set
	if args[0] == "config" {
		return runConfig(cfg, args)
	}

	if !cfg.IsConfigured() {
		return fmt.Errorf("missing credentials: set steam.api_key, steam.profile_id, twitch.client_id and twitch.client_secret in the config file")
	}

	// Clients and storage, constructed once and passed down explicitly
	db, err := store.Open(cfg.DatabasePath(), logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	mirror, err := assets.NewMirror(cfg.AssetsDir(), logger)
	if err != nil {
		return fmt.Errorf("failed to init asset cache: %w", err)
	}

	storefront := steam.NewClient(cfg.Steam.APIKey, cfg.Steam.ProfileID, logger)
	local := steam.NewLocal(cfg.Steam.AppsDir, logger)
	tokens := twitch.NewClient(cfg.Twitch.ClientID, cfg.Twitch.ClientSecret, logger)
	resolver := igdb.NewClient(tokens, tokens.ClientID(), logger)

	svc := library.NewService(storefront, resolver, db, mirror, local, local, logger)

	ctx := context.Background()

	switch args[0] {
	case "refresh":
		return runRefresh(ctx, svc)
	case "list":
		query := ""
		if len(args) > 1 {
			query = args[1]
		}
		return runList(ctx, svc, query)
	case "show":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		return runShow(ctx, svc, id)
	case "resolve":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		return runResolve(ctx, svc, uint64(id))
	case "install":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		return svc.Install(ctx, id)
	case "uninstall":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		return svc.Uninstall(ctx, id)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func parseID(args []string) (int64, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires an id argument", args[0])
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[1])
	}
	return id, nil
}

func runConfig(cfg *config.Config, args []string) error {
	if len(args) > 1 && args[1] == "init" {
		if err := config.SaveConfig(cfg); err != nil {
			return err
		}
		fmt.Println("Config file written; fill in the Steam and Twitch credentials.")
		return nil
	}

	fmt.Printf("Database: %s\n", cfg.DatabasePath())
	fmt.Printf("Assets:   %s\n", cfg.AssetsDir())
	fmt.Printf("Log file: %s\n", cfg.Logging.File)
	fmt.Printf("Steam apps: %s\n", cfg.Steam.AppsDir)
	fmt.Printf("Configured: %t\n", cfg.IsConfigured())
	return nil
}

func runRefresh(ctx context.Context, svc *library.Service) error {
	fmt.Println("Refreshing library...")

	result, err := svc.Refresh(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Done: %d owned, %d resolved, %d covers, %d artworks\n",
		result.Owned, result.Resolved, result.Covers, result.Artworks)
	return nil
}

func runList(ctx context.Context, svc *library.Service, query string) error {
	games, err := svc.ListGames(ctx, query)
	if err != nil {
		return err
	}

	for _, game := range games {
		installed := " "
		if game.IsInstalled != nil && *game.IsInstalled {
			installed = "*"
		}
		year := ""
		if y := game.ReleaseYear(); y > 0 {
			year = fmt.Sprintf(" (%d)", y)
		}
		fmt.Printf("%5d %s %s%s\n", game.ID, installed, game.Name, year)
	}

	fmt.Printf("%d games\n", len(games))
	return nil
}

func runShow(ctx context.Context, svc *library.Service, id int64) error {
	game, err := svc.GetGame(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", game.Name)
	if game.Summary != nil {
		fmt.Printf("\n%s\n", *game.Summary)
	}
	if y := game.ReleaseYear(); y > 0 {
		fmt.Printf("\nReleased:   %d\n", y)
	}
	if len(game.Genres) > 0 {
		fmt.Printf("Genres:     %v\n", game.Genres)
	}
	if len(game.Developers) > 0 {
		fmt.Printf("Developers: %v\n", game.Developers)
	}
	if len(game.Publishers) > 0 {
		fmt.Printf("Publishers: %v\n", game.Publishers)
	}
	if game.CoverPath != nil {
		fmt.Printf("Cover:      %s\n", *game.CoverPath)
	}
	if game.IsInstalled != nil {
		fmt.Printf("Installed:  %t\n", *game.IsInstalled)
	}
	return nil
}

func runResolve(ctx context.Context, svc *library.Service, appID uint64) error {
	game, err := svc.ResolveGame(ctx, appID)
	if err != nil {
		return err
	}

	fmt.Printf("%s (IGDB %d)\n", game.Name, game.CatalogID)
	if game.Summary != nil {
		fmt.Printf("\n%s\n", *game.Summary)
	}
	if len(game.Genres) > 0 {
		fmt.Printf("\nGenres: %v\n", game.Genres)
	}
	return nil
}
