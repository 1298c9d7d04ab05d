package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shoplist/channel"
	"shoplist/client"
	"shoplist/client/sqlite"
	"shoplist/internal/config"
	"shoplist/internal/utils"
)

// application is initialized by the root command's PersistentPreRunE and
// shared by all subcommands.
var application *App

type App struct {
	cfg    *config.Config
	store  *sqlite.Store
	ws     *channel.WebsocketChannel // nil when offline
	client *client.Client
	logger *utils.Logger
}

// NewApp loads the config, opens the local store and tries to establish the
// live channel. A failed dial is not an error: the app runs in queue-only
// mode and mutations wait for the next sync.
func NewApp(configPath string, verbose, offline bool) (*App, error) {
	if configPath == "" {
		var err error
		configPath, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := utils.NewLogger(cfg.Verbose || verbose)

	store, err := sqlite.NewStore(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	app := &App{cfg: cfg, store: store, logger: logger}

	var ch channel.LiveChannel = channel.NewOfflineChannel()
	var fetcher channel.Fetcher
	if !offline {
		dialCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		ws, err := channel.Dial(dialCtx, cfg.ServerURL, logger)
		cancel()
		if err != nil {
			logger.Info("server unreachable, working offline: %v", err)
		} else {
			app.ws = ws
			ch = ws
			fetcher = ws
		}
	}

	app.client = client.New(client.Options{
		Store:   store,
		Channel: ch,
		Fetcher: fetcher,
		Session: client.Session{UserID: cfg.UserID},
		Logger:  logger,
		Timeout: cfg.Timeout(),
	})
	return app, nil
}

func (a *App) Close() {
	if a.ws != nil {
		a.ws.Close()
	}
	a.store.Close()
}

// findListByName resolves a list by case-insensitive name, falling back to an
// id match so scripted callers can use ids directly.
func (a *App) findListByName(name string) (client.List, error) {
	snap, err := a.client.Snapshot()
	if err != nil {
		return client.List{}, err
	}
	for _, l := range snap.Lists {
		if strings.EqualFold(l.Name, name) || l.ID.Value == name {
			return l, nil
		}
	}
	return client.List{}, fmt.Errorf("list '%s' not found", name)
}

// findItemByName resolves an item inside a list the same way.
func (a *App) findItemByName(list client.List, name string) (client.Item, error) {
	for _, it := range list.Items {
		if strings.EqualFold(it.Name, name) || it.ID.Value == name {
			return it, nil
		}
	}
	return client.Item{}, fmt.Errorf("item '%s' not found in list '%s'", name, list.Name)
}

func main() {
	var (
		configPath string
		verbose    bool
		offline    bool
	)

	rootCmd := &cobra.Command{
		Use:   "shoplist [list-name]",
		Short: "Offline-first shared shopping lists",
		Long: `Offline-first shopping list client.

Every change applies to the local snapshot immediately and syncs to the
server when a connection is available. Changes made offline queue up and
replay in order on the next sync.

Examples:
  shoplist                      # Show all lists
  shoplist Groceries            # Show one list
  shoplist add Groceries Milk   # Add an item
  shoplist sync                 # Push pending changes, pull server state`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(configPath, verbose, offline)
			if err != nil {
				return err
			}
			application = app
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if application != nil {
				application.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runLists(cmd, args)
			}
			list, err := application.findListByName(args[0])
			if err != nil {
				return err
			}
			fmt.Println(renderList(list))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Skip connecting to the server")

	rootCmd.AddCommand(newListsCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newToggleCmd())
	rootCmd.AddCommand(newRmCmd())
	rootCmd.AddCommand(newCommentCmd())
	rootCmd.AddCommand(newQtyCmd())
	rootCmd.AddCommand(newShareCmd())
	rootCmd.AddCommand(newPrivateCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newExportCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
