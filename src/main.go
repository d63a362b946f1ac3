package main

import (
	"fmt"
	"os"

	"mockmongo/src/client"
	"mockmongo/src/helpers"
	"mockmongo/src/settings"

	"github.com/spf13/cobra"
)

var version = "0.0.1alpha"

func newRootCmd() *cobra.Command {
	var (
		configFile string
		uri        string
		dbName     string
		debug      bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "mockmongo [collection...]",
		Short: "An in-memory MongoDB database emulator",
		Long: `Opens an in-memory database, creates the named collections and pings it.

Examples:
  mockmongo --db=somedb users orders
  mockmongo --uri=mongodb://db.example:27018 --debug`,
		Version: version,
		RunE: func(cmd *cobra.Command, collections []string) error {
			args, err := settings.Load(configFile)
			if err != nil {
				return err
			}
			args.Debug = args.Debug || debug
			args.Verbose = args.Verbose || verbose
			settings.SetSettings(args)

			logger, err := helpers.NewLogger(args)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			mongoClient, err := client.NewClient(uri, logger)
			if err != nil {
				return err
			}

			// Configuration is valid; later failures are not usage errors.
			cmd.SilenceUsage = true

			db := mongoClient.Database(dbName)
			for _, name := range collections {
				if _, err := db.CreateCollection(name); err != nil {
					return fmt.Errorf("creating collection %q: %w", name, err)
				}
			}

			resp, err := db.Command("ping")
			if err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			names, err := db.ListCollectionNames()
			if err != nil {
				return fmt.Errorf("listing collections: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, db)
			fmt.Fprintf(out, "ping: %v\n", resp)
			fmt.Fprintf(out, "collections: %v\n", names)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&uri, "uri", "", "Connection string the client reports (default: host and port from settings)")
	cmd.Flags().StringVar(&dbName, "db", "test", "Database to open")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug mode")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
