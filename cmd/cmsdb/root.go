package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cms-dev/cms/v2/config"
	"github.com/cms-dev/cms/v2/db"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	database   string
	debug      bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "cmsdb",
		Short: "Manage the CMS database",
		Long: `Manage the CMS database.

Connection settings are read from cms.conf (default ` + config.DefaultPath + `)
and can be overridden by CMS_* environment variables or by --database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "",
		"path to cms.conf (default "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&g.database, "database", "",
		"database URL, overriding the configuration (e.g. sqlite:///cms.db)")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false,
		"log every SQL statement")

	root.AddCommand(
		newInitCmd(g),
		newDropCmd(g),
		newCheckCmd(g),
		newContestsCmd(g),
		newSubmissionsCmd(g),
		newResultsCmd(g),
		newFilesCmd(g),
	)
	return root
}

func (g *globals) config() (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if g.database != "" {
		cfg.Database = g.database
	}
	if g.debug {
		cfg.DatabaseDebug = true
	}
	return cfg, nil
}

func (g *globals) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if g.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// open connects using the flags. skipVersionCheck is for the commands that
// create or inspect the schema.
func (g *globals) open(cmd *cobra.Command, skipVersionCheck bool) (*db.Engine, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	return db.Open(cmd.Context(), cfg, db.Options{
		Logger:           g.logger(cmd.ErrOrStderr()),
		SkipVersionCheck: skipVersionCheck,
	})
}

// read runs fn in a read session on a version-checked database.
func (g *globals) read(cmd *cobra.Command, fn func(ctx context.Context, s *db.ScopedSession) (interface{}, error)) error {
	e, err := g.open(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	var out interface{}
	err = e.WithSession(cmd.Context(), func(ctx context.Context, s *db.ScopedSession) error {
		var ferr error
		out, ferr = fn(ctx, s)
		return ferr
	})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
