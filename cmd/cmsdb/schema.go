package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cms-dev/cms/v2/db"
	"github.com/cms-dev/cms/v2/errors"
	"github.com/cms-dev/cms/v2/model"
)

func newInitCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the tables and stamp the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.Init(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database initialized at schema version %d\n", model.Version)
			return nil
		},
	}
}

func newDropCmd(g *globals) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every CMS table, data included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.Errorf("refusing to drop the database without --yes")
			}
			e, err := g.open(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.Drop(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database dropped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm dropping all data")
	return cmd
}

func newCheckCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that the database schema matches this build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()

			v, err := db.StoredVersion(cmd.Context(), e.DB())
			if err != nil {
				return err
			}
			if v != model.Version {
				return errors.Newf(errors.ErrSchemaVersionMismatch,
					"database is at schema version %d, this build expects %d", v, model.Version)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d: ok\n", v)
			return nil
		},
	}
}
