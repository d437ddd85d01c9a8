package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cms-dev/cms/v2/db"
	"github.com/cms-dev/cms/v2/errors"
	"github.com/cms-dev/cms/v2/query"
)

// contestFlag is the -c flag: a numeric contest id or ALL.
type contestFlag struct {
	raw string
}

func (f *contestFlag) register(cmd *cobra.Command, def string) {
	cmd.Flags().StringVarP(&f.raw, "contest", "c", def, "the numeric contest ID or the 'ALL' string")
}

// id returns nil for ALL.
func (f *contestFlag) id() (*int64, error) {
	if f.raw == "ALL" {
		return nil, nil
	}
	id, err := strconv.ParseInt(f.raw, 10, 64)
	if err != nil {
		return nil, errors.Errorf("the contest ID %q is not valid", f.raw)
	}
	return &id, nil
}

// required returns the id, refusing ALL.
func (f *contestFlag) required(ctx context.Context, s *db.ScopedSession) (int64, error) {
	id, err := f.id()
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, errors.Errorf("a single contest is required")
	}
	ok, err := query.IsContestID(ctx, s, *id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.Errorf("there is no contest with ID %d", *id)
	}
	return *id, nil
}

func newContestsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "contests",
		Short: "List the contests as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.read(cmd, func(ctx context.Context, s *db.ScopedSession) (interface{}, error) {
				return query.ContestList(ctx, s)
			})
		},
	}
}

func newSubmissionsCmd(g *globals) *cobra.Command {
	var (
		contest contestFlag
		active  bool
		tests   bool
		prints  bool
	)
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "Dump a contest's submissions, user tests or print jobs as JSON",
		Long: `Dump a contest's submissions as JSON, each with its token and results.

With --active only the results against each task's active dataset are
printed. --user-tests and --print-jobs dump those instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.read(cmd, func(ctx context.Context, s *db.ScopedSession) (interface{}, error) {
				id, err := contest.required(ctx, s)
				if err != nil {
					return nil, err
				}
				switch {
				case prints:
					return query.PrintJobsForContest(ctx, s, id)
				case tests && active:
					return query.UserTestResultsForContest(ctx, s, id)
				case tests:
					return query.UserTestsForContest(ctx, s, id)
				case active:
					return query.SubmissionResultsForContest(ctx, s, id)
				default:
					return query.SubmissionsForContest(ctx, s, id)
				}
			})
		},
	}
	contest.register(cmd, "")
	cmd.Flags().BoolVar(&active, "active", false, "print results against the active datasets only")
	cmd.Flags().BoolVar(&tests, "user-tests", false, "print user tests instead of submissions")
	cmd.Flags().BoolVar(&prints, "print-jobs", false, "print print jobs instead of submissions")
	_ = cmd.MarkFlagRequired("contest")
	return cmd
}

func newResultsCmd(g *globals) *cobra.Command {
	var dataset int64
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Dump every result against a dataset, with executables and evaluations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.read(cmd, func(ctx context.Context, s *db.ScopedSession) (interface{}, error) {
				return query.SubmissionResultsForDataset(ctx, s, dataset)
			})
		},
	}
	cmd.Flags().Int64VarP(&dataset, "dataset", "d", 0, "the numeric dataset ID")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

func newFilesCmd(g *globals) *cobra.Command {
	var (
		contest contestFlag
		scope   query.FileScope
	)
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List the file digests the database refers to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := contest.id()
			if err != nil {
				return err
			}
			scope.ContestID = id
			return g.read(cmd, func(ctx context.Context, s *db.ScopedSession) (interface{}, error) {
				return query.EnumerateFiles(ctx, s, scope)
			})
		},
	}
	contest.register(cmd, "ALL")
	cmd.Flags().BoolVar(&scope.SkipSubmissions, "skip-submissions", false, "leave out submission files")
	cmd.Flags().BoolVar(&scope.SkipUserTests, "skip-user-tests", false, "leave out user test files")
	cmd.Flags().BoolVar(&scope.SkipPrintJobs, "skip-print-jobs", false, "leave out print jobs")
	cmd.Flags().BoolVar(&scope.SkipGenerated, "skip-generated", false, "leave out executables and outputs")
	return cmd
}
