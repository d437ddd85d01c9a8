package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cms-dev/cms/v2/db"
	"github.com/cms-dev/cms/v2/db/dbtest"
	"github.com/cms-dev/cms/v2/errors"
	"github.com/cms-dev/cms/v2/model"
	"github.com/cms-dev/cms/v2/query"
)

func TestSubmissionResultsForContest_ActiveDatasetOnly(t *testing.T) {
	e := dbtest.New(t)
	sc := seed(t, e)
	s := dbtest.Session(t, e)

	results, err := query.SubmissionResultsForContest(context.Background(), s, sc.contest.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, sc.r2.ID, results[0].ID)
	require.Equal(t, sc.s1.ID, results[0].SubmissionID)
	require.Equal(t, sc.d2.ID, results[0].DatasetID)
}

func TestSubmissionResultsForContest_NoActiveDataset(t *testing.T) {
	e := dbtest.New(t)
	sc := seed(t, e)
	ctx := context.Background()

	require.NoError(t, e.WithSession(ctx, func(ctx context.Context, s *db.ScopedSession) error {
		tx, err := s.DB()
		require.NoError(t, err)
		return tx.Model(&model.Task{ID: sc.task.ID}).Update("active_dataset_id", nil).Error
	}))

	s := dbtest.Session(t, e)
	results, err := query.SubmissionResultsForContest(ctx, s, sc.contest.ID)
	require.NoError(t, err)
	require.NotNil(t, results)
	require.Empty(t, results)
}

func TestSubmissionsForContest(t *testing.T) {
	e := dbtest.New(t)
	sc := seed(t, e)
	s := dbtest.Session(t, e)
	queries := countQueries(t, e)

	subs, err := query.SubmissionsForContest(context.Background(), s, sc.contest.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, queries.Load(), "one statement for submissions and tokens, one for results")

	require.Len(t, subs, 2)
	require.Equal(t, sc.s1.ID, subs[0].ID)
	require.Equal(t, sc.s2.ID, subs[1].ID)

	require.True(t, subs[0].Tokened())
	require.Equal(t, sc.s1.ID, subs[0].Token.SubmissionID)
	require.Len(t, subs[0].Results, 2)
	require.Equal(t, sc.d1.ID, subs[0].Results[0].DatasetID)
	require.Equal(t, sc.d2.ID, subs[0].Results[1].DatasetID)

	require.False(t, subs[1].Tokened())
	require.NotNil(t, subs[1].Results)
	require.Empty(t, subs[1].Results)

	// Files were not asked for.
	require.Nil(t, subs[0].Files)
}

func TestSubmissionResultsForDataset(t *testing.T) {
	e := dbtest.New(t)
	sc := seed(t, e)
	s := dbtest.Session(t, e)
	ctx := context.Background()
	queries := countQueries(t, e)

	results, err := query.SubmissionResultsForDataset(ctx, s, sc.d1.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, queries.Load(), "results with submissions, then executables, then evaluations")

	require.Len(t, results, 1)
	r := results[0]
	require.Equal(t, sc.r1.ID, r.ID)
	require.NotNil(t, r.Submission)
	require.Equal(t, sc.s1.ID, r.Submission.ID)
	require.Equal(t, sc.task.ID, r.Submission.TaskID)
	require.Len(t, r.Executables, 1)
	require.Equal(t, sha("exe1"), r.Executables[0].Digest)
	require.Len(t, r.Evaluations, 2)
	require.Equal(t, sc.d1.Testcases[0].ID, r.Evaluations[0].TestcaseID)
	require.Equal(t, sc.d1.Testcases[1].ID, r.Evaluations[1].TestcaseID)

	results, err = query.SubmissionResultsForDataset(ctx, s, sc.d2.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, sc.r2.ID, results[0].ID)
	require.NotNil(t, results[0].Executables)
	require.Empty(t, results[0].Executables)
	require.NotNil(t, results[0].Evaluations)
	require.Empty(t, results[0].Evaluations)
}

func TestUserTestsForContest(t *testing.T) {
	e := dbtest.New(t)
	sc := seed(t, e)
	s := dbtest.Session(t, e)
	ctx := context.Background()

	tests, err := query.UserTestsForContest(ctx, s, sc.contest.ID)
	require.NoError(t, err)
	require.Len(t, tests, 1)
	require.Equal(t, sc.userTest.ID, tests[0].ID)
	require.Len(t, tests[0].Results, 2)
	require.Equal(t, sc.d1.ID, tests[0].Results[0].DatasetID)
	require.Equal(t, sc.d2.ID, tests[0].Results[1].DatasetID)

	results, err := query.UserTestResultsForContest(ctx, s, sc.contest.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, sc.d2.ID, results[0].DatasetID)
	require.NotNil(t, results[0].Output)
	require.Equal(t, sha("utout"), *results[0].Output)
}

func TestPrintJobsForContest(t *testing.T) {
	e := dbtest.New(t)
	sc := seed(t, e)
	s := dbtest.Session(t, e)
	ctx := context.Background()

	jobs, err := query.PrintJobsForContest(ctx, s, sc.contest.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, sc.printJob.ID, jobs[0].ID)
	require.Equal(t, "notes.pdf", jobs[0].Filename)

	jobs, err = query.PrintJobsForContest(ctx, s, sc.other.ID)
	require.NoError(t, err)
	require.NotNil(t, jobs)
	require.Empty(t, jobs)
}

func TestUnknownIDsYieldEmptySlices(t *testing.T) {
	e := dbtest.New(t)
	seed(t, e)
	s := dbtest.Session(t, e)
	ctx := context.Background()
	const missing = 424242

	subs, err := query.SubmissionsForContest(ctx, s, missing)
	require.NoError(t, err)
	require.NotNil(t, subs)
	require.Empty(t, subs)

	results, err := query.SubmissionResultsForContest(ctx, s, missing)
	require.NoError(t, err)
	require.NotNil(t, results)
	require.Empty(t, results)

	tests, err := query.UserTestsForContest(ctx, s, missing)
	require.NoError(t, err)
	require.NotNil(t, tests)
	require.Empty(t, tests)

	utResults, err := query.UserTestResultsForContest(ctx, s, missing)
	require.NoError(t, err)
	require.NotNil(t, utResults)
	require.Empty(t, utResults)

	jobs, err := query.PrintJobsForContest(ctx, s, missing)
	require.NoError(t, err)
	require.NotNil(t, jobs)
	require.Empty(t, jobs)

	byDataset, err := query.SubmissionResultsForDataset(ctx, s, missing)
	require.NoError(t, err)
	require.NotNil(t, byDataset)
	require.Empty(t, byDataset)
}

func TestQueriesAreRepeatable(t *testing.T) {
	e := dbtest.New(t)
	sc := seed(t, e)
	s := dbtest.Session(t, e)
	ctx := context.Background()

	first, err := query.SubmissionsForContest(ctx, s, sc.contest.ID)
	require.NoError(t, err)
	second, err := query.SubmissionsForContest(ctx, s, sc.contest.ID)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Results are owned by the caller: mutating them does not leak into
	// the next query.
	first[0].Results[0].DatasetID = 0
	third, err := query.SubmissionsForContest(ctx, s, sc.contest.ID)
	require.NoError(t, err)
	require.Equal(t, second, third)
}

func TestActiveDatasetSwitchMidSession(t *testing.T) {
	e := dbtest.New(t)
	sc := seed(t, e)
	ctx := context.Background()

	reader := dbtest.Session(t, e)
	before, err := query.SubmissionResultsForContest(ctx, reader, sc.contest.ID)
	require.NoError(t, err)
	require.Len(t, before, 1)
	require.Equal(t, sc.d2.ID, before[0].DatasetID)

	require.NoError(t, e.WithSession(ctx, func(ctx context.Context, s *db.ScopedSession) error {
		tx, err := s.DB()
		require.NoError(t, err)
		return tx.Model(&model.Task{ID: sc.task.ID}).Update("active_dataset_id", sc.d1.ID).Error
	}))

	// The reader keeps its snapshot.
	again, err := query.SubmissionResultsForContest(ctx, reader, sc.contest.ID)
	require.NoError(t, err)
	require.Equal(t, before, again)
	require.Equal(t, sc.d2.ID, before[0].DatasetID)
	require.NoError(t, reader.Close())

	fresh := dbtest.Session(t, e)
	after, err := query.SubmissionResultsForContest(ctx, fresh, sc.contest.ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	require.Equal(t, sc.d1.ID, after[0].DatasetID)
	require.Equal(t, sc.r1.ID, after[0].ID)
}

func TestAmbientSession(t *testing.T) {
	e := dbtest.New(t)
	sc := seed(t, e)
	ctx := context.Background()

	_, err := query.SubmissionsForContest(ctx, nil, sc.contest.ID)
	require.True(t, errors.Is(err, errors.ErrSessionState), "got %v", err)

	err = e.WithSession(ctx, func(ctx context.Context, _ *db.ScopedSession) error {
		subs, err := query.SubmissionsForContest(ctx, nil, sc.contest.ID)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		return nil
	})
	require.NoError(t, err)
}

func TestClosedSessionIsRejected(t *testing.T) {
	e := dbtest.New(t)
	sc := seed(t, e)
	ctx := context.Background()

	s, err := e.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	_, err = query.SubmissionResultsForDataset(ctx, s, sc.d1.ID)
	require.True(t, errors.Is(err, errors.ErrSessionState), "got %v", err)
}
