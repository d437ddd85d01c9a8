package query

import (
	"context"

	"github.com/cms-dev/cms/v2/db"
	"github.com/cms-dev/cms/v2/model"
)

// SubmissionsForContest returns every submission on a task of the contest,
// ordered by id, with its token and all of its results loaded.
func SubmissionsForContest(ctx context.Context, s *db.ScopedSession, contestID int64) ([]model.Submission, error) {
	tx, err := session(ctx, s)
	if err != nil {
		return nil, err
	}
	tx = eager(tx.Model(&model.Submission{}), "Submission", "Token", "Results").
		Joins("JOIN tasks ON tasks.id = submissions.task_id").
		Where("tasks.contest_id = ?", contestID).
		Order("submissions.id")

	subs, err := find[model.Submission](ctx, tx, "submissions")
	if err != nil {
		return nil, err
	}
	for i := range subs {
		unmatchedToken(&subs[i])
		subs[i].Results = nonNil(subs[i].Results)
	}
	return subs, nil
}

// SubmissionResultsForContest returns, for every submission of the contest,
// its result against the active dataset of the submission's task. Results
// against other datasets are left out, as are tasks with no active dataset.
func SubmissionResultsForContest(ctx context.Context, s *db.ScopedSession, contestID int64) ([]model.SubmissionResult, error) {
	tx, err := session(ctx, s)
	if err != nil {
		return nil, err
	}
	tx = tx.Model(&model.SubmissionResult{}).
		Joins("JOIN submissions ON submissions.id = submission_results.submission_id").
		Joins("JOIN tasks ON tasks.id = submissions.task_id").
		Where("tasks.contest_id = ?", contestID).
		Where("submission_results.dataset_id = tasks.active_dataset_id").
		Order("submission_results.submission_id")

	return find[model.SubmissionResult](ctx, tx, "submission results")
}

// UserTestsForContest returns every user test on a task of the contest,
// ordered by id, with all of its results loaded.
func UserTestsForContest(ctx context.Context, s *db.ScopedSession, contestID int64) ([]model.UserTest, error) {
	tx, err := session(ctx, s)
	if err != nil {
		return nil, err
	}
	tx = eager(tx.Model(&model.UserTest{}), "UserTest", "Results").
		Joins("JOIN tasks ON tasks.id = user_tests.task_id").
		Where("tasks.contest_id = ?", contestID).
		Order("user_tests.id")

	tests, err := find[model.UserTest](ctx, tx, "user tests")
	if err != nil {
		return nil, err
	}
	for i := range tests {
		tests[i].Results = nonNil(tests[i].Results)
	}
	return tests, nil
}

// UserTestResultsForContest is SubmissionResultsForContest for user tests.
func UserTestResultsForContest(ctx context.Context, s *db.ScopedSession, contestID int64) ([]model.UserTestResult, error) {
	tx, err := session(ctx, s)
	if err != nil {
		return nil, err
	}
	tx = tx.Model(&model.UserTestResult{}).
		Joins("JOIN user_tests ON user_tests.id = user_test_results.user_test_id").
		Joins("JOIN tasks ON tasks.id = user_tests.task_id").
		Where("tasks.contest_id = ?", contestID).
		Where("user_test_results.dataset_id = tasks.active_dataset_id").
		Order("user_test_results.user_test_id")

	return find[model.UserTestResult](ctx, tx, "user test results")
}

// PrintJobsForContest returns the print jobs of every participation in the
// contest, ordered by id.
func PrintJobsForContest(ctx context.Context, s *db.ScopedSession, contestID int64) ([]model.PrintJob, error) {
	tx, err := session(ctx, s)
	if err != nil {
		return nil, err
	}
	tx = tx.Model(&model.PrintJob{}).
		Joins("JOIN participations ON participations.id = print_jobs.participation_id").
		Where("participations.contest_id = ?", contestID).
		Order("print_jobs.id")

	return find[model.PrintJob](ctx, tx, "print jobs")
}

// SubmissionResultsForDataset returns every result computed against the
// dataset, ordered by submission, with its submission, executables and
// evaluations loaded. It takes three statements however many results
// there are.
func SubmissionResultsForDataset(ctx context.Context, s *db.ScopedSession, datasetID int64) ([]model.SubmissionResult, error) {
	tx, err := session(ctx, s)
	if err != nil {
		return nil, err
	}
	tx = eager(tx.Model(&model.SubmissionResult{}), "SubmissionResult", "Submission", "Executables", "Evaluations").
		Where("submission_results.dataset_id = ?", datasetID).
		Order("submission_results.submission_id")

	results, err := find[model.SubmissionResult](ctx, tx, "submission results")
	if err != nil {
		return nil, err
	}
	for i := range results {
		r := &results[i]
		if r.Submission != nil && r.Submission.ID == 0 {
			r.Submission = nil
		}
		r.Executables = nonNil(r.Executables)
		r.Evaluations = nonNil(r.Evaluations)
	}
	return results, nil
}
