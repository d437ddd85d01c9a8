package query

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/cms-dev/cms/v2/db"
	"github.com/cms-dev/cms/v2/model"
)

// ContestList returns all contests ordered by id, without relations.
func ContestList(ctx context.Context, s *db.ScopedSession) ([]model.Contest, error) {
	tx, err := session(ctx, s)
	if err != nil {
		return nil, err
	}
	return find[model.Contest](ctx, tx.Order("id"), "contests")
}

// IsContestID reports whether a contest with the given id exists.
func IsContestID(ctx context.Context, s *db.ScopedSession, contestID int64) (bool, error) {
	tx, err := session(ctx, s)
	if err != nil {
		return false, err
	}
	var n int64
	if err := tx.Model(&model.Contest{}).Where("id = ?", contestID).Count(&n).Error; err != nil {
		return false, db.Translate(ctx, err, "looking up contest")
	}
	return n > 0, nil
}

// Filter narrows Submissions and SubmissionResults. Nil fields do not
// filter; a zero Filter matches everything.
type Filter struct {
	ContestID       *int64
	ParticipationID *int64
	TaskID          *int64
	SubmissionID    *int64
	// DatasetID applies to SubmissionResults only.
	DatasetID *int64
}

// apply adds the conditions of f to a query whose FROM clause includes
// submissions.
func (f Filter) apply(tx *gorm.DB) *gorm.DB {
	if f.ContestID != nil {
		tx = tx.Joins("JOIN tasks ON tasks.id = submissions.task_id").
			Where("tasks.contest_id = ?", *f.ContestID)
	}
	if f.ParticipationID != nil {
		tx = tx.Where("submissions.participation_id = ?", *f.ParticipationID)
	}
	if f.TaskID != nil {
		tx = tx.Where("submissions.task_id = ?", *f.TaskID)
	}
	if f.SubmissionID != nil {
		tx = tx.Where("submissions.id = ?", *f.SubmissionID)
	}
	return tx
}

// Submissions returns the submissions matching f, ordered by id, with their
// token loaded.
func Submissions(ctx context.Context, s *db.ScopedSession, f Filter) ([]model.Submission, error) {
	tx, err := session(ctx, s)
	if err != nil {
		return nil, err
	}
	tx = f.apply(eager(tx.Model(&model.Submission{}), "Submission", "Token")).
		Order("submissions.id")

	subs, err := find[model.Submission](ctx, tx, "submissions")
	if err != nil {
		return nil, err
	}
	for i := range subs {
		unmatchedToken(&subs[i])
	}
	return subs, nil
}

// SubmissionResults returns the results matching f, ordered by submission
// then dataset.
func SubmissionResults(ctx context.Context, s *db.ScopedSession, f Filter) ([]model.SubmissionResult, error) {
	tx, err := session(ctx, s)
	if err != nil {
		return nil, err
	}
	tx = f.apply(tx.Model(&model.SubmissionResult{}).
		Joins("JOIN submissions ON submissions.id = submission_results.submission_id"))
	if f.DatasetID != nil {
		tx = tx.Where("submission_results.dataset_id = ?", *f.DatasetID)
	}
	tx = tx.Order("submission_results.submission_id").Order("submission_results.dataset_id")

	return find[model.SubmissionResult](ctx, tx, "submission results")
}

// DatasetsToJudge returns the datasets of the task that new submissions are
// evaluated against: the active one and every autojudge one.
func DatasetsToJudge(ctx context.Context, s *db.ScopedSession, taskID int64) ([]model.Dataset, error) {
	tx, err := session(ctx, s)
	if err != nil {
		return nil, err
	}
	tx = tx.Model(&model.Dataset{}).
		Joins("JOIN tasks ON tasks.id = datasets.task_id").
		Where("datasets.task_id = ?", taskID).
		Where("datasets.autojudge = ? OR datasets.id = tasks.active_dataset_id", true).
		Order("datasets.id")

	return find[model.Dataset](ctx, tx, "datasets")
}

// FileScope selects which digests EnumerateFiles collects.
type FileScope struct {
	// ContestID limits the result to files reachable from the contest's
	// tasks and participations. Nil means the whole database.
	ContestID *int64

	SkipSubmissions bool
	SkipUserTests   bool
	SkipPrintJobs   bool
	// SkipGenerated leaves out compiled executables and user test outputs,
	// which the judging service can recreate.
	SkipGenerated bool
}

type fileSource struct {
	table  string
	column string
	// joins lead from table to the table holding the contest id.
	joins   []string
	contest string

	submission, userTest, printJob, generated bool
}

var fileSources = []fileSource{
	{table: "statements", column: "digest",
		joins: []string{"JOIN tasks ON tasks.id = statements.task_id"}, contest: "tasks.contest_id"},
	{table: "attachments", column: "digest",
		joins: []string{"JOIN tasks ON tasks.id = attachments.task_id"}, contest: "tasks.contest_id"},
	{table: "managers", column: "digest",
		joins: []string{
			"JOIN datasets ON datasets.id = managers.dataset_id",
			"JOIN tasks ON tasks.id = datasets.task_id",
		}, contest: "tasks.contest_id"},
	{table: "testcases", column: "input",
		joins: []string{
			"JOIN datasets ON datasets.id = testcases.dataset_id",
			"JOIN tasks ON tasks.id = datasets.task_id",
		}, contest: "tasks.contest_id"},
	{table: "testcases", column: "output",
		joins: []string{
			"JOIN datasets ON datasets.id = testcases.dataset_id",
			"JOIN tasks ON tasks.id = datasets.task_id",
		}, contest: "tasks.contest_id"},
	{table: "files", column: "digest", submission: true,
		joins: []string{
			"JOIN submissions ON submissions.id = files.submission_id",
			"JOIN tasks ON tasks.id = submissions.task_id",
		}, contest: "tasks.contest_id"},
	{table: "executables", column: "digest", submission: true, generated: true,
		joins: []string{
			"JOIN submission_results ON submission_results.id = executables.submission_result_id",
			"JOIN submissions ON submissions.id = submission_results.submission_id",
			"JOIN tasks ON tasks.id = submissions.task_id",
		}, contest: "tasks.contest_id"},
	{table: "user_tests", column: "input", userTest: true,
		joins: []string{"JOIN tasks ON tasks.id = user_tests.task_id"}, contest: "tasks.contest_id"},
	{table: "user_test_files", column: "digest", userTest: true,
		joins: []string{
			"JOIN user_tests ON user_tests.id = user_test_files.user_test_id",
			"JOIN tasks ON tasks.id = user_tests.task_id",
		}, contest: "tasks.contest_id"},
	{table: "user_test_managers", column: "digest", userTest: true,
		joins: []string{
			"JOIN user_tests ON user_tests.id = user_test_managers.user_test_id",
			"JOIN tasks ON tasks.id = user_tests.task_id",
		}, contest: "tasks.contest_id"},
	{table: "user_test_results", column: "output", userTest: true, generated: true,
		joins: []string{
			"JOIN user_tests ON user_tests.id = user_test_results.user_test_id",
			"JOIN tasks ON tasks.id = user_tests.task_id",
		}, contest: "tasks.contest_id"},
	{table: "user_test_executables", column: "digest", userTest: true, generated: true,
		joins: []string{
			"JOIN user_test_results ON user_test_results.id = user_test_executables.user_test_result_id",
			"JOIN user_tests ON user_tests.id = user_test_results.user_test_id",
			"JOIN tasks ON tasks.id = user_tests.task_id",
		}, contest: "tasks.contest_id"},
	{table: "print_jobs", column: "digest", printJob: true,
		joins: []string{"JOIN participations ON participations.id = print_jobs.participation_id"},
		contest: "participations.contest_id"},
}

func (src fileSource) skipped(scope FileScope) bool {
	return (src.submission && scope.SkipSubmissions) ||
		(src.userTest && scope.SkipUserTests) ||
		(src.printJob && scope.SkipPrintJobs) ||
		(src.generated && scope.SkipGenerated)
}

// EnumerateFiles returns the sorted, distinct digests the database refers
// to within scope. The tombstone digest is never included.
func EnumerateFiles(ctx context.Context, s *db.ScopedSession, scope FileScope) ([]string, error) {
	tx, err := session(ctx, s)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, src := range fileSources {
		if src.skipped(scope) {
			continue
		}
		col := src.table + "." + src.column
		q := tx.Table(src.table).Where(col + " IS NOT NULL")
		if scope.ContestID != nil {
			for _, j := range src.joins {
				q = q.Joins(j)
			}
			q = q.Where(src.contest+" = ?", *scope.ContestID)
		}
		var digests []string
		if err := q.Pluck(col, &digests).Error; err != nil {
			return nil, db.Translate(ctx, err, "enumerating "+col)
		}
		for _, d := range digests {
			if d != model.TombstoneDigest {
				seen[d] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}
