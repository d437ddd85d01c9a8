package query_test

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cms-dev/cms/v2/db"
	"github.com/cms-dev/cms/v2/model"
)

func sha(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// scenario is contest c1 with task t1 and two datasets, d1 ("old") and d2
// ("new", active). s1 is tokened and has results on both datasets; s2 has no
// token and no results. c2 is an empty contest.
type scenario struct {
	contest       model.Contest
	other         model.Contest
	participation model.Participation
	task          model.Task
	d1, d2        model.Dataset
	s1, s2        model.Submission
	r1, r2        model.SubmissionResult
	userTest      model.UserTest
	printJob      model.PrintJob
}

func seed(t *testing.T, e *db.Engine) *scenario {
	t.Helper()
	sc := &scenario{}
	at := func(sec int64) time.Time { return time.Unix(1_700_000_000+sec, 0).UTC() }

	err := e.WithSession(context.Background(), func(ctx context.Context, s *db.ScopedSession) error {
		tx, err := s.DB()
		require.NoError(t, err)

		sc.contest = model.Contest{
			Name:      "c1",
			Languages: datatypes.JSONSlice[string]{"C++17 / g++", "Python 3 / CPython"},
			Start:     at(0),
			Stop:      at(18000),
		}
		sc.other = model.Contest{Name: "c2", Start: at(0), Stop: at(1)}
		require.NoError(t, tx.Create(&sc.contest).Error)
		require.NoError(t, tx.Create(&sc.other).Error)

		user := model.User{Username: "alice", FirstName: "Alice", LastName: "Liddell"}
		require.NoError(t, tx.Create(&user).Error)
		sc.participation = model.Participation{ContestID: sc.contest.ID, UserID: user.ID}
		require.NoError(t, tx.Create(&sc.participation).Error)

		num := int32(0)
		sc.task = model.Task{
			ContestID:        &sc.contest.ID,
			Num:              &num,
			Name:             "t1",
			Title:            "Task one",
			SubmissionFormat: datatypes.JSONSlice[string]{"t1.%l"},
		}
		require.NoError(t, tx.Create(&sc.task).Error)

		sc.d1 = model.Dataset{
			TaskID:      sc.task.ID,
			Description: "old",
			TaskType:    "Batch",
			ScoreType:   "Sum",
			Managers:    []model.Manager{{Filename: "checker", Digest: sha("checker")}},
			Testcases: []model.Testcase{
				{Codename: "001", Input: sha("in1"), Output: sha("out1")},
				{Codename: "002", Input: sha("in2"), Output: sha("out2")},
			},
		}
		sc.d2 = model.Dataset{
			TaskID:      sc.task.ID,
			Description: "new",
			TaskType:    "Batch",
			ScoreType:   "Sum",
			Testcases:   []model.Testcase{{Codename: "001", Input: sha("in1"), Output: sha("out1-fixed")}},
		}
		require.NoError(t, tx.Create(&sc.d1).Error)
		require.NoError(t, tx.Create(&sc.d2).Error)
		require.NoError(t, tx.Model(&sc.task).Update("active_dataset_id", sc.d2.ID).Error)
		sc.task.ActiveDatasetID = &sc.d2.ID

		lang := "C++17 / g++"
		sc.s1 = model.Submission{
			ParticipationID: sc.participation.ID,
			TaskID:          sc.task.ID,
			Timestamp:       at(60),
			Language:        &lang,
			Official:        true,
			Files:           []model.File{{Filename: "t1.%l", Digest: sha("src1")}},
			Token:           &model.Token{Timestamp: at(120)},
		}
		sc.s2 = model.Submission{
			ParticipationID: sc.participation.ID,
			TaskID:          sc.task.ID,
			Timestamp:       at(90),
			Language:        &lang,
			Official:        true,
			Files:           []model.File{{Filename: "t1.%l", Digest: model.TombstoneDigest}},
		}
		require.NoError(t, tx.Create(&sc.s1).Error)
		require.NoError(t, tx.Create(&sc.s2).Error)

		ok := "ok"
		sc.r1 = model.SubmissionResult{
			SubmissionID:       sc.s1.ID,
			DatasetID:          sc.d1.ID,
			CompilationOutcome: &ok,
			EvaluationOutcome:  &ok,
			Executables:        []model.Executable{{Filename: "t1", Digest: sha("exe1")}},
			// Out of order on purpose: the loaded collection is sorted.
			Evaluations: []model.Evaluation{
				{TestcaseID: sc.d1.Testcases[1].ID},
				{TestcaseID: sc.d1.Testcases[0].ID},
			},
		}
		sc.r2 = model.SubmissionResult{
			SubmissionID:       sc.s1.ID,
			DatasetID:          sc.d2.ID,
			CompilationOutcome: &ok,
		}
		require.NoError(t, tx.Create(&sc.r1).Error)
		require.NoError(t, tx.Create(&sc.r2).Error)

		output := sha("utout")
		sc.userTest = model.UserTest{
			ParticipationID: sc.participation.ID,
			TaskID:          sc.task.ID,
			Timestamp:       at(200),
			Input:           sha("utin"),
			Files:           []model.UserTestFile{{Filename: "t1.%l", Digest: sha("utsrc")}},
			Results: []model.UserTestResult{
				{DatasetID: sc.d1.ID},
				{DatasetID: sc.d2.ID, Output: &output},
			},
		}
		require.NoError(t, tx.Create(&sc.userTest).Error)

		sc.printJob = model.PrintJob{
			ParticipationID: sc.participation.ID,
			Timestamp:       at(300),
			Filename:        "notes.pdf",
			Digest:          sha("pdf"),
		}
		return tx.Create(&sc.printJob).Error
	})
	require.NoError(t, err)
	return sc
}

// countQueries counts the SELECT statements issued through e.
func countQueries(t *testing.T, e *db.Engine) *atomic.Int64 {
	t.Helper()
	n := &atomic.Int64{}
	err := e.DB().Callback().Query().After("gorm:query").Register("test:count_queries", func(*gorm.DB) {
		n.Add(1)
	})
	require.NoError(t, err)
	return n
}
