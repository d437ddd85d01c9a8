package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cms-dev/cms/v2/errors"
)

type Task struct {
	ID int64
	// ContestID and Num are null for a task that is not in any contest.
	ContestID *int64 `gorm:"uniqueIndex:idx_task_contest_num"`
	Num       *int32 `gorm:"uniqueIndex:idx_task_contest_num"`
	Name      string `gorm:"unique;not null"`
	Title     string `gorm:"not null"`

	SubmissionFormat      datatypes.JSONSlice[string] `gorm:"not null"`
	PrimaryStatements     datatypes.JSONSlice[string] `gorm:"not null"`
	TokenMode             string                      `gorm:"default:'disabled';not null"`
	MaxSubmissionNumber   *int
	MaxUserTestNumber     *int
	MinSubmissionInterval *time.Duration
	ScoreMode             string `gorm:"default:'max_tokened_last';not null"`
	ScorePrecision        int    `gorm:"default:0;not null"`

	// ActiveDatasetID points into Datasets. It is null only while the task
	// is being set up. The foreign key is added by Init after both tables
	// exist, since tasks and datasets reference each other; BeforeSave
	// checks it on every driver.
	ActiveDatasetID *int64   `gorm:"index"`
	ActiveDataset   *Dataset `gorm:"foreignKey:ActiveDatasetID;references:ID;-:migration"`

	Datasets    []Dataset    `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	Statements  []Statement  `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	Attachments []Attachment `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	Submissions []Submission `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	UserTests   []UserTest   `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

func (t *Task) BeforeSave(tx *gorm.DB) error {
	if err := checkWrite(tx,
		codename("Name", t.Name),
		filename("SubmissionFormat", t.SubmissionFormat),
	); err != nil {
		return err
	}
	return checkActiveDataset(tx, t)
}

// checkActiveDataset rejects an active dataset that is not one of the task's
// own. An update setting it must address the task by ID.
func checkActiveDataset(tx *gorm.DB, t *Task) error {
	v, ok := written(tx, "ActiveDatasetID", t.ActiveDatasetID)
	if !ok {
		return nil
	}
	datasetID, ok := int64Value(v)
	if !ok {
		return nil
	}
	if t.ID == 0 {
		return errors.Newf(errors.ErrConstraintViolation,
			"active dataset %d set on a task without ID", datasetID)
	}
	var n int64
	err := tx.Session(&gorm.Session{NewDB: true}).Model(&Dataset{}).
		Where("id = ? AND task_id = ?", datasetID, t.ID).
		Count(&n).Error
	if err != nil {
		return errors.Wrap(err, "checking active dataset")
	}
	if n == 0 {
		return errors.Newf(errors.ErrConstraintViolation,
			"dataset %d is not a dataset of task %d", datasetID, t.ID)
	}
	return nil
}

type Statement struct {
	ID       int64
	TaskID   int64  `gorm:"not null;uniqueIndex:idx_statement_task_language"`
	Language string `gorm:"not null;uniqueIndex:idx_statement_task_language"`
	Digest   string `gorm:"not null"`
}

func (s *Statement) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, digest("Digest", s.Digest))
}

type Attachment struct {
	ID       int64
	TaskID   int64  `gorm:"not null;uniqueIndex:idx_attachment_task_filename"`
	Filename string `gorm:"not null;uniqueIndex:idx_attachment_task_filename"`
	Digest   string `gorm:"not null"`
}

func (a *Attachment) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, filename("Filename", a.Filename), digest("Digest", a.Digest))
}

// Dataset is one version of a task's grading configuration. Results are
// always computed against a specific dataset.
type Dataset struct {
	// (TaskID, ID) is unique so the task's active dataset key can reference
	// it.
	ID                  int64  `gorm:"primaryKey;uniqueIndex:idx_dataset_task_id,priority:2"`
	TaskID              int64  `gorm:"not null;uniqueIndex:idx_dataset_task_description;uniqueIndex:idx_dataset_task_id,priority:1"`
	Description         string `gorm:"not null;uniqueIndex:idx_dataset_task_description"`
	Autojudge           bool   `gorm:"default:false;not null"`
	TimeLimit           *float64
	MemoryLimit         *int64
	TaskType            string `gorm:"not null"`
	TaskTypeParameters  datatypes.JSON
	ScoreType           string `gorm:"not null"`
	ScoreTypeParameters datatypes.JSON

	Managers  []Manager  `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" order:"filename"`
	Testcases []Testcase `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" order:"codename"`
}

type Manager struct {
	ID        int64
	DatasetID int64  `gorm:"not null;uniqueIndex:idx_manager_dataset_filename"`
	Filename  string `gorm:"not null;uniqueIndex:idx_manager_dataset_filename"`
	Digest    string `gorm:"not null"`
}

func (m *Manager) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, filename("Filename", m.Filename), digest("Digest", m.Digest))
}

type Testcase struct {
	ID        int64
	DatasetID int64  `gorm:"not null;uniqueIndex:idx_testcase_dataset_codename"`
	Codename  string `gorm:"not null;uniqueIndex:idx_testcase_dataset_codename"`
	Public    bool   `gorm:"default:false;not null"`
	Input     string `gorm:"not null"`
	Output    string `gorm:"not null"`
}

func (tc *Testcase) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx,
		codename("Codename", tc.Codename),
		digest("Input", tc.Input),
		digest("Output", tc.Output),
	)
}
