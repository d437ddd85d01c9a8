package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Submission struct {
	ID              int64
	ParticipationID int64     `gorm:"not null;index"`
	TaskID          int64     `gorm:"not null;index"`
	Timestamp       time.Time `gorm:"not null"`
	Language        *string
	Comment         string `gorm:"default:'';not null"`
	Official        bool   `gorm:"default:false;not null"`

	Files   []File             `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" order:"filename"`
	Token   *Token             `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
	Results []SubmissionResult `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" order:"dataset_id"`
}

// Tokened reports whether a token was played on the submission. Only
// meaningful when Token was loaded.
func (s *Submission) Tokened() bool {
	return s.Token != nil
}

// File is a source file of a submission. Filename may contain the "%l"
// language placeholder of the task's submission format.
type File struct {
	ID           int64
	SubmissionID int64  `gorm:"not null;uniqueIndex:idx_file_submission_filename"`
	Filename     string `gorm:"not null;uniqueIndex:idx_file_submission_filename"`
	Digest       string `gorm:"not null"`
}

func (f *File) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, filename("Filename", f.Filename), digest("Digest", f.Digest))
}

type Token struct {
	ID           int64
	SubmissionID int64     `gorm:"not null;uniqueIndex"`
	Timestamp    time.Time `gorm:"not null"`
}

// SubmissionResult is the outcome of compiling and evaluating one submission
// against one dataset. (SubmissionID, DatasetID) is unique; ID is a
// surrogate key the executables and evaluations hang off.
type SubmissionResult struct {
	ID           int64
	SubmissionID int64       `gorm:"not null;uniqueIndex:idx_submission_result_key"`
	DatasetID    int64       `gorm:"not null;uniqueIndex:idx_submission_result_key;index"`
	Submission   *Submission `gorm:"foreignKey:SubmissionID"`
	Dataset      *Dataset    `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE"`

	CompilationOutcome  *string
	CompilationText     datatypes.JSONSlice[string] `gorm:"not null"`
	CompilationTries    int                         `gorm:"default:0;not null"`
	CompilationStdout   *string
	CompilationStderr   *string
	CompilationTime     *float64
	CompilationMemory   *int64
	EvaluationOutcome   *string
	EvaluationTries     int `gorm:"default:0;not null"`
	Score               *float64
	ScoreDetails        datatypes.JSON
	PublicScore         *float64
	PublicScoreDetails  datatypes.JSON
	RankingScoreDetails datatypes.JSONSlice[string]

	Executables []Executable `gorm:"foreignKey:SubmissionResultID;constraint:OnDelete:CASCADE" order:"filename"`
	Evaluations []Evaluation `gorm:"foreignKey:SubmissionResultID;constraint:OnDelete:CASCADE" order:"testcase_id"`
}

// Compiled reports whether compilation has finished, successfully or not.
func (r *SubmissionResult) Compiled() bool {
	return r.CompilationOutcome != nil
}

// Evaluated reports whether evaluation has finished.
func (r *SubmissionResult) Evaluated() bool {
	return r.EvaluationOutcome != nil
}

// Scored reports whether both the private and public scores are known.
func (r *SubmissionResult) Scored() bool {
	return r.Score != nil && r.PublicScore != nil
}

type Executable struct {
	ID                 int64
	SubmissionResultID int64  `gorm:"not null;uniqueIndex:idx_executable_result_filename"`
	Filename           string `gorm:"not null;uniqueIndex:idx_executable_result_filename"`
	Digest             string `gorm:"not null"`
}

func (e *Executable) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, filename("Filename", e.Filename), digest("Digest", e.Digest))
}

// Evaluation is the outcome of one testcase.
type Evaluation struct {
	ID                     int64
	SubmissionResultID     int64 `gorm:"not null;uniqueIndex:idx_evaluation_result_testcase"`
	TestcaseID             int64 `gorm:"not null;uniqueIndex:idx_evaluation_result_testcase"`
	Outcome                *string
	Text                   datatypes.JSONSlice[string] `gorm:"not null"`
	ExecutionTime          *float64
	ExecutionWallClockTime *float64
	ExecutionMemory        *int64
	EvaluationShard        *int
	EvaluationSandbox      *string
}
