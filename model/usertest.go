package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserTest is a contestant's run of their own code on their own input. It is
// never scored.
type UserTest struct {
	ID              int64
	ParticipationID int64     `gorm:"not null;index"`
	TaskID          int64     `gorm:"not null;index"`
	Timestamp       time.Time `gorm:"not null"`
	Language        *string
	Input           string `gorm:"not null"`

	Files    []UserTestFile    `gorm:"foreignKey:UserTestID;constraint:OnDelete:CASCADE" order:"filename"`
	Managers []UserTestManager `gorm:"foreignKey:UserTestID;constraint:OnDelete:CASCADE" order:"filename"`
	Results  []UserTestResult  `gorm:"foreignKey:UserTestID;constraint:OnDelete:CASCADE" order:"dataset_id"`
}

func (u *UserTest) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, digest("Input", u.Input))
}

type UserTestFile struct {
	ID         int64
	UserTestID int64  `gorm:"not null;uniqueIndex:idx_user_test_file_filename"`
	Filename   string `gorm:"not null;uniqueIndex:idx_user_test_file_filename"`
	Digest     string `gorm:"not null"`
}

func (f *UserTestFile) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, filename("Filename", f.Filename), digest("Digest", f.Digest))
}

type UserTestManager struct {
	ID         int64
	UserTestID int64  `gorm:"not null;uniqueIndex:idx_user_test_manager_filename"`
	Filename   string `gorm:"not null;uniqueIndex:idx_user_test_manager_filename"`
	Digest     string `gorm:"not null"`
}

func (m *UserTestManager) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, filename("Filename", m.Filename), digest("Digest", m.Digest))
}

// UserTestResult is keyed by (user test, dataset), like SubmissionResult.
type UserTestResult struct {
	ID         int64
	UserTestID int64     `gorm:"not null;uniqueIndex:idx_user_test_result_key"`
	DatasetID  int64     `gorm:"not null;uniqueIndex:idx_user_test_result_key;index"`
	UserTest   *UserTest `gorm:"foreignKey:UserTestID"`
	Dataset    *Dataset  `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE"`

	Output                 *string
	CompilationOutcome     *string
	CompilationText        datatypes.JSONSlice[string] `gorm:"not null"`
	CompilationTries       int                         `gorm:"default:0;not null"`
	CompilationTime        *float64
	CompilationMemory      *int64
	EvaluationOutcome      *string
	EvaluationText         datatypes.JSONSlice[string] `gorm:"not null"`
	EvaluationTries        int                         `gorm:"default:0;not null"`
	ExecutionTime          *float64
	ExecutionWallClockTime *float64
	ExecutionMemory        *int64

	Executables []UserTestExecutable `gorm:"foreignKey:UserTestResultID;constraint:OnDelete:CASCADE" order:"filename"`
}

func (r *UserTestResult) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, digest("Output", r.Output))
}

type UserTestExecutable struct {
	ID               int64
	UserTestResultID int64  `gorm:"not null;uniqueIndex:idx_user_test_executable_filename"`
	Filename         string `gorm:"not null;uniqueIndex:idx_user_test_executable_filename"`
	Digest           string `gorm:"not null"`
}

func (e *UserTestExecutable) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, filename("Filename", e.Filename), digest("Digest", e.Digest))
}
