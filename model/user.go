package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID                 int64
	FirstName          string `gorm:"not null"`
	LastName           string `gorm:"not null"`
	Username           string `gorm:"unique;not null"`
	Password           string `gorm:"not null"`
	Email              *string
	Timezone           *string
	PreferredLanguages datatypes.JSONSlice[string] `gorm:"not null"`
	Participations     []Participation             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, codename("Username", u.Username))
}

type Team struct {
	ID             int64
	Code           string          `gorm:"unique;not null"`
	Name           string          `gorm:"not null"`
	Participations []Participation `gorm:"foreignKey:TeamID;constraint:OnDelete:SET NULL"`
}

func (t *Team) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, codename("Code", t.Code))
}

// Participation links a user, and optionally a team, to a contest. Everything
// a contestant produces hangs off it.
type Participation struct {
	ID           int64
	StartingTime *time.Time
	DelayTime    time.Duration `gorm:"default:0;not null"`
	ExtraTime    time.Duration `gorm:"default:0;not null"`
	Password     *string
	Hidden       bool  `gorm:"default:false;not null"`
	Unrestricted bool  `gorm:"default:false;not null"`
	ContestID    int64 `gorm:"not null;uniqueIndex:idx_participation_contest_user"`
	UserID       int64 `gorm:"not null;uniqueIndex:idx_participation_contest_user"`
	User         *User
	TeamID       *int64 `gorm:"index"`

	Submissions []Submission `gorm:"foreignKey:ParticipationID;constraint:OnDelete:CASCADE"`
	UserTests   []UserTest   `gorm:"foreignKey:ParticipationID;constraint:OnDelete:CASCADE"`
	PrintJobs   []PrintJob   `gorm:"foreignKey:ParticipationID;constraint:OnDelete:CASCADE"`
	Messages    []Message    `gorm:"foreignKey:ParticipationID;constraint:OnDelete:CASCADE"`
	Questions   []Question   `gorm:"foreignKey:ParticipationID;constraint:OnDelete:CASCADE"`
}

type Message struct {
	ID              int64
	ParticipationID int64     `gorm:"not null;index"`
	Timestamp       time.Time `gorm:"not null"`
	Subject         string    `gorm:"not null"`
	Text            string    `gorm:"not null"`
	AdminID         *int64
}

type Question struct {
	ID                int64
	ParticipationID   int64     `gorm:"not null;index"`
	QuestionTimestamp time.Time `gorm:"not null"`
	Subject           string    `gorm:"not null"`
	Text              string    `gorm:"not null"`
	ReplyTimestamp    *time.Time
	Ignored           bool `gorm:"default:false;not null"`
	ReplySubject      *string
	ReplyText         *string
	AdminID           *int64
}

// Admin is an account of the administration interface.
type Admin struct {
	ID                  int64
	Name                string `gorm:"not null"`
	Username            string `gorm:"unique;not null"`
	Authentication      string `gorm:"not null"`
	Enabled             bool   `gorm:"default:false;not null"`
	PermissionAll       bool   `gorm:"default:false;not null"`
	PermissionMessaging bool   `gorm:"default:false;not null"`
}

func (a *Admin) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, codename("Username", a.Username))
}
