package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Contest struct {
	ID                   int64
	Name                 string                      `gorm:"unique;not null"`
	Description          string                      `gorm:"not null"`
	AllowedLocalizations datatypes.JSONSlice[string] `gorm:"not null"`
	Languages            datatypes.JSONSlice[string] `gorm:"not null"`
	SubmissionsDownload  bool                        `gorm:"default:false;not null"`
	Start                time.Time                   `gorm:"not null"`
	Stop                 time.Time                   `gorm:"not null"`
	Timezone             *string
	PerUserTime          *time.Duration
	MaxSubmissionNumber  *int
	MaxUserTestNumber    *int

	Tasks          []Task          `gorm:"foreignKey:ContestID;constraint:OnDelete:CASCADE" order:"num"`
	Participations []Participation `gorm:"foreignKey:ContestID;constraint:OnDelete:CASCADE"`
	Announcements  []Announcement  `gorm:"foreignKey:ContestID;constraint:OnDelete:CASCADE" order:"timestamp"`
}

func (c *Contest) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, codename("Name", c.Name))
}

type Announcement struct {
	ID        int64
	ContestID int64     `gorm:"not null;index"`
	Timestamp time.Time `gorm:"not null"`
	Subject   string    `gorm:"not null"`
	Text      string    `gorm:"not null"`
	AdminID   *int64
}
