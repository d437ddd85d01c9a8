package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PrintJob struct {
	ID              int64
	ParticipationID int64     `gorm:"not null;index"`
	Timestamp       time.Time `gorm:"not null"`
	Filename        string    `gorm:"not null"`
	Digest          string    `gorm:"not null"`
	Done            bool      `gorm:"default:false;not null"`
	Status          datatypes.JSONSlice[string]
}

func (p *PrintJob) BeforeSave(tx *gorm.DB) error {
	return checkWrite(tx, filename("Filename", p.Filename), digest("Digest", p.Digest))
}
