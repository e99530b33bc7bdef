package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is one entry of the dashboard activity feed, written from domain events
type ActivityLog struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	EventID      string         `json:"eventId" gorm:"size:36;uniqueIndex"`
	Action       string         `json:"action" gorm:"not null;size:64;index"`
	SubjectID    string         `json:"subjectId" gorm:"size:36;index"`
	SubjectLabel string         `json:"subjectLabel" gorm:"size:255"`
	Payload      datatypes.JSON `json:"payload"`
	CreatedAt    time.Time      `json:"createdAt" gorm:"index"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// AllModels returns every model managed by AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&Student{},
		&RewardItem{},
		&ActivityLog{},
	}
}
