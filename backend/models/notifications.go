package models

import (
	"errors"

	"gorm.io/gorm"
)

const (
	NotificationTypeAtRiskReminder = "at_risk_reminder" // student-facing
	NotificationTypeAtRiskAlert    = "at_risk_alert"    // instructor-facing
)

type Notification struct {
	gorm.Model
	RecipientID uint `gorm:"index"`
	Type        string
	Title       string
	Message     string
	CourseID    uint
	RiskTier    string
	Factors     string // comma-separated factor names
	Read        bool   `gorm:"default:false"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.RecipientID == 0 {
		return errors.New("notification requires a recipient")
	}
	return nil
}
