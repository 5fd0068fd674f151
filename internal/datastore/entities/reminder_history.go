package entities

import "time"

// ReminderHistory records a fired medication reminder.
type ReminderHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MedicationID uint      `gorm:"not null;index" json:"medication_id"`
	PetName      string    `gorm:"size:100;default:''" json:"pet_name"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Message      string    `gorm:"size:1000;not null" json:"message"`
	FiredAt      time.Time `gorm:"not null;index" json:"fired_at"`
}

// TableName returns the table name for GORM.
func (ReminderHistory) TableName() string {
	return "reminder_history"
}
