package entities

import "time"

// MedicationRecord is a recurring medication for a pet. NextDueAt drives
// the reminder engine; IntervalSec is the repeat interval applied after
// each administration.
type MedicationRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PetID       uint      `gorm:"not null;index" json:"pet_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Dosage      string    `gorm:"size:100;default:''" json:"dosage"`
	IntervalSec int       `gorm:"not null;default:86400" json:"interval_sec"`
	NextDueAt   time.Time `gorm:"not null;index" json:"next_due_at"`
	Active      bool      `gorm:"not null;default:true;index" json:"active"`
	Notes       string    `gorm:"size:1000;default:''" json:"notes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Pet *Pet `gorm:"foreignKey:PetID" json:"-"`
}

// TableName returns the table name for GORM.
func (MedicationRecord) TableName() string {
	return "medication_records"
}
