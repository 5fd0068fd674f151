package entities

import "time"

// HealthRecord is a dated observation, such as a weight reading
// or a vet visit note.
type HealthRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PetID      uint      `gorm:"not null;index" json:"pet_id"`
	Kind       string    `gorm:"size:50;not null;index" json:"kind"`
	Value      string    `gorm:"size:255;default:''" json:"value"`
	Notes      string    `gorm:"size:1000;default:''" json:"notes"`
	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (HealthRecord) TableName() string {
	return "health_records"
}
