package entities

import "time"

// Pet is a pet profile owned by a user.
type Pet struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	OwnerID   uint       `gorm:"not null;index" json:"owner_id"`
	Name      string     `gorm:"size:100;not null" json:"name"`
	Species   string     `gorm:"size:50;not null" json:"species"`
	Breed     string     `gorm:"size:100;default:''" json:"breed"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Medications   []MedicationRecord `gorm:"foreignKey:PetID;constraint:OnDelete:CASCADE" json:"medications,omitempty"`
	HealthRecords []HealthRecord     `gorm:"foreignKey:PetID;constraint:OnDelete:CASCADE" json:"health_records,omitempty"`
}

// TableName returns the table name for GORM.
func (Pet) TableName() string {
	return "pets"
}
