package models

import "time"

// Team is the owning group for a set of apps. The singleton system app is
// the only app without one.
type Team struct {
	ID        uint64    `gorm:"primary_key;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(255);NOT NULL" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;DEFAULT:current_timestamp" json:"updatedAt"`
}

func (Team) TableName() string {
	return "teams"
}
