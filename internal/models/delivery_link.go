package models

import "time"

// DeliveryLink is one tracked destination URL within a delivery's HTML
// body. Repeated identical hrefs share a single row.
type DeliveryLink struct {
	ID         uint64 `gorm:"primary_key;autoIncrement" json:"id"`
	DeliveryID uint64 `gorm:"column:delivery_id;NOT NULL;uniqueIndex:idx_delivery_link_url" json:"deliveryId"`
	URL        string `gorm:"column:url;type:text;NOT NULL;uniqueIndex:idx_delivery_link_url" json:"url"`

	// ClickedAt transitions from NULL at most once, on the first click
	ClickedAt *time.Time `gorm:"column:clicked_at;type:timestamp" json:"clickedAt"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;DEFAULT:current_timestamp" json:"updatedAt"`
}

func (DeliveryLink) TableName() string {
	return "delivery_links"
}

func (l *DeliveryLink) Clicked() bool {
	return l.ClickedAt != nil
}
