package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/cuttlefish/cuttlefish/internal/enum"
)

// Delivery is one outbound email instance. Tracking configuration is
// snapshotted from the owning app when the delivery is created so later
// app changes don't affect in-flight mail.
type Delivery struct {
	ID        uint64 `gorm:"primary_key;autoIncrement" json:"id"`
	AppID     uint64 `gorm:"column:app_id;index;NOT NULL" json:"appId"`
	MessageID string `gorm:"column:message_id;type:varchar(255);uniqueIndex" json:"messageId"`

	FromAddress string         `gorm:"column:from_address;type:varchar(255);index" json:"fromAddress"`
	ToAddresses pq.StringArray `gorm:"column:to_addresses;type:text[]" json:"toAddresses"`
	Subject     string         `gorm:"column:subject;type:varchar(1000)" json:"subject"`

	Status enum.DeliveryStatus `gorm:"column:status;type:varchar(50);index" json:"status"`

	// tracking configuration captured at creation time
	OpenTrackingEnabled  bool `gorm:"column:open_tracking_enabled;type:boolean;NOT NULL;DEFAULT:false" json:"openTrackingEnabled"`
	ClickTrackingEnabled bool `gorm:"column:click_tracking_enabled;type:boolean;NOT NULL;DEFAULT:false" json:"clickTrackingEnabled"`

	// OpenedAt transitions from NULL exactly once, when a tracking pixel
	// is first rendered into the body and later fetched
	OpenTrackedAt *time.Time `gorm:"column:open_tracked_at;type:timestamp" json:"openTrackedAt"`
	OpenedAt      *time.Time `gorm:"column:opened_at;type:timestamp" json:"openedAt"`

	// where the raw rewritten message is archived
	StorageKey string `gorm:"column:storage_key;type:varchar(255)" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;DEFAULT:current_timestamp" json:"updatedAt"`
}

func (Delivery) TableName() string {
	return "deliveries"
}

// OpenTracked reports whether a tracking pixel has been rendered into
// this delivery's body.
func (d *Delivery) OpenTracked() bool {
	return d.OpenTrackedAt != nil
}

func (d *Delivery) Opened() bool {
	return d.OpenedAt != nil
}
