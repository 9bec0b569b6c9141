package models

import "time"

// ReminderRecord marks one dispatched expiry reminder. At most one record per
// (subscription_id, days_before_expiration) is written within the resend
// guard window.
type ReminderRecord struct {
	ID                   string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID       string    `gorm:"column:subscription_id;type:uuid;not null;index:idx_reminder_sub_days,priority:1" json:"subscription_id"`
	TenantID             string    `gorm:"column:tenant_id;type:varchar(64);not null" json:"tenant_id"`
	DaysBeforeExpiration int       `gorm:"column:days_before_expiration;not null;index:idx_reminder_sub_days,priority:2" json:"days_before_expiration"`
	SentAt               time.Time `gorm:"column:sent_at;not null;index:idx_reminder_sub_days,priority:3" json:"sent_at"`
	CreatedAt            time.Time `json:"created_at"`
}

func (ReminderRecord) TableName() string {
	return "reminder_record"
}
