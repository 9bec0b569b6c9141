package models

import "time"

// TenantProfile is the notification-target lookup for a tenant. Rows are
// owned by the account subsystem; this core only reads them, and a missing
// row or empty email is a valid skip, not an error.
type TenantProfile struct {
	ID        string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TenantID  string    `gorm:"column:tenant_id;type:varchar(64);not null;uniqueIndex" json:"tenant_id"`
	Email     string    `gorm:"column:email;type:varchar(255)" json:"email"`
	Name      string    `gorm:"column:name;type:varchar(255)" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TenantProfile) TableName() string {
	return "tenant_profile"
}
