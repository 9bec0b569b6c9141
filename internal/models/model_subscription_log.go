package models

import (
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"

	"gorm.io/datatypes"
)

// SubscriptionLog records subscription state changes for troubleshooting.
type SubscriptionLog struct {
	ID       string                         `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TenantID string                         `gorm:"column:tenant_id;type:varchar(64);index:idx_tenant_id_id,priority:1;not null" json:"tenant_id"`
	Reason   types.SubscriptionChangeReason `gorm:"column:reason;type:varchar(64);not null" json:"reason"`
	// Before and After snapshot the subscription around the change.
	Before    datatypes.JSONType[*Subscription] `gorm:"column:before;type:jsonb;default:'null'" json:"before"`
	After     datatypes.JSONType[*Subscription] `gorm:"column:after;type:jsonb;default:'null'" json:"after"`
	Extra     datatypes.JSONMap                 `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt time.Time                         `json:"created_at"`
}

func (SubscriptionLog) TableName() string {
	return "subscription_log"
}
