package model

import "time"

// 処理済みwebhookイベント。同じIDは二度適用しない
type PaymentEvent struct {
	EventID          string        `gorm:"type:varchar(255);primaryKey" json:"event_id"`
	Type             string        `gorm:"type:varchar(100);not null" json:"type"`
	PaymentReference string        `gorm:"type:varchar(255);not null;index" json:"payment_reference"`
	Status           PaymentStatus `gorm:"type:varchar(20);not null" json:"status"`
	ReceivedAt       time.Time     `gorm:"not null;autoCreateTime" json:"received_at"`
}
