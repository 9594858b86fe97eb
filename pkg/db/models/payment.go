package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sgalleguillos/brokerpulse-backend/pkg/enums"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/types"
)

// Payment is the immutable record created once per checkout attempt that
// passes validation. LineItems snapshots the cart at purchase time for audit;
// the row is never mutated after creation.
type Payment struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID              `gorm:"column:user_id;type:uuid;not null"`
	BillingInfo types.BillingInfo      `gorm:"column:billing_info;type:jsonb;serializer:json"`
	LineItems   json.RawMessage        `gorm:"column:line_items;type:jsonb;not null"`
	AmountGross int64                  `gorm:"column:amount_gross;not null"`
	AmountNet   int64                  `gorm:"column:amount_net;not null"`
	Tax         int64                  `gorm:"column:tax;not null"`
	Strategy    enums.CheckoutStrategy `gorm:"column:strategy;type:text;not null"`
	Status      enums.PaymentStatus    `gorm:"column:status;type:text;not null;default:'completed'"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}
