package models

import (
	"time"

	"github.com/google/uuid"
)

// AccessGrant gives a user time-boxed access to a purchased module. One row
// is created per purchased line item regardless of checkout strategy.
// Expiration is evaluated by readers against ValidUntil, never written back.
type AccessGrant struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	PaymentID  uuid.UUID `gorm:"column:payment_id;type:uuid;not null"`
	ProductID  string    `gorm:"column:product_id;type:text;not null"`
	ModuleKey  string    `gorm:"column:module_key;type:text;not null"`
	ValidFrom  time.Time `gorm:"column:valid_from;not null"`
	ValidUntil time.Time `gorm:"column:valid_until;not null"`
	Active     bool      `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
