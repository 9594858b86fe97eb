package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Report is the deliverable generated after an access grant exists. Its
// absence never invalidates the grant or the payment; a failed generation is
// replayed from the retry queue.
type Report struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	BrokerRUT   string          `gorm:"column:broker_rut;type:text;not null"`
	Period      string          `gorm:"column:period;type:text;not null"`
	Payload     json.RawMessage `gorm:"column:payload;type:jsonb"`
	GeneratedAt time.Time       `gorm:"column:generated_at;not null"`
	ExpiresAt   time.Time       `gorm:"column:expires_at;not null"`
	Active      bool            `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
