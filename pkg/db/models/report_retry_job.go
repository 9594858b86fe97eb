package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sgalleguillos/brokerpulse-backend/pkg/enums"
)

// ReportRetryJob queues a failed report generation for out-of-band replay.
// The checkout never fails on generation errors; it records one of these
// instead so the failure stays discoverable.
type ReportRetryJob struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	BrokerRUT string            `gorm:"column:broker_rut;type:text;not null"`
	Period    string            `gorm:"column:period;type:text;not null"`
	Status    enums.RetryStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Attempts  int               `gorm:"column:attempts;not null;default:0"`
	LastError *string           `gorm:"column:last_error;type:text"`
	NextRunAt time.Time         `gorm:"column:next_run_at;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
