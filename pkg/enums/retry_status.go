package enums

import "fmt"

// RetryStatus tracks a queued report-generation retry.
type RetryStatus string

const (
	RetryStatusPending   RetryStatus = "pending"
	RetryStatusSucceeded RetryStatus = "succeeded"
	RetryStatusFailed    RetryStatus = "failed"
)

var validRetryStatuses = []RetryStatus{
	RetryStatusPending,
	RetryStatusSucceeded,
	RetryStatusFailed,
}

// IsValid reports whether the value is a known RetryStatus.
func (r RetryStatus) IsValid() bool {
	for _, candidate := range validRetryStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRetryStatus converts raw input into a RetryStatus.
func ParseRetryStatus(value string) (RetryStatus, error) {
	for _, candidate := range validRetryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid retry status %q", value)
}
