package shuftipro

import "kycore/internal/kyc/models"

// Provider events. Anything not listed maps to in progress.
var eventStatus = map[string]models.Status{
	"request.pending":             models.StatusRequestPending,
	"verification.pending":        models.StatusInProgress,
	"verification.in_progress":    models.StatusInProgress,
	"verification.review_pending": models.StatusReviewPending,
	"review.pending":              models.StatusReviewPending,
	"verification.completed":      models.StatusVerificationCompleted,
	"verification.approved":       models.StatusVerificationCompleted,
	"verification.accepted":       models.StatusVerificationCompleted,
	"verification.failed":         models.StatusVerificationFailed,
	"request.invalid":             models.StatusVerificationFailed,
	"verification.declined":       models.StatusRejected,
	"verification.cancelled":      models.StatusVerificationCancelled,
	"request.timeout":             models.StatusRequestTimeout,
}

// EventTable returns a copy of the documented event mapping.
func EventTable() map[string]models.Status {
	out := make(map[string]models.Status, len(eventStatus))
	for k, v := range eventStatus {
		out[k] = v
	}
	return out
}

func (d *Driver) MapEventToStatus(event string) models.Status {
	if status, ok := eventStatus[event]; ok {
		return status
	}
	return models.StatusInProgress
}
