package models

import (
	"strings"

	dErrors "kycore/pkg/domain-errors"
)

// Status is the canonical verification status vocabulary. Every provider event is
// translated into one of these values by the owning driver.
type Status string

const (
	StatusNotStarted            Status = "not_started"
	StatusRequestPending        Status = "request_pending"
	StatusInProgress            Status = "in_progress"
	StatusReviewPending         Status = "review_pending"
	StatusVerificationCompleted Status = "verification_completed"
	StatusVerificationFailed    Status = "verification_failed"
	StatusVerificationCancelled Status = "verification_cancelled"
	StatusRequestTimeout        Status = "request_timeout"
	StatusCompleted             Status = "completed"
	StatusRejected              Status = "rejected"
)

// AllStatuses lists every status in declaration order.
var AllStatuses = []Status{
	StatusNotStarted,
	StatusRequestPending,
	StatusInProgress,
	StatusReviewPending,
	StatusVerificationCompleted,
	StatusVerificationFailed,
	StatusVerificationCancelled,
	StatusRequestTimeout,
	StatusCompleted,
	StatusRejected,
}

// FailedStatuses are the statuses counted as a spent verification attempt.
var FailedStatuses = []Status{StatusVerificationFailed, StatusRejected, StatusRequestTimeout}

type statusMeta struct {
	label       string
	description string
	color       string
}

var statusTable = map[Status]statusMeta{
	StatusNotStarted:            {"Not Started", "KYC verification has not been started", "gray"},
	StatusRequestPending:        {"Request Pending", "KYC verification request is pending", "yellow"},
	StatusInProgress:            {"Verification In Progress", "KYC verification is currently in progress", "blue"},
	StatusReviewPending:         {"Review Pending", "KYC verification is pending review", "orange"},
	StatusVerificationCompleted: {"Verification Completed", "Identity verification has been completed", "green"},
	StatusVerificationFailed:    {"Verification Failed", "Identity verification has failed", "red"},
	StatusVerificationCancelled: {"Verification Cancelled", "Identity verification was cancelled", "gray"},
	StatusRequestTimeout:        {"Request Timeout", "KYC verification request has timed out", "red"},
	StatusCompleted:             {"KYC Completed", "KYC verification process has been completed", "green"},
	StatusRejected:              {"KYC Rejected", "KYC verification has been rejected", "red"},
}

// ParseStatus parses a status case-insensitively.
func ParseStatus(s string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(s)))
	if !candidate.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid verification status: "+s)
	}
	return candidate, nil
}

func (s Status) IsValid() bool {
	_, ok := statusTable[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

func (s Status) Label() string       { return statusTable[s].label }
func (s Status) Description() string { return statusTable[s].description }
func (s Status) Color() string       { return statusTable[s].color }

// NeedsAction reports whether the owner has to start a verification.
func (s Status) NeedsAction() bool {
	switch s {
	case StatusNotStarted, StatusVerificationFailed, StatusVerificationCancelled, StatusRequestTimeout:
		return true
	}
	return false
}

// CanStartIdentityVerification reports whether a fresh verification may be created.
func (s Status) CanStartIdentityVerification() bool {
	return s.NeedsAction()
}

// CanBeResumed reports whether an existing session may be re-presented.
func (s Status) CanBeResumed() bool {
	return s == StatusInProgress || s == StatusRequestPending
}

// NeedsVerificationOrResume is the union of NeedsAction and CanBeResumed.
func (s Status) NeedsVerificationOrResume() bool {
	return s.NeedsAction() || s.CanBeResumed()
}

func (s Status) IsInProgress() bool {
	switch s {
	case StatusRequestPending, StatusInProgress, StatusReviewPending:
		return true
	}
	return false
}

func (s Status) IsCompleted() bool {
	return s == StatusVerificationCompleted || s == StatusCompleted
}

func (s Status) IsFailed() bool {
	switch s {
	case StatusVerificationFailed, StatusRejected, StatusRequestTimeout:
		return true
	}
	return false
}
