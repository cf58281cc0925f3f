package models

import (
	"time"

	"github.com/google/uuid"

	"kycore/internal/kyc/document"
)

// Keys of the record data document written by the core.
const (
	DataVerificationURL          = "verification_url"
	DataVerificationURLCreatedAt = "verification_url_created_at"
	DataLastWebhookEvent         = "last_webhook_event"
	DataLastWebhookAt            = "last_webhook_at"
	DataUpdatedAt                = "data_updated_at"
	DataResumedAt                = "resumed_at"
	DataLastCompletionAt         = "last_completion_at"
	DataCompletionStatus         = "completion_status"
)

// TimestampLayout is the layout of every timestamp stored in record data.
const TimestampLayout = time.RFC3339Nano

// VerificationRecord is the authoritative local state of one verification.
//
// Invariants:
//   - Reference is globally unique; it may be a temp_ref_ placeholder until the provider assigns one
//   - StartedAt is set at most once and never cleared
//   - CompletedAt is set when Status first enters a completed state and is never cleared
//   - Data is always an object and is merged, never replaced
//   - Version increases by one with every persisted update
type VerificationRecord struct {
	ID          uuid.UUID      `json:"id"`
	Owner       OwnerRef       `json:"owner"`
	Driver      string         `json:"driver"`
	Status      Status         `json:"status"`
	Reference   string         `json:"reference"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Data        document.Value `json:"data"`
	Notes       string         `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Version     int64          `json:"version"`
}

// NewRecord builds a NotStarted record for owner.
func NewRecord(owner OwnerRef, driver, reference string, now time.Time) *VerificationRecord {
	return &VerificationRecord{
		ID:        uuid.New(),
		Owner:     owner,
		Driver:    driver,
		Status:    StatusNotStarted,
		Reference: reference,
		Data:      document.EmptyObject(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PlaceholderReference generates the local reference used before a provider assigns one.
func PlaceholderReference() string {
	return "temp_ref_" + uuid.NewString()
}

// Clone returns a copy that shares no mutable state with r.
func (r *VerificationRecord) Clone() *VerificationRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.StartedAt != nil {
		t := *r.StartedAt
		out.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

// URLActive is the single expiry rule for stored verification URLs: a URL created at
// createdAt is active while now - createdAt <= expiry.
func URLActive(createdAt, now time.Time, expiry time.Duration) bool {
	return now.Sub(createdAt) <= expiry
}

// ActiveVerificationURL returns the stored URL when it has not expired. A URL stored
// without a creation timestamp is treated as active.
func (r *VerificationRecord) ActiveVerificationURL(now time.Time, expiry time.Duration) string {
	url := r.Data.StringAt(DataVerificationURL)
	if url == "" {
		return ""
	}
	raw := r.Data.StringAt(DataVerificationURLCreatedAt)
	if raw == "" {
		return url
	}
	createdAt, err := time.Parse(TimestampLayout, raw)
	if err != nil {
		return url
	}
	if !URLActive(createdAt, now, expiry) {
		return ""
	}
	return url
}

// CanResume is the local resumability predicate: a resumable status and either an
// active URL or a reference the provider can be asked about.
func (r *VerificationRecord) CanResume(now time.Time, expiry time.Duration) bool {
	if !r.Status.CanBeResumed() {
		return false
	}
	return r.ActiveVerificationURL(now, expiry) != "" || r.Reference != ""
}

func (r *VerificationRecord) IsCompleted() bool  { return r.Status.IsCompleted() }
func (r *VerificationRecord) IsFailed() bool     { return r.Status.IsFailed() }
func (r *VerificationRecord) IsInProgress() bool { return r.Status.IsInProgress() }
func (r *VerificationRecord) NeedsAction() bool  { return r.Status.NeedsAction() }
