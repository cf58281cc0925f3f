package models

// Provider event names with meaning outside a single driver.
const (
	EventRequestPending      = "request.pending"
	EventVerificationPending = "verification.pending"
	EventCompleted           = "verification.completed"
	EventApproved            = "verification.approved"
	EventFailed              = "verification.failed"
	EventDeclined            = "verification.declined"
	EventDataChanged         = "request.data.changed"
	EventResumed             = "verification.resumed"
)

// VerificationResponse is the canonical output of every driver operation.
//
// The event predicates look at the raw provider event string, not the mapped
// status; only a driver's MapEventToStatus is authoritative for status.
type VerificationResponse struct {
	Reference           string         `json:"reference"`
	Event               string         `json:"event"`
	Success             bool           `json:"success"`
	VerificationURL     string         `json:"verification_url,omitempty"`
	ExtractedData       map[string]any `json:"extracted_data,omitempty"`
	VerificationResults map[string]any `json:"verification_results,omitempty"`
	DocumentImages      []any          `json:"document_images,omitempty"`
	VerificationVideo   string         `json:"verification_video,omitempty"`
	VerificationReport  string         `json:"verification_report,omitempty"`
	ImageAccessToken    string         `json:"image_access_token,omitempty"`
	Country             string         `json:"country,omitempty"`
	DuplicateDetected   *bool          `json:"duplicate_detected,omitempty"`
	DeclineReason       string         `json:"decline_reason,omitempty"`
	RawResponse         map[string]any `json:"raw_response,omitempty"`
	Message             string         `json:"message,omitempty"`
}

func (r *VerificationResponse) IsSuccessful() bool {
	return r.Success
}

func (r *VerificationResponse) IsPending() bool {
	return r.Event == EventRequestPending || r.Event == EventVerificationPending
}

func (r *VerificationResponse) IsCompleted() bool {
	return r.Event == EventCompleted || r.Event == EventApproved
}

func (r *VerificationResponse) IsFailed() bool {
	return r.Event == EventFailed || r.Event == EventDeclined
}

func (r *VerificationResponse) IsDataChanged() bool {
	return r.Event == EventDataChanged
}

func (r *VerificationResponse) HasVerificationURL() bool {
	return r.VerificationURL != ""
}

func (r *VerificationResponse) HasDocuments() bool {
	return len(r.DocumentImages) > 0
}

// ToMap returns every field keyed by its wire name, absent values included as nil.
func (r *VerificationResponse) ToMap() map[string]any {
	var duplicate any
	if r.DuplicateDetected != nil {
		duplicate = *r.DuplicateDetected
	}
	return map[string]any{
		"reference":            r.Reference,
		"event":                r.Event,
		"success":              r.Success,
		"verification_url":     nilIfEmpty(r.VerificationURL),
		"extracted_data":       nilIfEmptyMap(r.ExtractedData),
		"verification_results": nilIfEmptyMap(r.VerificationResults),
		"document_images":      nilIfEmptySlice(r.DocumentImages),
		"verification_video":   nilIfEmpty(r.VerificationVideo),
		"verification_report":  nilIfEmpty(r.VerificationReport),
		"image_access_token":   nilIfEmpty(r.ImageAccessToken),
		"country":              nilIfEmpty(r.Country),
		"duplicate_detected":   duplicate,
		"decline_reason":       nilIfEmpty(r.DeclineReason),
		"raw_response":         nilIfEmptyMap(r.RawResponse),
		"message":              nilIfEmpty(r.Message),
	}
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nilIfEmptyMap(m map[string]any) any {
	if len(m) == 0 {
		return nil
	}
	return m
}

func nilIfEmptySlice(s []any) any {
	if len(s) == 0 {
		return nil
	}
	return s
}
