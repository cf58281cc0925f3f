package service

import (
	"time"

	"kycore/internal/kyc/document"
	"kycore/internal/kyc/models"
)

// Raw response keys copied into record data for providers that report them.
var rawPassthroughKeys = []string{"verification_data", "verification_result", "info"}

// flattenOptions selects optional response fields kept in record data.
type flattenOptions struct {
	duplicateDetection bool
}

// responseContent flattens the non-empty response fields into a data patch. It
// does not include the webhook metadata keys.
func responseContent(resp *models.VerificationResponse, opts flattenOptions) (document.Value, error) {
	fields := map[string]any{}
	if resp.VerificationURL != "" {
		fields[models.DataVerificationURL] = resp.VerificationURL
	}
	if len(resp.ExtractedData) > 0 {
		fields["extracted_data"] = resp.ExtractedData
	}
	if len(resp.VerificationResults) > 0 {
		fields["verification_results"] = resp.VerificationResults
	}
	if len(resp.DocumentImages) > 0 {
		fields["document_images"] = resp.DocumentImages
	}
	if resp.VerificationVideo != "" {
		fields["verification_video"] = resp.VerificationVideo
	}
	if resp.VerificationReport != "" {
		fields["verification_report"] = resp.VerificationReport
	}
	if resp.ImageAccessToken != "" {
		fields["image_access_token"] = resp.ImageAccessToken
	}
	if resp.Country != "" {
		fields["country"] = resp.Country
	}
	if opts.duplicateDetection && resp.DuplicateDetected != nil {
		fields["duplicate_detected"] = *resp.DuplicateDetected
	}
	if resp.DeclineReason != "" {
		fields["decline_reason"] = resp.DeclineReason
	}
	if resp.Message != "" {
		fields["message"] = resp.Message
	}
	for _, key := range rawPassthroughKeys {
		if v, ok := resp.RawResponse[key]; ok && v != nil {
			fields[key] = v
		}
	}
	return document.FromAny(fields)
}

// mergeResponse folds resp into existing record data.
//
// The URL timestamp moves only when the URL itself is new or different. For
// data-changed events data_updated_at moves only when the content changed, and a
// data-changed event without verification_data contributes nothing but the
// webhook metadata. The returned flag reports a data-changed event that carried no
// verification_data.
func mergeResponse(existing document.Value, resp *models.VerificationResponse, now time.Time, opts flattenOptions) (document.Value, bool, error) {
	existing = document.EnsureObject(existing)
	stamp := document.String(now.UTC().Format(models.TimestampLayout))

	dataChanged := resp.IsDataChanged()
	_, hasVerificationData := resp.RawResponse["verification_data"]
	emptyDataChange := dataChanged && !hasVerificationData

	merged := existing
	if !emptyDataChange {
		content, err := responseContent(resp, opts)
		if err != nil {
			return document.Value{}, false, err
		}
		if url := resp.VerificationURL; url != "" && existing.StringAt(models.DataVerificationURL) != url {
			content = content.With(models.DataVerificationURLCreatedAt, stamp)
		}
		merged = document.Merge(existing, content)
		if dataChanged && !document.Equal(merged, existing) {
			merged = merged.With(models.DataUpdatedAt, stamp)
		}
	}

	merged = merged.
		With(models.DataLastWebhookEvent, document.String(resp.Event)).
		With(models.DataLastWebhookAt, stamp)
	return merged, emptyDataChange, nil
}
