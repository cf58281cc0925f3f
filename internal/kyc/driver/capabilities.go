package driver

import "sort"

// Feature names one provider capability. Capabilities are informational and never
// alter reconciliation.
type Feature string

const (
	FeatureDocumentVerification Feature = "document_verification"
	FeatureFaceVerification     Feature = "face_verification"
	FeatureAddressVerification  Feature = "address_verification"
	FeatureBackgroundChecks     Feature = "background_checks"
	FeatureAgeVerification      Feature = "age_verification"
	FeatureJourneyVerification  Feature = "journey_verification"
	FeatureDirectAPI            Feature = "direct_api"
	FeatureWebhookCallbacks     Feature = "webhook_callbacks"
	FeatureDocumentDownload     Feature = "document_download"
)

// AllFeatures lists the known features.
var AllFeatures = []Feature{
	FeatureDocumentVerification,
	FeatureFaceVerification,
	FeatureAddressVerification,
	FeatureBackgroundChecks,
	FeatureAgeVerification,
	FeatureJourneyVerification,
	FeatureDirectAPI,
	FeatureWebhookCallbacks,
	FeatureDocumentDownload,
}

// Capabilities is the set of features a driver declares.
type Capabilities map[Feature]bool

func NewCapabilities(features ...Feature) Capabilities {
	c := make(Capabilities, len(features))
	for _, f := range features {
		c[f] = true
	}
	return c
}

func (c Capabilities) Supports(f Feature) bool {
	return c[f]
}

// List returns the supported features sorted by name.
func (c Capabilities) List() []Feature {
	out := make([]Feature, 0, len(c))
	for f, ok := range c {
		if ok {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Map renders every known feature as a bool, for health and config output.
func (c Capabilities) Map() map[string]bool {
	out := make(map[string]bool, len(AllFeatures))
	for _, f := range AllFeatures {
		out[string(f)] = c[f]
	}
	return out
}
