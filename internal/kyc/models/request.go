package models

// VerificationRequest is the input to creating a verification. Empty fields mean
// "let the provider decide"; no defaults are inferred here.
type VerificationRequest struct {
	Email            string         `json:"email"`
	Country          string         `json:"country,omitempty"`
	Language         string         `json:"language,omitempty"`
	RedirectURL      string         `json:"redirect_url,omitempty"`
	CallbackURL      string         `json:"callback_url,omitempty"`
	Reference        string         `json:"reference,omitempty"`
	JourneyID        string         `json:"journey_id,omitempty"`
	AllowedCountries []string       `json:"allowed_countries,omitempty"`
	DeniedCountries  []string       `json:"denied_countries,omitempty"`
	AdditionalData   map[string]any `json:"additional_data,omitempty"`
}

// ToMap returns the populated fields keyed by their wire names.
func (r VerificationRequest) ToMap() map[string]any {
	out := map[string]any{"email": r.Email}
	setString := func(key, v string) {
		if v != "" {
			out[key] = v
		}
	}
	setString("country", r.Country)
	setString("language", r.Language)
	setString("redirect_url", r.RedirectURL)
	setString("callback_url", r.CallbackURL)
	setString("reference", r.Reference)
	setString("journey_id", r.JourneyID)
	if r.AllowedCountries != nil {
		out["allowed_countries"] = append([]string(nil), r.AllowedCountries...)
	}
	if r.DeniedCountries != nil {
		out["denied_countries"] = append([]string(nil), r.DeniedCountries...)
	}
	if r.AdditionalData != nil {
		out["additional_data"] = r.AdditionalData
	}
	return out
}
