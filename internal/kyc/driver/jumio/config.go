package jumio

import "time"

const (
	// Name is the registry key of this driver.
	Name = "jumio"

	DefaultBaseURL = "https://account.amer-1.jumio.ai"
	DefaultAuthURL = "https://auth.amer-1.jumio.ai"
	defaultTimeout = 30 * time.Second
	// tokenLeeway renews the access token this long before it expires.
	tokenLeeway = 60 * time.Second
)

// Config holds the Jumio credentials and endpoints.
type Config struct {
	Enabled       bool
	BaseURL       string
	AuthURL       string
	ClientID      string
	ClientSecret  string
	WebhookSecret string
	WorkflowKey   string
	CallbackURL   string
	SuccessURL    string
	StoragePath   string
	Timeout       time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.WorkflowKey == "" {
		c.WorkflowKey = "10013"
	}
	if c.StoragePath == "" {
		c.StoragePath = "kyc/documents"
	}
	return c
}
