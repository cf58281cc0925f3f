package shuftipro

import "time"

const (
	// Name is the registry key of this driver.
	Name = "shuftipro"

	DefaultBaseURL     = "https://api.shuftipro.com"
	defaultTimeout     = 30 * time.Second
	defaultConcurrency = 4
)

// Config holds the provider credentials and endpoints.
type Config struct {
	Enabled     bool
	BaseURL     string
	ClientID    string
	SecretKey   string
	CallbackURL string
	RedirectURL string
	// StoragePath prefixes document keys in DocumentStorage.
	StoragePath string
	Timeout     time.Duration
	// DownloadConcurrency bounds parallel proof downloads.
	DownloadConcurrency int
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.DownloadConcurrency <= 0 {
		c.DownloadConcurrency = defaultConcurrency
	}
	if c.StoragePath == "" {
		c.StoragePath = "kyc/documents"
	}
	return c
}
