// Package contract holds reusable checks every driver must pass.
package contract

import (
	"context"
	"net/http"
	"testing"

	"kycore/internal/kyc/driver"
	"kycore/internal/kyc/models"
)

// UnknownEvents are event strings no provider is expected to recognise.
var UnknownEvents = []string{
	"",
	"verification.unknown",
	"totally-made-up",
	"VERIFICATION.COMPLETED.EXTRA",
	"request.data.changed.v2",
	"\x00\xff",
}

// MappingSuite checks the event mapping of a driver.
type MappingSuite struct {
	Driver driver.Driver
	// Expected maps every documented provider event to its status.
	Expected map[string]models.Status
}

// Run verifies every documented event, totality over the corpus and the
// unrecognised-event default.
func (s *MappingSuite) Run(t *testing.T) {
	t.Run("documented events", func(t *testing.T) {
		for event, want := range s.Expected {
			if got := s.Driver.MapEventToStatus(event); got != want {
				t.Errorf("MapEventToStatus(%q) = %s, want %s", event, got, want)
			}
		}
	})

	t.Run("mapping is total", func(t *testing.T) {
		corpus := append([]string(nil), UnknownEvents...)
		for event := range s.Expected {
			corpus = append(corpus, event)
		}
		for _, event := range corpus {
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Errorf("MapEventToStatus(%q) panicked: %v", event, r)
					}
				}()
				if got := s.Driver.MapEventToStatus(event); !got.IsValid() {
					t.Errorf("MapEventToStatus(%q) returned invalid status %q", event, got)
				}
			}()
		}
	})

	t.Run("unrecognised events map to in progress", func(t *testing.T) {
		for _, event := range UnknownEvents {
			if _, documented := s.Expected[event]; documented {
				continue
			}
			if got := s.Driver.MapEventToStatus(event); got != models.StatusInProgress {
				t.Errorf("MapEventToStatus(%q) = %s, want %s", event, got, models.StatusInProgress)
			}
		}
	})
}

// CapabilityTest validates that a driver declares its identity and capabilities.
type CapabilityTest struct {
	Driver driver.Driver
}

func (ct *CapabilityTest) Run(t *testing.T) {
	if ct.Driver.Name() == "" {
		t.Error("driver name not set")
	}
	caps := ct.Driver.Capabilities()
	if len(caps.List()) == 0 {
		t.Error("no capabilities declared")
	}
	for _, f := range caps.List() {
		known := false
		for _, k := range driver.AllFeatures {
			if f == k {
				known = true
			}
		}
		if !known {
			t.Errorf("unknown feature %q declared", f)
		}
	}
	if ct.Driver.Config() == nil {
		t.Error("config must not be nil")
	}
	t.Logf("Driver %s capabilities: %v", ct.Driver.Name(), caps.List())
}

// WebhookTest checks that ProcessWebhook rejects payloads without a correlation
// reference and accepts a well-formed one.
type WebhookTest struct {
	Driver driver.Driver
	// Valid is a payload the driver must accept; signed if the driver enforces signatures.
	Valid []byte
	// MissingReference is the same payload without its reference.
	MissingReference []byte
	Headers          http.Header
}

func (wt *WebhookTest) Run(t *testing.T) {
	ctx := context.Background()

	resp, err := wt.Driver.ProcessWebhook(ctx, wt.Valid, wt.Headers)
	if err != nil {
		t.Fatalf("valid webhook rejected: %v", err)
	}
	if resp.Reference == "" {
		t.Error("reference not set on webhook response")
	}
	if resp.Event == "" {
		t.Error("event not set on webhook response")
	}

	if _, err := wt.Driver.ProcessWebhook(ctx, wt.MissingReference, wt.Headers); err == nil {
		t.Error("webhook without reference accepted")
	}
	if _, err := wt.Driver.ProcessWebhook(ctx, []byte("{not json"), wt.Headers); err == nil {
		t.Error("malformed webhook accepted")
	}
}
