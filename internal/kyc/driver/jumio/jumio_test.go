package jumio

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycore/internal/kyc/driver"
	"kycore/internal/kyc/driver/contract"
	"kycore/internal/kyc/models"
)

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	s, err := tok.SignedString([]byte("provider-key"))
	require.NoError(t, err)
	return s
}

type fakeJumio struct {
	tokenCalls atomic.Int32
	token      string
	mux        *http.ServeMux
}

func newFakeJumio(t *testing.T) (*Driver, *fakeJumio) {
	t.Helper()
	f := &fakeJumio{token: signedToken(t, fixedNow.Add(time.Hour)), mux: http.NewServeMux()}
	f.mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": f.token, "expires_in": 10})
	})
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)

	d := New(Config{
		Enabled:       true,
		BaseURL:       srv.URL,
		AuthURL:       srv.URL,
		ClientID:      "id",
		ClientSecret:  "secret",
		WebhookSecret: "hook",
	}, WithClock(func() time.Time { return fixedNow }))
	return d, f
}

func TestJumioContract(t *testing.T) {
	d := New(Config{Enabled: true, WebhookSecret: "hook"})

	(&contract.MappingSuite{Driver: d, Expected: EventTable()}).Run(t)
	(&contract.CapabilityTest{Driver: d}).Run(t)
	(&contract.WebhookTest{
		Driver:           d,
		Valid:            []byte(`{"workflowExecution":{"id":"we-1","status":"PROCESSED"},"decision":{"type":"PASSED"}}`),
		MissingReference: []byte(`{"workflowExecution":{"status":"PROCESSED"}}`),
	}).Run(t)
}

func TestMapEventToStatusIsCaseInsensitive(t *testing.T) {
	d := New(Config{})
	assert.Equal(t, models.StatusRequestTimeout, d.MapEventToStatus("session_expired"))
	assert.Equal(t, models.StatusRejected, d.MapEventToStatus("Rejected"))
	assert.Equal(t, models.StatusInProgress, d.MapEventToStatus("NEW_STATE"))
}

func TestWebhookSignature(t *testing.T) {
	d := New(Config{WebhookSecret: "hook"})
	body := []byte(`{"workflowExecution":{"id":"we-1","status":"ACQUIRED"}}`)

	headers := http.Header{}
	headers.Set(SignatureHeader, hex.EncodeToString(Sign(body, "hook")))
	assert.True(t, d.ValidateWebhookSignature(body, headers))

	headers.Set(SignatureHeader, hex.EncodeToString(Sign(body, "other")))
	assert.False(t, d.ValidateWebhookSignature(body, headers))

	headers.Set(SignatureHeader, "not-hex")
	assert.False(t, d.ValidateWebhookSignature(body, headers))
}

func TestCreateVerificationCachesToken(t *testing.T) {
	d, f := newFakeJumio(t)
	f.mux.HandleFunc("POST /api/v1/accounts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+f.token, r.Header.Get("Authorization"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user:1", body["customerInternalReference"])
		_, _ = io.WriteString(w, `{"account":{"id":"acc-1"},"workflowExecution":{"id":"we-1","status":"INITIATED"},"web":{"href":"https://jumio.example/web/we-1"}}`)
	})

	owner := models.Owner{Ref: models.OwnerRef{Type: "user", ID: "1"}, Email: "a@b.com"}
	for i := 0; i < 2; i++ {
		resp, err := d.CreateVerification(context.Background(), owner, models.VerificationRequest{Email: "a@b.com", Country: "US"})
		require.NoError(t, err)
		assert.Equal(t, "we-1", resp.Reference)
		assert.Equal(t, "INITIATED", resp.Event)
		assert.Equal(t, "https://jumio.example/web/we-1", resp.VerificationURL)
	}
	assert.Equal(t, int32(1), f.tokenCalls.Load(), "token reused until exp claim")
}

func TestTokenExpiry(t *testing.T) {
	exp := fixedNow.Add(30 * time.Minute).Truncate(time.Second)
	assert.Equal(t, exp, tokenExpiry(tokenResponse{AccessToken: signedToken(t, exp)}, fixedNow).UTC())
	assert.Equal(t, fixedNow.Add(10*time.Second), tokenExpiry(tokenResponse{AccessToken: "opaque", ExpiresIn: 10}, fixedNow))
}

func TestRetrieveVerificationUsesDecision(t *testing.T) {
	d, f := newFakeJumio(t)
	f.mux.HandleFunc("GET /api/v1/workflow-executions/we-2/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"workflowExecution":{"id":"we-2","status":"PROCESSED"},"decision":{"type":"REJECTED","details":{"label":"BLURRED"}}}`)
	})

	resp, err := d.RetrieveVerification(context.Background(), "we-2")
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", resp.Event)
	assert.False(t, resp.Success)
	assert.Equal(t, "REJECTED", resp.DeclineReason)

	ok, err := d.CanResumeVerification(context.Background(), "we-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRetrieveVerificationNotFound(t *testing.T) {
	d, _ := newFakeJumio(t)
	_, err := d.RetrieveVerification(context.Background(), "missing")
	assert.Equal(t, driver.ErrorNotFound, driver.GetCategory(err))
}

func TestDownloadDocuments(t *testing.T) {
	storage := driver.NewMemoryStorage()
	d, f := newFakeJumio(t)
	d.storage = storage
	f.mux.HandleFunc("GET /api/v1/workflow-executions/we-3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"credentials":[{"category":"ID","parts":[{"classifier":"FRONT","href":"http://`+r.Host+`/img/front"}]}]}`)
	})
	f.mux.HandleFunc("GET /img/front", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = io.WriteString(w, "front")
	})

	handles, err := d.DownloadDocuments(context.Background(), models.OwnerRef{Type: "user", ID: "1"}, "we-3")
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.Equal(t, "kyc/documents/user/1/we-3/id_front", handles[0].Path)
	assert.Equal(t, int64(5), handles[0].Size)
}

func TestDownloadDocumentsWithStorageDisabled(t *testing.T) {
	d, f := newFakeJumio(t)

	handles, err := d.DownloadDocuments(context.Background(), models.OwnerRef{Type: "user", ID: "7"}, "we-1")
	require.NoError(t, err)
	assert.Empty(t, handles)
	assert.Zero(t, f.tokenCalls.Load())
}
