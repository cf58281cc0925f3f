package notify

import (
	"context"
	"sync"

	"kycore/internal/kyc/models"
)

// Recorder keeps every notification in memory. Tests use it to assert what the
// service emitted.
type Recorder struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent Notify calls record and then return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Notify(_ context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Kinds lists the recorded kinds in order.
func (r *Recorder) Kinds() []models.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]models.NotificationKind, 0, len(r.sent))
	for _, n := range r.sent {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
