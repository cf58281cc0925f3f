package notify

import (
	"context"
	"log/slog"

	"kycore/internal/kyc/models"
	"kycore/pkg/requestcontext"
)

// LogNotifier writes each notification as one structured log line.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n models.Notification) error {
	l.logger.InfoContext(ctx, "kyc notification",
		"kind", string(n.Kind),
		"owner", n.Owner.String(),
		"reference", n.Reference,
		"driver", n.Driver,
		"status", string(n.Status),
		"event", n.Event,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
