package persistent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/civic-os/file-pipeline/pkg/postgres"
)

// Notification channels. Workers LISTEN on these; the repos publish on them
// inside the same transaction as the row insert, so a delivered notification
// always refers to a committed row.
const (
	UploadRequestChannel = "upload_request_created"
	FileRecordChannel    = "file_record_created"
)

func notifyJSON(ctx context.Context, executor postgres.Executor, channel string, payload map[string]any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notifyJSON - json.Marshal: %w", err)
	}

	_, err = executor.Exec(ctx, "SELECT pg_notify($1, $2)", channel, string(b))
	if err != nil {
		return fmt.Errorf("notifyJSON - executor.Exec: %w", err)
	}

	return nil
}
