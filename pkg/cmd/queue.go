package cmd

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/nodeflow/nodeflow/pkg/queue"
	"github.com/nodeflow/nodeflow/pkg/queue/redisqueue"
)

// NewQueue creates a launch queue from a URL. redis://[:password@]host:port[/db]
// selects the Redis list queue; an empty URL or "memory" selects the
// in-process queue.
func NewQueue(ctx context.Context, queueURL string, logger *slog.Logger) (queue.Queue, error) {
	if queueURL == "" || queueURL == "memory" {
		return queue.NewMemoryQueue(logger), nil
	}

	parsed, err := url.Parse(queueURL)
	if err != nil {
		return nil, err
	}

	password, _ := parsed.User.Password()

	db := 0
	if path := strings.TrimPrefix(parsed.Path, "/"); path != "" {
		db, err = strconv.Atoi(path)
		if err != nil {
			return nil, err
		}
	}

	key := parsed.Query().Get("key")

	return redisqueue.NewQueue(ctx, parsed.Host, password, key, db, logger)
}
