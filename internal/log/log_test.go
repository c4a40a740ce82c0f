package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanosoftsystem/ai/internal/log"
)

func newBufLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(log.NewContextHandler(slog.NewJSONHandler(buf, nil)))
}

func TestContextHandler(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := newBufLogger(&buf)

	ctx := log.ContextAttrs(context.Background(), slog.String("service", "bus"))
	logger.InfoContext(ctx, "starting service")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "starting service", record["msg"])
	require.Equal(t, "bus", record["service"])
}

func TestContextHandlerWithoutAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := newBufLogger(&buf)

	logger.InfoContext(context.Background(), "plain record")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "plain record", record["msg"])
}

func TestWithInvocation(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := newBufLogger(&buf)

	ctx := log.WithInvocation(context.Background(), "all", "inv-1234")
	logger.InfoContext(ctx, "orchestrating")

	var record struct {
		Aictl struct {
			Cmd        string `json:"cmd"`
			Pid        int    `json:"pid"`
			Invocation string `json:"invocation"`
		} `json:"aictl"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "all", record.Aictl.Cmd)
	require.Equal(t, os.Getpid(), record.Aictl.Pid)
	require.Equal(t, "inv-1234", record.Aictl.Invocation)
}
