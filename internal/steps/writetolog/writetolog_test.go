package writetolog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/streamgridgo/internal/ctxlog"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/rowbuffer"
	"github.com/vk/streamgridgo/internal/step"
)

func TestStep_LogsLimitedRows(t *testing.T) {
	// --- Arrange ---
	p := New()
	require.NoError(t, metainject.NewRequest(p).
		Set("LOG_LEVEL", "warn").
		Set("LOG_MESSAGE", "customer").
		Set("LIMIT_ROWS", "2").
		Apply())

	in := rowbuffer.New("gen -> log", 10)
	out := rowbuffer.New("log -> sink", 10)
	s := step.New("log", p, false)
	s.InputMeta = row.NewMeta(row.NewValueMeta("id", row.Integer), row.NewValueMeta("name", row.String))
	s.AddInput(in)
	s.AddOutput(out)
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, in.Put(context.Background(), row.Row{i, "x"}))
	}
	in.Close(false)

	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))

	// --- Act ---
	err := s.Run(ctx)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(logs.String(), "msg=customer"))
	assert.Contains(t, logs.String(), "level=WARN msg=customer step=log id=1 name=x")
	assert.Equal(t, int64(3), s.Stats().LinesWritten)
}

func TestStep_RejectsUnknownLevel(t *testing.T) {
	p := New()

	err := metainject.NewRequest(p).Set("LOG_LEVEL", "loud").Apply()

	var injErr *metainject.InjectionError
	require.ErrorAs(t, err, &injErr)
	assert.Equal(t, "info", p.Config().Level)
}
