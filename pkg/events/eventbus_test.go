package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseramedia/tessera/pkg/interfaces"
	"github.com/tesseramedia/tessera/pkg/logger"
)

type recordingHandler struct {
	eventType string
	ctxErr    error
	handled   int
}

func (h *recordingHandler) Handle(ctx context.Context, _ interfaces.Event) error {
	h.ctxErr = ctx.Err()
	h.handled++
	return nil
}

func (h *recordingHandler) EventType() string {
	return h.eventType
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus(logger.NewNoop())
	handler := &recordingHandler{eventType: TitleDeleted}
	require.NoError(t, bus.Subscribe(TitleDeleted, handler))

	require.NoError(t, bus.Publish(context.Background(), NewEvent(TitleDeleted, nil)))
	assert.Equal(t, 1, handler.handled)

	require.NoError(t, bus.Unsubscribe(TitleDeleted, handler))
	require.NoError(t, bus.Publish(context.Background(), NewEvent(TitleDeleted, nil)))
	assert.Equal(t, 1, handler.handled)
}

func TestPublishAsyncOutlivesCallerContext(t *testing.T) {
	bus := NewInMemoryEventBus(logger.NewNoop())
	handler := &recordingHandler{eventType: UserDeleted}
	require.NoError(t, bus.Subscribe(UserDeleted, handler))

	// An HTTP request context is cancelled the moment the handler
	// returns; delivery must not be tied to it.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bus.PublishAsync(ctx, NewEvent(UserDeleted, map[string]interface{}{"username": "gone"}))
	require.NoError(t, bus.Stop())

	assert.Equal(t, 1, handler.handled)
	assert.NoError(t, handler.ctxErr)
}
