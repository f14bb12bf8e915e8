package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/easelab/easel/pkg/domain"
	"github.com/easelab/easel/pkg/notify"
)

// streamMsg is one frame of the change feed: the event name for
// filtering and the fully rendered JSON payload.
type streamMsg struct {
	Event   string
	Payload string
}

// StreamManager fans change events out to active SSE connections. A
// slow client drops frames rather than blocking the broadcast.
type StreamManager struct {
	mu   sync.RWMutex
	subs map[chan streamMsg]struct{}
	log  *slog.Logger
}

func NewStreamManager(log *slog.Logger) *StreamManager {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StreamManager{
		subs: make(map[chan streamMsg]struct{}),
		log:  log,
	}
}

// Subscribe registers a new client and returns its frame channel plus
// a cancel that detaches and closes it. Calling cancel twice is a
// no-op.
func (sm *StreamManager) Subscribe() (<-chan streamMsg, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan streamMsg, 10)
	sm.subs[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subs[ch]; ok {
			delete(sm.subs, ch)
			close(ch)
		}
	}
}

// Broadcast delivers one frame to every subscriber.
func (sm *StreamManager) Broadcast(event, payload string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subs {
		select {
		case ch <- streamMsg{Event: event, Payload: payload}:
		default:
			sm.log.Warn("sse client buffer full, dropping frame", "event", event)
		}
	}
}

// streamEvents are the bus events forwarded to SSE clients.
var streamEvents = []string{
	domain.EventGraphSaved,
	domain.EventGraphLoaded,
	domain.EventGraphModified,
	domain.EventGraphDeleted,
	domain.EventNodeAdded,
	domain.EventNodeRemoved,
	domain.EventNodeUpdated,
	domain.EventEdgeAdded,
	domain.EventEdgeRemoved,
	domain.EventSyncDegraded,
}

// bindStream forwards every bus event to the stream manager as a
// {"event":name,"data":payload} frame.
func bindStream(n *notify.Notifier, streams *StreamManager) {
	for _, name := range streamEvents {
		n.Subscribe(name, func(ctx context.Context, evt domain.Event) error {
			data, err := json.Marshal(evt)
			if err != nil {
				return fmt.Errorf("encode %s payload: %w", evt.EventName(), err)
			}
			frame, err := json.Marshal(struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}{Event: evt.EventName(), Data: data})
			if err != nil {
				return err
			}
			streams.Broadcast(evt.EventName(), string(frame))
			return nil
		})
	}
}
