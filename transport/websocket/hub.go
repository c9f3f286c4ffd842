package websocket

import (
	"bufio"
	"log/slog"
	"sync"

	"github.com/pinpanclub/pingpong-backend/internal/entity"
)

// connection is one live viewer socket. Writes are serialized because the
// hub and the reader loop can both push frames at the same time.
type connection struct {
	session    string
	bufrw      *bufio.ReadWriter
	writeMutex sync.Mutex
}

// Hub keeps the per-match subscriber lists and fans full snapshots out to
// them. It implements the manager's broadcast port.
type Hub struct {
	logger *slog.Logger

	mutex       sync.RWMutex
	subscribers map[string]map[*connection]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:      logger,
		subscribers: make(map[string]map[*connection]struct{}),
	}
}

// Subscribe - registers a viewer for a match.
func (that *Hub) Subscribe(matchID string, conn *connection) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	if that.subscribers[matchID] == nil {
		that.subscribers[matchID] = make(map[*connection]struct{})
	}
	that.subscribers[matchID][conn] = struct{}{}
}

// Unsubscribe - removes a viewer from one match.
func (that *Hub) Unsubscribe(matchID string, conn *connection) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	delete(that.subscribers[matchID], conn)
	if len(that.subscribers[matchID]) == 0 {
		delete(that.subscribers, matchID)
	}
}

// Drop - removes a viewer from every match, called on disconnect.
func (that *Hub) Drop(conn *connection) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	for matchID, conns := range that.subscribers {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(that.subscribers, matchID)
		}
	}
}

// BroadcastMatch - pushes the full match snapshot to every subscriber.
// Each message is self-contained, a viewer that missed any number of them
// recovers from the next one (or from a single poll).
func (that *Hub) BroadcastMatch(event string, match *entity.Match) {
	log := that.logger.With("component", "hub", "matchID", match.ID)

	that.mutex.RLock()
	conns := make([]*connection, 0, len(that.subscribers[match.ID]))
	for conn := range that.subscribers[match.ID] {
		conns = append(conns, conn)
	}
	that.mutex.RUnlock()

	payload := Payload{
		Match: match.PublicView(),
	}

	for _, conn := range conns {
		if err := conn.sendMessage(event, payload); err != nil {
			log.Error("failed to push match update", "error", err)
			that.Drop(conn)
		}
	}
}
