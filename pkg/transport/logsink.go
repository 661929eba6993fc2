package transport

import (
	"github.com/dustan1/kademlia/pkg/log"
	"github.com/dustan1/kademlia/pkg/routing"
)

// LogSink is a Sink that logs every peer lifecycle event instead of
// opening or closing a real connection. cmd/kadroutectl uses this to
// narrate a replayed observation file.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink builds a LogSink writing through logger's "transport"
// module.
func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger.Module("transport")}
}

// PeerAdmitted logs a peer entering the live set or near set.
func (s *LogSink) PeerAdmitted(node routing.Node) {
	s.logger.Peer(node).Info("peer admitted")
}

// PeerEvicted logs a peer leaving the live set or near set.
func (s *LogSink) PeerEvicted(node routing.Node) {
	s.logger.Peer(node).Info("peer evicted")
}

// PeerUpdated logs a refreshed timestamp for an already-known peer.
func (s *LogSink) PeerUpdated(node routing.Node) {
	s.logger.Peer(node).Debug("peer updated")
}
