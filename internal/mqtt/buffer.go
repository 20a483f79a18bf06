package mqtt

import "log"

// bufferedMsg is a serialized message waiting for the broker.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineBuffer keeps the most recent messages published while the broker
// is unreachable. Once full, each new message evicts the oldest one.
// Callers synchronize.
type offlineBuffer struct {
	msgs    []bufferedMsg
	limit   int
	dropped int  // evictions since startup
	warned  bool // eviction logged since the last flush
}

func newOfflineBuffer(limit int) *offlineBuffer {
	if limit < 1 {
		limit = 1
	}
	return &offlineBuffer{msgs: make([]bufferedMsg, 0, limit), limit: limit}
}

func (b *offlineBuffer) add(msg bufferedMsg) {
	if len(b.msgs) == b.limit {
		copy(b.msgs, b.msgs[1:])
		b.msgs = b.msgs[:b.limit-1]
		b.dropped++
		if !b.warned {
			log.Printf("mqtt: offline buffer full (%d messages), evicting oldest", b.limit)
			b.warned = true
		}
	}
	b.msgs = append(b.msgs, msg)
}

// flush hands over everything buffered, oldest first.
func (b *offlineBuffer) flush() []bufferedMsg {
	if len(b.msgs) == 0 {
		return nil
	}
	out := b.msgs
	b.msgs = make([]bufferedMsg, 0, b.limit)
	b.warned = false
	return out
}

func (b *offlineBuffer) pending() int {
	return len(b.msgs)
}
