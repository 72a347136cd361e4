package evsink

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/bernerdschaefer/eventsource"

	"github.com/evtrc/evtrc"
)

// StreamServer fans trace chunks out to HTTP clients as server-sent
// events, for watching a trace build up live. Its Write method has the
// output-callback shape; slow subscribers drop chunks rather than block
// the flushing goroutine.
type StreamServer struct {
	mtx  sync.Mutex
	subs map[chan []byte]struct{}
	buf  int
}

// NewStreamServer returns a stream server whose subscribers each buffer
// up to buf chunks; buf values below 1 become 1.
func NewStreamServer(buf int) *StreamServer {
	if buf < 1 {
		buf = 1
	}
	return &StreamServer{
		subs: map[chan []byte]struct{}{},
		buf:  buf,
	}
}

// Write broadcasts one chunk to every subscriber. The chunk is copied
// once: the log reuses its serialization buffer across batches.
func (s *StreamServer) Write(json []byte) {
	chunk := append([]byte(nil), json...)

	s.mtx.Lock()
	defer s.mtx.Unlock()

	for ch := range s.subs {
		select {
		case ch <- chunk:
		default: // subscriber too slow, drop
		}
	}
}

func (s *StreamServer) subscribe() chan []byte {
	ch := make(chan []byte, s.buf)

	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.subs[ch] = struct{}{}
	return ch
}

func (s *StreamServer) unsubscribe(ch chan []byte) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	delete(s.subs, ch)
}

// ServeHTTP serves the chunk stream as text/event-stream. Each SSE event
// carries one chunk of serialized trace events, typed "chunk", with a
// per-connection sequence number as the event id.
func (s *StreamServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET is supported", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	ch := s.subscribe()
	defer s.unsubscribe(ch)

	eventsource.Handler(func(lastID string, encoder *eventsource.Encoder, stop <-chan bool) {
		var seq uint64
		for {
			select {
			case chunk := <-ch:
				seq++
				if err := encoder.Encode(eventsource.Event{
					Type: "chunk",
					ID:   strconv.FormatUint(seq, 10),
					Data: chunk,
				}); err != nil {
					return
				}

			case <-ctx.Done():
				return

			case <-stop:
				return
			}
		}
	}).ServeHTTP(w, r)
}

//
//
//

// Tee returns an output callback forwarding each chunk to every given
// callback, in order.
func Tee(callbacks ...evtrc.OutputCallback) evtrc.OutputCallback {
	return func(json []byte) {
		for _, cb := range callbacks {
			cb(json)
		}
	}
}
