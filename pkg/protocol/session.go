package protocol

import (
	"context"
	"sync"
	"time"

	"github.com/nexosec/gosecs/pkg/secserr"
	"github.com/nexosec/gosecs/pkg/systembytes"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// DumpFlags tags a record passed to a DumpSink, per SPEC_FULL.md §4.12.
type DumpFlags uint8

const (
	DumpFlagData DumpFlags = 1 << iota
	DumpFlagControl
	DumpFlagTX
	DumpFlagRX
)

// DumpSink receives a copy of every message before normal processing, for
// diagnostics. id is a compact correlation tag distinct from SystemBytes (so
// logs stay correlated across a SystemBytes reuse after a reconnect).
type DumpSink func(flags DumpFlags, id string, msg Message)

// Config holds protocol-session policy, spec.md §4.5/§6.6.
type Config struct {
	T3                 time.Duration
	PollInterval       time.Duration
	MaxPendingRequests int // 0 = unbounded
	DumpSink           DumpSink
	DumpFlags          DumpFlags
}

// DefaultConfig returns the spec's default T3 with no pending-request cap.
func DefaultConfig() Config {
	return Config{T3: 45 * time.Second}
}

type pendingEntry struct {
	expectedStream   byte
	expectedFunction byte
	resultCh         chan Message
}

// Session layers request/response correlation and handler dispatch over a
// Transport, independent of whether that transport is HSMS or SECS-I.
type Session struct {
	transport Transport
	alloc     *systembytes.Allocator
	router    *Router
	cfg       Config
	log       *logrus.Entry

	mu      sync.Mutex
	pending map[uint32]*pendingEntry

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSession constructs a Session over transport.
func NewSession(transport Transport, cfg Config, log *logrus.Entry) *Session {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.T3 <= 0 {
		cfg.T3 = 45 * time.Second
	}
	return &Session{
		transport: transport,
		alloc:     systembytes.New(),
		router:    NewRouter(),
		cfg:       cfg,
		log:       log.WithField("component", "protocol.session"),
		pending:   make(map[uint32]*pendingEntry),
		stopCh:    make(chan struct{}),
	}
}

// Router returns the handler table for inbound primaries.
func (s *Session) Router() *Router {
	return s.router
}

// AsyncSend transmits a primary message with W=0; function must be odd and
// not 0xFF.
func (s *Session) AsyncSend(stream, function byte, body []byte) error {
	if err := validatePrimaryFunction(function); err != nil {
		return err
	}
	sb, err := s.alloc.Allocate()
	if err != nil {
		return err
	}
	defer s.alloc.Release(sb)

	msg := Message{Stream: stream, Function: function, SystemBytes: sb, Body: body}
	s.dump(DumpFlagData, msg, true)
	return s.transport.SendRaw(msg)
}

// AsyncRequest transmits a primary message with W=1 and blocks for the
// matching secondary (stream, function+1), timeout, ctx cancellation, or
// Stop. timeout <= 0 uses Config.T3.
func (s *Session) AsyncRequest(ctx context.Context, stream, function byte, body []byte, timeout time.Duration) (Message, error) {
	if err := validatePrimaryFunction(function); err != nil {
		return Message{}, err
	}
	if s.cfg.MaxPendingRequests > 0 && s.pendingCount() >= s.cfg.MaxPendingRequests {
		return Message{}, secserr.ErrResourceExhausted
	}
	if timeout <= 0 {
		timeout = s.cfg.T3
	}

	sb, err := s.alloc.Allocate()
	if err != nil {
		return Message{}, err
	}
	entry := &pendingEntry{expectedStream: stream, expectedFunction: function + 1, resultCh: make(chan Message, 1)}
	s.mu.Lock()
	s.pending[sb] = entry
	s.mu.Unlock()

	msg := Message{Stream: stream, Function: function, WaitBit: true, SystemBytes: sb, Body: body}
	s.dump(DumpFlagData, msg, true)
	if err := s.transport.SendRaw(msg); err != nil {
		s.removePending(sb)
		return Message{}, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case reply := <-entry.resultCh:
		return reply, nil
	case <-reqCtx.Done():
		s.removePending(sb)
		return Message{}, secserr.ErrTimeout
	case <-s.stopCh:
		s.removePending(sb)
		return Message{}, secserr.ErrCancelled
	}
}

// AsyncRun is the inbound dispatch loop: it reads messages until ctx is
// done, Stop is called, or the transport errors, completing pending
// requests or routing to the handler table.
func (s *Session) AsyncRun(ctx context.Context) error {
	for {
		msg, err := s.transport.ReceiveRaw(ctx)
		if err != nil {
			// Stop (not bare cancelAllPending) so outstanding AsyncRequest
			// callers wake via the <-s.stopCh case instead of hanging until
			// their own T3, matching the cancel-on-disconnect Stop() gives.
			s.Stop()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.dump(DumpFlagData, msg, false)

		if s.tryCompletePending(msg) {
			continue
		}
		s.dispatch(msg)

		select {
		case <-s.stopCh:
			s.cancelAllPending()
			return secserr.ErrCancelled
		default:
		}
	}
}

func (s *Session) tryCompletePending(msg Message) bool {
	s.mu.Lock()
	entry, ok := s.pending[msg.SystemBytes]
	if ok && (entry.expectedStream != msg.Stream || entry.expectedFunction != msg.Function) {
		ok = false
	}
	if ok {
		delete(s.pending, msg.SystemBytes)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.alloc.Release(msg.SystemBytes)
	entry.resultCh <- msg
	return true
}

func (s *Session) dispatch(msg Message) {
	handler, ok := s.router.Find(msg.Stream, msg.Function)
	if !ok {
		s.log.WithFields(logrus.Fields{"stream": msg.Stream, "function": msg.Function}).
			Debug("protocol: no handler for inbound message")
		return
	}

	result := handler(msg)
	if result.Err != nil {
		s.log.WithError(result.Err).Debug("protocol: handler returned error, no auto-reply")
		return
	}
	if !msg.WaitBit {
		return
	}

	reply := Message{Stream: msg.Stream, Function: msg.Function + 1, SystemBytes: msg.SystemBytes, Body: result.Body}
	s.dump(DumpFlagData, reply, true)
	if err := s.transport.SendRaw(reply); err != nil {
		s.log.WithError(err).Warn("protocol: auto-reply send failed")
	}
}

// Stop closes the session: the transport is stopped and every pending
// request completes with cancelled.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.transport.Stop()
		s.cancelAllPending()
	})
}

func (s *Session) cancelAllPending() {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[uint32]*pendingEntry)
	s.mu.Unlock()
	for sb := range pending {
		s.alloc.Release(sb)
	}
}

func (s *Session) removePending(sb uint32) {
	s.mu.Lock()
	delete(s.pending, sb)
	s.mu.Unlock()
	s.alloc.Release(sb)
}

func (s *Session) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Session) dump(kind DumpFlags, msg Message, tx bool) {
	if s.cfg.DumpSink == nil {
		return
	}
	flags := kind | s.cfg.DumpFlags
	if tx {
		flags |= DumpFlagTX
	} else {
		flags |= DumpFlagRX
	}
	s.cfg.DumpSink(flags, xid.New().String(), msg)
}

func validatePrimaryFunction(function byte) error {
	if function == 0xFF {
		return secserr.New(secserr.CategoryCore, secserr.CodeInvalidArgument, "function 0xFF is reserved")
	}
	if function%2 == 0 {
		return secserr.New(secserr.CategoryCore, secserr.CodeInvalidArgument, "primary messages require an odd function code")
	}
	return nil
}
