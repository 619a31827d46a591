package hsms

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/nexosec/gosecs/pkg/secserr"
	"github.com/nexosec/gosecs/pkg/systembytes"
	"github.com/sirupsen/logrus"
)

// State is the HSMS connection state machine's current state.
type State int

const (
	StateNotConnected State = iota
	StateConnected
	StateSelected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateNotConnected:
		return "not_connected"
	case StateConnected:
		return "connected"
	case StateSelected:
		return "selected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Config holds HSMS session timers and policy, spec.md §4.4/§6.6.
type Config struct {
	SessionID uint16

	T3, T5, T6, T7, T8              time.Duration
	LinktestInterval                time.Duration
	LinktestMaxConsecutiveFailures  int
	AutoReconnect                   bool
	PassiveAcceptSelect             bool
	MaxPayloadBytes                 int
}

// DefaultConfig returns the spec's default timers, with linktest disabled
// (interval 0) by default.
func DefaultConfig() Config {
	return Config{
		T3:                             45 * time.Second,
		T5:                             10 * time.Second,
		T6:                             5 * time.Second,
		T7:                             10 * time.Second,
		T8:                             DefaultT8,
		LinktestInterval:               0,
		LinktestMaxConsecutiveFailures: 3,
		PassiveAcceptSelect:            true,
		MaxPayloadBytes:                DefaultMaxPayloadBytes,
	}
}

type pendingEntry struct {
	expectedStream   byte
	expectedFunction byte
	result           chan Frame
}

// Session drives one HSMS connection's lifecycle: NOT_CONNECTED through
// SELECTED to a terminal DISCONNECTED. A new connection (e.g. after
// auto-reconnect backoff) is a new Session instance.
type Session struct {
	cfg   Config
	conn  *Connection
	alloc *systembytes.Allocator
	log   *logrus.Entry

	mu      sync.Mutex
	state   State
	pending map[uint32]*pendingEntry

	selectedCh chan struct{}
	inbound    chan Frame

	linktestFailures int

	stopCh   chan struct{}
	stopOnce sync.Once
}

func newSession(conn *Connection, cfg Config, log *logrus.Entry) *Session {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Session{
		cfg:        cfg,
		conn:       conn,
		alloc:      systembytes.New(),
		log:        log.WithField("component", "hsms.session"),
		state:      StateConnected,
		pending:    make(map[uint32]*pendingEntry),
		selectedCh: make(chan struct{}),
		inbound:    make(chan Frame, 16),
		stopCh:     make(chan struct{}),
	}
}

// ActiveOpen connects, sends Select.req, and waits for Select.rsp within T6.
func ActiveOpen(ctx context.Context, conn net.Conn, cfg Config, log *logrus.Entry) (*Session, error) {
	s := newSession(NewConnection(conn, cfg.T8, cfg.MaxPayloadBytes), cfg, log)

	sb, err := s.alloc.Allocate()
	if err != nil {
		s.conn.Close()
		return nil, err
	}
	req := SelectReq(cfg.SessionID, sb)
	if err := s.conn.SendControl(req); err != nil {
		s.conn.Close()
		return nil, err
	}

	readCtx, cancel := context.WithTimeout(ctx, cfg.T6)
	defer cancel()
	rsp, err := s.readControlFrame(readCtx)
	s.alloc.Release(sb)
	if err != nil {
		s.conn.Close()
		return nil, err
	}
	if rsp.SType != STypeSelectRsp || rsp.SystemBytes != sb {
		s.conn.Close()
		return nil, secserr.New(secserr.CategoryHSMS, secserr.CodeSelectFailed, "unexpected response to select.req")
	}
	if rsp.HeaderByte3 != 0 {
		s.conn.Close()
		return nil, secserr.Newf(secserr.CategoryCore, secserr.CodeInvalidArgument, "select rejected, status=%d", rsp.HeaderByte3)
	}

	s.setState(StateSelected)
	return s, nil
}

// PassiveOpen accepts an established connection and waits up to T7 for an
// inbound Select.req.
func PassiveOpen(ctx context.Context, conn net.Conn, cfg Config, log *logrus.Entry) (*Session, error) {
	s := newSession(NewConnection(conn, cfg.T8, cfg.MaxPayloadBytes), cfg, log)

	readCtx, cancel := context.WithTimeout(ctx, cfg.T7)
	defer cancel()
	req, err := s.readControlFrame(readCtx)
	if err != nil {
		s.conn.Close()
		return nil, err
	}
	if req.SType != STypeSelectReq {
		s.conn.Close()
		return nil, secserr.New(secserr.CategoryHSMS, secserr.CodeSelectFailed, "expected select.req")
	}

	if !cfg.PassiveAcceptSelect || req.SessionID != cfg.SessionID {
		_ = s.conn.SendControl(SelectRsp(req, 1))
		s.conn.Close()
		return nil, secserr.New(secserr.CategoryHSMS, secserr.CodeSelectFailed, "select.req rejected")
	}

	if err := s.conn.SendControl(SelectRsp(req, 0)); err != nil {
		s.conn.Close()
		return nil, err
	}
	s.setState(StateSelected)
	return s, nil
}

func (s *Session) readControlFrame(ctx context.Context) (Frame, error) {
	type result struct {
		f   Frame
		err error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := s.conn.ReadFrame()
		ch <- result{f, err}
	}()
	select {
	case r := <-ch:
		return r.f, r.err
	case <-ctx.Done():
		return Frame{}, secserr.ErrTimeout
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	if st == StateSelected {
		select {
		case <-s.selectedCh:
		default:
			close(s.selectedCh)
		}
	}
	s.mu.Unlock()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Selected returns a channel closed once the session reaches SELECTED.
func (s *Session) Selected() <-chan struct{} {
	return s.selectedCh
}

// Inbound returns the channel of unsolicited inbound data frames.
func (s *Session) Inbound() <-chan Frame {
	return s.inbound
}

// Run starts the reader loop and, if configured, the linktest loop; it
// blocks until the session is stopped, the link fails, or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if s.cfg.LinktestInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.linktestLoop(runCtx)
		}()
	}

	err := s.readerLoop(runCtx)
	cancel()
	wg.Wait()
	s.teardown()
	return err
}

func (s *Session) readerLoop(ctx context.Context) error {
	for {
		frame, err := s.readControlFrame(ctx)
		if err != nil {
			return err
		}
		if frame.IsControl() {
			s.handleControl(frame)
			if frame.SType == STypeSeparateReq || frame.SType == STypeDeselectReq {
				return secserr.New(secserr.CategoryHSMS, secserr.CodeNotSelected, "session ended by peer")
			}
			continue
		}
		s.handleData(frame)
	}
}

func (s *Session) handleControl(frame Frame) {
	switch frame.SType {
	case STypeSelectReq:
		_ = s.conn.SendControl(RejectReq(frame, RejectReasonTransactionNotOpen))
	case STypeDeselectReq:
		_ = s.conn.SendControl(DeselectRsp(frame, 0))
		s.conn.DisableDataWrites(secserr.New(secserr.CategoryHSMS, secserr.CodeNotSelected, "deselected"))
	case STypeLinktestReq:
		_ = s.conn.SendControl(LinktestRsp(frame))
	case STypeLinktestRsp:
		s.mu.Lock()
		s.linktestFailures = 0
		s.mu.Unlock()
		s.completePending(frame)
	case STypeSeparateReq:
		// no reply expected; caller tears down.
	case STypeRejectReq:
		// nothing to correlate without richer pending-control tracking.
	default:
		_ = s.conn.SendControl(RejectReq(frame, RejectReasonSTypeNotSupported))
	}
}

func (s *Session) handleData(frame Frame) {
	if s.completePending(frame) {
		return
	}
	select {
	case s.inbound <- frame:
	default:
		s.log.Warn("hsms: inbound queue full, dropping frame")
	}
}

func (s *Session) completePending(frame Frame) bool {
	s.mu.Lock()
	entry, ok := s.pending[frame.SystemBytes]
	if ok {
		if frame.SType != STypeDataMessage {
			// control completion (e.g. linktest.rsp): match on system bytes alone.
		} else if frame.StreamCode() != entry.expectedStream || frame.FunctionCode() != entry.expectedFunction {
			ok = false
		}
	}
	if ok {
		delete(s.pending, frame.SystemBytes)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	entry.result <- frame
	s.alloc.Release(frame.SystemBytes)
	return true
}

func (s *Session) linktestLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.LinktestInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.linktestOnce(ctx); err != nil {
				s.mu.Lock()
				s.linktestFailures++
				failures := s.linktestFailures
				s.mu.Unlock()
				s.log.WithError(err).WithField("failures", failures).Warn("hsms: linktest failed")
				if failures >= s.cfg.LinktestMaxConsecutiveFailures {
					s.conn.Close()
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) linktestOnce(ctx context.Context) error {
	sb, err := s.alloc.Allocate()
	if err != nil {
		return err
	}
	entry := &pendingEntry{result: make(chan Frame, 1)}
	s.mu.Lock()
	s.pending[sb] = entry
	s.mu.Unlock()

	if err := s.conn.SendControl(LinktestReq(sb)); err != nil {
		s.removePending(sb)
		return err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.cfg.T6)
	defer cancel()
	select {
	case <-entry.result:
		return nil
	case <-timeoutCtx.Done():
		s.removePending(sb)
		return secserr.ErrTimeout
	}
}

func (s *Session) removePending(sb uint32) {
	s.mu.Lock()
	delete(s.pending, sb)
	s.mu.Unlock()
	s.alloc.Release(sb)
}

// Send transmits a data frame with W=0, allocating a fresh SystemBytes.
func (s *Session) Send(stream, function byte, body []byte) error {
	sb, err := s.alloc.Allocate()
	if err != nil {
		return err
	}
	defer s.alloc.Release(sb)
	return s.conn.SendData(DataFrame(s.cfg.SessionID, stream, function, false, sb, body))
}

// SendReply transmits a secondary data frame (W=0) echoing systemBytes, as
// required to complete the originating primary's request/response
// correlation (spec.md invariant 4).
func (s *Session) SendReply(stream, function byte, systemBytes uint32, body []byte) error {
	return s.conn.SendData(DataFrame(s.cfg.SessionID, stream, function, false, systemBytes, body))
}

// RequestData sends a data frame with W=1 and waits for the matching
// secondary (stream, function+1) or ctx's deadline.
func (s *Session) RequestData(ctx context.Context, stream, function byte, body []byte) (Frame, error) {
	sb, err := s.alloc.Allocate()
	if err != nil {
		return Frame{}, err
	}
	entry := &pendingEntry{expectedStream: stream, expectedFunction: function + 1, result: make(chan Frame, 1)}
	s.mu.Lock()
	s.pending[sb] = entry
	s.mu.Unlock()

	if err := s.conn.SendData(DataFrame(s.cfg.SessionID, stream, function, true, sb, body)); err != nil {
		s.removePending(sb)
		return Frame{}, err
	}

	select {
	case frame := <-entry.result:
		return frame, nil
	case <-ctx.Done():
		s.removePending(sb)
		return Frame{}, secserr.ErrTimeout
	case <-s.stopCh:
		s.removePending(sb)
		return Frame{}, secserr.ErrCancelled
	}
}

// ReceiveData pops one unsolicited inbound data frame, blocking until one
// arrives, ctx is done, or the session stops.
func (s *Session) ReceiveData(ctx context.Context) (Frame, error) {
	select {
	case frame := <-s.inbound:
		return frame, nil
	case <-ctx.Done():
		return Frame{}, secserr.ErrTimeout
	case <-s.stopCh:
		return Frame{}, secserr.ErrCancelled
	}
}

// Stop closes the connection and cancels all pending requests with
// cancelled.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.conn.Close()
	})
}

func (s *Session) teardown() {
	s.setState(StateDisconnected)
	s.mu.Lock()
	s.pending = make(map[uint32]*pendingEntry)
	s.mu.Unlock()
	// Closing stopCh (via Stop) is what actually wakes any goroutine
	// blocked in RequestData/ReceiveData's select with ErrCancelled;
	// clearing the pending map above just prevents a stale completion
	// racing in after this point.
	s.Stop()
}
