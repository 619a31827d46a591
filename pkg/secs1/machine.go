package secs1

import (
	"context"
	"time"

	"github.com/nexosec/gosecs/pkg/secserr"
	"github.com/sirupsen/logrus"
)

// Role distinguishes the two SECS-I contention tie-break priorities: on
// simultaneous ENQ the equipment side yields to the host side (spec Open
// Question, pinned this way).
type Role int

const (
	RoleEquipment Role = iota
	RoleHost
)

// Link is the byte-level serial transport the state machine drives. Reads
// honor ctx's deadline; a deadline exceeded surfaces as a core timeout
// error.
type Link interface {
	WriteByte(b byte) error
	Write(data []byte) error
	ReadByte(ctx context.Context) (byte, error)
}

// Config holds the SECS-I timers and retry policy, spec.md §4.2/§6.6.
type Config struct {
	T1, T2, T3, T4   time.Duration
	RetryLimit       int
	ExpectedDeviceID uint16
	Role             Role
}

// DefaultConfig returns the spec's default timer values.
func DefaultConfig() Config {
	return Config{
		T1:         500 * time.Millisecond,
		T2:         10 * time.Second,
		T3:         45 * time.Second,
		T4:         45 * time.Second,
		RetryLimit: 3,
		Role:       RoleEquipment,
	}
}

type state int

const (
	stateIdle state = iota
	stateWaitEOT
	stateWaitBlock
	stateWaitCheck
)

// sendRequest is a want_send event: the caller asks the machine to transmit
// body (a fully SECS-II-encoded message) using the given identity fields.
// The SystemBytes value travels with each send in header, chosen by the
// caller; the machine keeps no SystemBytes state and has no separate reuse
// flag.
type sendRequest struct {
	header Header
	body   []byte
	result chan error
}

// Machine drives one SECS-I Link through the half-duplex handshake state
// machine. One Machine owns one Link; Run should be started in its own
// goroutine.
type Machine struct {
	link   Link
	cfg    Config
	log    *logrus.Entry
	sendCh chan sendRequest
	inbox  chan []byte // fully reassembled message bodies delivered upstream
}

// New returns a Machine for link with the given configuration.
func New(link Link, cfg Config, log *logrus.Entry) *Machine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Machine{
		link:   link,
		cfg:    cfg,
		log:    log.WithField("component", "secs1"),
		sendCh: make(chan sendRequest),
		inbox:  make(chan []byte, 8),
	}
}

// Inbox returns the channel on which fully reassembled inbound message
// bodies are delivered.
func (m *Machine) Inbox() <-chan []byte {
	return m.inbox
}

// Send transmits body (pre-encoded SECS-II bytes) as one or more blocks
// under header's identity, blocking until the exchange completes or ctx is
// done.
func (m *Machine) Send(ctx context.Context, header Header, body []byte) error {
	req := sendRequest{header: header, body: body, result: make(chan error, 1)}
	select {
	case m.sendCh <- req:
	case <-ctx.Done():
		return secserr.ErrCancelled
	}
	select {
	case err := <-req.result:
		return err
	case <-ctx.Done():
		return secserr.ErrCancelled
	}
}

// Run drives the state machine until ctx is cancelled. One byte is read off
// the link at a time; a pending sendRequest is only picked up while idle, so
// the half-duplex role (sender xor receiver) is never ambiguous.
func (m *Machine) Run(ctx context.Context) error {
	for {
		if err := m.runIdle(ctx); err != nil {
			if err == context.Canceled || err == ctx.Err() {
				return nil
			}
			m.log.WithError(err).Warn("secs1: cycle ended with error")
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// runIdle waits, from the idle state, for either a local send request or an
// inbound ENQ, then drives one full exchange to completion.
func (m *Machine) runIdle(ctx context.Context) error {
	readCtx, cancelRead := context.WithCancel(ctx)
	byteCh := make(chan byteOrErr, 1)
	go func() { byteCh <- readOne(readCtx, m.link) }()

	select {
	case req := <-m.sendCh:
		// Cancel and drain the speculative read before taking over the
		// link ourselves, so it cannot race m.send's own reads for the
		// next incoming byte.
		cancelRead()
		<-byteCh
		err := m.send(ctx, req.header, req.body)
		req.result <- err
		return err

	case be := <-byteCh:
		if be.err != nil {
			return be.err
		}
		if be.b == ENQ {
			return m.receive(ctx)
		}
		m.log.WithField("byte", be.b).Debug("secs1: spurious byte in idle")
		return nil

	case <-ctx.Done():
		cancelRead()
		return ctx.Err()
	}
}

type byteOrErr struct {
	b   byte
	err error
}

func readOne(ctx context.Context, link Link) byteOrErr {
	b, err := link.ReadByte(ctx)
	return byteOrErr{b, err}
}

// send drives the sender side: ENQ, wait EOT, transmit blocks one at a time
// waiting for ACK/NAK between each.
func (m *Machine) send(ctx context.Context, header Header, body []byte) error {
	blocks := Segment(header, body)

	for attempt := 0; ; attempt++ {
		if err := m.link.WriteByte(ENQ); err != nil {
			return err
		}
		waitCtx, cancel := context.WithTimeout(ctx, m.cfg.T2)
		b, err := m.link.ReadByte(waitCtx)
		cancel()
		if err != nil {
			if attempt >= m.cfg.RetryLimit {
				return secserr.ErrTimeout
			}
			continue
		}
		if b == EOT {
			break
		}
		if b == ENQ && m.cfg.Role == RoleEquipment {
			// contention: equipment yields, becomes receiver.
			return m.receive(ctx)
		}
		// host wins contention, or spurious byte: retry ENQ.
		if attempt >= m.cfg.RetryLimit {
			return secserr.New(secserr.CategorySECS1, secserr.CodeProtocolError, "unexpected byte waiting for EOT")
		}
	}

	for _, blk := range blocks {
		if err := m.sendBlockAwaitAck(ctx, blk); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) sendBlockAwaitAck(ctx context.Context, blk []byte) error {
	for attempt := 0; ; attempt++ {
		if err := m.link.Write(blk); err != nil {
			return err
		}
		waitCtx, cancel := context.WithTimeout(ctx, m.cfg.T2)
		b, err := m.link.ReadByte(waitCtx)
		cancel()
		if err != nil {
			if attempt >= m.cfg.RetryLimit {
				return secserr.ErrTimeout
			}
			continue
		}
		switch b {
		case ACK:
			return nil
		case NAK:
			if attempt >= m.cfg.RetryLimit {
				return secserr.New(secserr.CategorySECS1, secserr.CodeNakExhausted, "peer NAKed past retry limit")
			}
			continue
		default:
			return secserr.New(secserr.CategorySECS1, secserr.CodeProtocolError, "unexpected byte awaiting ACK/NAK")
		}
	}
}

// receive drives the receiver side after an inbound ENQ: send EOT, read
// blocks (honoring T1 between characters and T4 between blocks), ACK/NAK
// each, reassemble, and deliver the completed body to Inbox.
func (m *Machine) receive(ctx context.Context) error {
	if err := m.link.WriteByte(EOT); err != nil {
		return err
	}

	reasm := NewReassembler()
	first := true
	nakCount := 0
	for {
		timeout := m.cfg.T2
		if !first {
			timeout = m.cfg.T4
		}
		blockCtx, cancel := context.WithTimeout(ctx, timeout)
		raw, err := m.readBlock(blockCtx)
		cancel()
		if err != nil {
			return err
		}
		first = false

		blk, perr := ParseBlock(raw)
		if perr != nil {
			code, _ := secserr.CodeOf(perr)
			if code == secserr.CodeChecksumError {
				if nakCount >= m.cfg.RetryLimit {
					return secserr.New(secserr.CategorySECS1, secserr.CodeChecksumError, "checksum failed past retry limit")
				}
				nakCount++
				if werr := m.link.WriteByte(NAK); werr != nil {
					return werr
				}
				continue
			}
			return perr
		}
		nakCount = 0

		complete, aerr := reasm.Add(blk)
		if aerr != nil {
			return aerr
		}
		if err := m.link.WriteByte(ACK); err != nil {
			return err
		}
		if complete {
			body := reasm.Body()
			select {
			case m.inbox <- body:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}
	}
}

// readBlock reads the length byte, then L+2 more bytes, honoring T1 between
// each character.
func (m *Machine) readBlock(ctx context.Context) ([]byte, error) {
	lenCtx, cancel := context.WithTimeout(ctx, m.cfg.T2)
	l, err := m.link.ReadByte(lenCtx)
	cancel()
	if err != nil {
		return nil, err
	}
	if int(l) < minBlockLength || int(l) > maxBlockLength {
		return nil, secserr.Newf(secserr.CategorySECS1, secserr.CodeInvalidBlock, "length byte %d out of range", l)
	}

	remaining := int(l) + 2
	out := make([]byte, 1+remaining)
	out[0] = l
	for i := 0; i < remaining; i++ {
		cCtx, cCancel := context.WithTimeout(ctx, m.cfg.T1)
		b, err := m.link.ReadByte(cCtx)
		cCancel()
		if err != nil {
			return nil, secserr.ErrTimeout
		}
		out[1+i] = b
	}
	return out, nil
}
