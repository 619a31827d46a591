package hsms

import (
	"encoding/binary"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nexosec/gosecs/pkg/secserr"
)

// DefaultT8 is the default inter-character timeout applied within a single
// frame read (spec.md §4.3).
const DefaultT8 = 5 * time.Second

type writeItem struct {
	data []byte
	done chan error
}

// Connection wraps a net.Conn with HSMS frame-level read/write semantics: a
// T8 inter-character timeout on reads, and writes serialized through a
// single writer goroutine that always drains the control queue before
// servicing the data queue.
type Connection struct {
	conn       net.Conn
	t8         time.Duration
	maxPayload int

	controlCh chan writeItem
	dataCh    chan writeItem
	closeCh   chan struct{}
	closeOnce sync.Once

	dataDisabled   int32
	dataDisableErr atomic.Value
}

// NewConnection wraps conn. t8 <= 0 uses DefaultT8; maxPayload <= 0 uses
// DefaultMaxPayloadBytes.
func NewConnection(conn net.Conn, t8 time.Duration, maxPayload int) *Connection {
	if t8 <= 0 {
		t8 = DefaultT8
	}
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayloadBytes
	}
	c := &Connection{
		conn:       conn,
		t8:         t8,
		maxPayload: maxPayload,
		controlCh:  make(chan writeItem, 16),
		dataCh:     make(chan writeItem, 64),
		closeCh:    make(chan struct{}),
	}
	go c.writerLoop()
	return c
}

func (c *Connection) writerLoop() {
	for {
		// Drain control to empty before considering a data write.
		select {
		case item := <-c.controlCh:
			item.done <- c.writeNow(item.data)
			continue
		default:
		}

		select {
		case item := <-c.controlCh:
			item.done <- c.writeNow(item.data)
		case item := <-c.dataCh:
			if atomic.LoadInt32(&c.dataDisabled) == 1 {
				item.done <- c.currentDataDisableErr()
				continue
			}
			item.done <- c.writeNow(item.data)
		case <-c.closeCh:
			return
		}
	}
}

func (c *Connection) writeNow(b []byte) error {
	_, err := c.conn.Write(b)
	return err
}

// SendControl encodes and sends a control frame, bypassing the data queue.
func (c *Connection) SendControl(f Frame) error {
	return c.enqueue(c.controlCh, f)
}

// SendData encodes and sends a data frame. Returns the reason error set by
// DisableDataWrites if data writes are currently disabled.
func (c *Connection) SendData(f Frame) error {
	if atomic.LoadInt32(&c.dataDisabled) == 1 {
		return c.currentDataDisableErr()
	}
	return c.enqueue(c.dataCh, f)
}

func (c *Connection) enqueue(ch chan writeItem, f Frame) error {
	b, err := f.Encode(c.maxPayload)
	if err != nil {
		return err
	}
	item := writeItem{data: b, done: make(chan error, 1)}
	select {
	case ch <- item:
	case <-c.closeCh:
		return secserr.ErrCancelled
	}
	select {
	case err := <-item.done:
		return err
	case <-c.closeCh:
		return secserr.ErrCancelled
	}
}

// DisableDataWrites fails any already-queued and future data writes with
// reason, until EnableDataWrites is called. Used when transitioning out of
// selected.
func (c *Connection) DisableDataWrites(reason error) {
	c.dataDisableErr.Store(reason)
	atomic.StoreInt32(&c.dataDisabled, 1)
	for {
		select {
		case item := <-c.dataCh:
			item.done <- reason
		default:
			return
		}
	}
}

// EnableDataWrites resumes accepting data writes.
func (c *Connection) EnableDataWrites() {
	atomic.StoreInt32(&c.dataDisabled, 0)
}

func (c *Connection) currentDataDisableErr() error {
	if v := c.dataDisableErr.Load(); v != nil {
		return v.(error)
	}
	return secserr.New(secserr.CategoryHSMS, secserr.CodeNotSelected, "data writes disabled")
}

// ReadFrame reads one complete frame, applying the T8 inter-character
// timeout across the whole read. A timeout or any other read error should be
// treated by the caller as fatal to the connection.
func (c *Connection) ReadFrame() (Frame, error) {
	lenBuf := make([]byte, 4)
	if err := c.readFull(lenBuf); err != nil {
		return Frame{}, err
	}
	length := binary.BigEndian.Uint32(lenBuf)
	if length < headerSize || int(length) > c.maxPayload {
		return Frame{}, secserr.Newf(secserr.CategoryCore, secserr.CodeInvalidArgument,
			"frame length %d out of range [%d,%d]", length, headerSize, c.maxPayload)
	}
	payload := make([]byte, length)
	if err := c.readFull(payload); err != nil {
		return Frame{}, err
	}
	return DecodePayload(payload)
}

func (c *Connection) readFull(buf []byte) error {
	total := 0
	for total < len(buf) {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.t8)); err != nil {
			return err
		}
		n, err := c.conn.Read(buf[total:])
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return secserr.ErrTimeout
			}
			return err
		}
		total += n
	}
	return nil
}

// Close shuts down the writer goroutine and the underlying connection.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() { close(c.closeCh) })
	return c.conn.Close()
}
