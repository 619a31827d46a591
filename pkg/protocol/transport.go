// Package protocol implements the transport-agnostic request/response layer
// (spec.md §4.5): SystemBytes correlation, pending-request tracking, and
// handler routing over either HSMS or SECS-I.
package protocol

import (
	"context"

	"github.com/nexosec/gosecs/pkg/hsms"
	"github.com/nexosec/gosecs/pkg/secs1"
	"github.com/nexosec/gosecs/pkg/secserr"
)

// Message is a transport-neutral data message: a stream/function pair, the
// wait bit, its correlation id, and an already SECS-II-encoded body.
type Message struct {
	Stream      byte
	Function    byte
	WaitBit     bool
	SystemBytes uint32
	Body        []byte
}

// Transport is the capability set a Session needs from its underlying HSMS
// Session or SECS-I Machine: raw send/receive of data messages, with
// correlation and routing left entirely to Session.
type Transport interface {
	// SendRaw transmits msg as-is (no auto-allocation of SystemBytes).
	SendRaw(msg Message) error
	// ReceiveRaw blocks for the next inbound data message not otherwise
	// consumed by the transport's own control protocol.
	ReceiveRaw(ctx context.Context) (Message, error)
	Stop()
}

// hsmsTransport adapts an *hsms.Session to Transport.
type hsmsTransport struct {
	session *hsms.Session
}

// NewHSMSTransport wraps an established (selected) HSMS session.
func NewHSMSTransport(session *hsms.Session) Transport {
	return &hsmsTransport{session: session}
}

func (t *hsmsTransport) SendRaw(msg Message) error {
	if msg.WaitBit {
		return secserr.New(secserr.CategoryCore, secserr.CodeInvalidArgument, "SendRaw must not set the wait bit")
	}
	return t.session.SendReply(msg.Stream, msg.Function, msg.SystemBytes, msg.Body)
}

func (t *hsmsTransport) ReceiveRaw(ctx context.Context) (Message, error) {
	frame, err := t.session.ReceiveData(ctx)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Stream:      frame.StreamCode(),
		Function:    frame.FunctionCode(),
		WaitBit:     frame.WaitBit(),
		SystemBytes: frame.SystemBytes,
		Body:        frame.Body,
	}, nil
}

func (t *hsmsTransport) Stop() {
	t.session.Stop()
}

// secs1Transport adapts a *secs1.Machine to Transport. SECS-I carries no
// independent wait bit signal beyond the block header's W bit, which the
// caller supplies via the Header passed to Send; ReceiveRaw here only
// surfaces the decoded SECS-II body, stream and function are recovered by
// the caller from the body's own message framing convention (SECS-I does
// not carry stream/function in-band the way HSMS does at this layer, so the
// embedding application decodes them from the reassembled body alongside
// the SECS-II item).
type secs1Transport struct {
	machine *secs1.Machine
	header  secs1.Header // identity fields (DeviceID, SystemBytes populated per-send)
}

// NewSECS1Transport wraps a running secs1.Machine.
func NewSECS1Transport(machine *secs1.Machine, deviceID uint16) Transport {
	return &secs1Transport{machine: machine, header: secs1.Header{DeviceID: deviceID}}
}

func (t *secs1Transport) SendRaw(msg Message) error {
	h := t.header
	h.Stream = msg.Stream
	h.Function = msg.Function
	h.WBit = msg.WaitBit
	h.SystemBytes = msg.SystemBytes
	return t.machine.Send(context.Background(), h, msg.Body)
}

func (t *secs1Transport) ReceiveRaw(ctx context.Context) (Message, error) {
	select {
	case body, ok := <-t.machine.Inbox():
		if !ok {
			return Message{}, secserr.ErrCancelled
		}
		return Message{Body: body}, nil
	case <-ctx.Done():
		return Message{}, secserr.ErrTimeout
	}
}

func (t *secs1Transport) Stop() {}
