package hsms

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivePassiveSelectHandshake(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	cfg := DefaultConfig()
	cfg.SessionID = 1

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var active, passive *Session
	var activeErr, passiveErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); active, activeErr = ActiveOpen(ctx, clientConn, cfg, nil) }()
	go func() { defer wg.Done(); passive, passiveErr = PassiveOpen(ctx, serverConn, cfg, nil) }()
	wg.Wait()

	require.NoError(t, activeErr)
	require.NoError(t, passiveErr)
	assert.Equal(t, StateSelected, active.State())
	assert.Equal(t, StateSelected, passive.State())
}

func TestActiveOpenRejectedOnSessionIDMismatch(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	activeCfg := DefaultConfig()
	activeCfg.SessionID = 1
	passiveCfg := DefaultConfig()
	passiveCfg.SessionID = 2

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var activeErr, passiveErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, activeErr = ActiveOpen(ctx, clientConn, activeCfg, nil) }()
	go func() { defer wg.Done(); _, passiveErr = PassiveOpen(ctx, serverConn, passiveCfg, nil) }()
	wg.Wait()

	assert.Error(t, activeErr)
	assert.Error(t, passiveErr)
}

// TestE2RequestResponseCorrelation matches spec scenario E2: the reply to
// S1F13 W, sent with the request's SystemBytes, comes back as stream 1,
// function 14, no wait bit, carrying the echoed body.
func TestE2RequestResponseCorrelation(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	cfg := DefaultConfig()
	cfg.SessionID = 1

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var active, passive *Session
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); active, _ = ActiveOpen(ctx, clientConn, cfg, nil) }()
	go func() { defer wg.Done(); passive, _ = PassiveOpen(ctx, serverConn, cfg, nil) }()
	wg.Wait()
	require.NotNil(t, active)
	require.NotNil(t, passive)

	go active.Run(ctx)
	go passive.Run(ctx)

	go func() {
		frame := <-passive.Inbound()
		_ = passive.SendReply(frame.StreamCode(), frame.FunctionCode()+1, frame.SystemBytes, frame.Body)
	}()

	body := []byte{0x01, 0x02, 0x03}
	reply, err := active.RequestData(ctx, 1, 13, body)
	require.NoError(t, err)
	assert.Equal(t, byte(1), reply.StreamCode())
	assert.Equal(t, byte(14), reply.FunctionCode())
	assert.False(t, reply.WaitBit())
	assert.Equal(t, body, reply.Body)
}

func TestRequestDataTimesOutWhenUnanswered(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	cfg := DefaultConfig()
	cfg.SessionID = 1

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var active, passive *Session
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); active, _ = ActiveOpen(ctx, clientConn, cfg, nil) }()
	go func() { defer wg.Done(); passive, _ = PassiveOpen(ctx, serverConn, cfg, nil) }()
	wg.Wait()
	require.NotNil(t, active)
	require.NotNil(t, passive)

	go active.Run(ctx)
	go passive.Run(ctx)

	shortCtx, shortCancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer shortCancel()

	before := active.alloc.InUseCount()
	_, err := active.RequestData(shortCtx, 1, 1, nil)
	require.Error(t, err)
	assert.Equal(t, before, active.alloc.InUseCount())
}
