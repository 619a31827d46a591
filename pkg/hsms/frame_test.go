package hsms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameEncodeDecodeRoundtrip(t *testing.T) {
	f := DataFrame(1, 1, 13, true, 0xDEADBEEF, []byte{0x01, 0x02, 0x03})

	encoded, err := f.Encode(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(10+3), uint32(encoded[0])<<24|uint32(encoded[1])<<16|uint32(encoded[2])<<8|uint32(encoded[3]))

	decoded, err := DecodePayload(encoded[4:])
	require.NoError(t, err)
	assert.Equal(t, f.SessionID, decoded.SessionID)
	assert.Equal(t, byte(1), decoded.StreamCode())
	assert.Equal(t, byte(13), decoded.FunctionCode())
	assert.True(t, decoded.WaitBit())
	assert.Equal(t, uint32(0xDEADBEEF), decoded.SystemBytes)
	assert.Equal(t, f.Body, decoded.Body)
}

func TestFrameEncodeRejectsNonZeroPType(t *testing.T) {
	f := Frame{PType: 1}
	_, err := f.Encode(0)
	require.Error(t, err)
}

func TestFrameEncodeRejectsOversizedBody(t *testing.T) {
	f := Frame{Body: make([]byte, 100)}
	_, err := f.Encode(50)
	require.Error(t, err)
}

func TestDecodePayloadRejectsShortHeader(t *testing.T) {
	_, err := DecodePayload([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestRejectReqEchoesSTypeByDefault(t *testing.T) {
	req := SelectReq(1, 42)
	rej := RejectReq(req, RejectReasonTransactionNotOpen)
	assert.Equal(t, STypeSelectReq, rej.HeaderByte2)
	assert.Equal(t, RejectReasonTransactionNotOpen, rej.HeaderByte3)
	assert.Equal(t, STypeRejectReq, rej.SType)
	assert.Equal(t, req.Header(), rej.Body)
}

func TestRejectReqEchoesPTypeWhenPTypeNotSupported(t *testing.T) {
	req := SelectReq(1, 42)
	rej := RejectReq(req, RejectReasonPTypeNotSupported)
	assert.Equal(t, req.PType, rej.HeaderByte2)
	assert.Equal(t, req.Header(), rej.Body)
}

func TestLinktestReqUsesWildcardSessionID(t *testing.T) {
	req := LinktestReq(7)
	assert.Equal(t, uint16(0xFFFF), req.SessionID)
	rsp := LinktestRsp(req)
	assert.Equal(t, uint32(7), rsp.SystemBytes)
}
