// Package secs1 implements the SECS-I (SEMI E4) half-duplex serial
// transport: block framing, the ENQ/EOT/ACK/NAK handshake state machine,
// multi-block segmentation and reassembly.
package secs1

import (
	"github.com/nexosec/gosecs/pkg/secserr"
)

// Handshake bytes, SEMI E4 §9.
const (
	ENQ byte = 0x05
	EOT byte = 0x04
	ACK byte = 0x06
	NAK byte = 0x15
)

const (
	minBlockLength = 10
	maxBlockLength = 254
	maxTextBytes   = maxBlockLength - minBlockLength
)

// Header is the 10-byte SECS-I block header.
type Header struct {
	RBit        bool // direction: host<->equipment
	DeviceID    uint16
	WBit        bool
	Stream      byte
	Function    byte
	EBit        bool
	BlockNum    uint16
	SystemBytes uint32
}

func (h Header) encode() [10]byte {
	var b [10]byte
	devHi := byte(h.DeviceID >> 8 & 0x7F)
	if h.RBit {
		devHi |= 0x80
	}
	b[0] = devHi
	b[1] = byte(h.DeviceID)

	sByte := h.Stream & 0x7F
	if h.WBit {
		sByte |= 0x80
	}
	b[2] = sByte
	b[3] = h.Function

	blkHi := byte(h.BlockNum >> 8 & 0x7F)
	if h.EBit {
		blkHi |= 0x80
	}
	b[4] = blkHi
	b[5] = byte(h.BlockNum)

	b[6] = byte(h.SystemBytes >> 24)
	b[7] = byte(h.SystemBytes >> 16)
	b[8] = byte(h.SystemBytes >> 8)
	b[9] = byte(h.SystemBytes)
	return b
}

func decodeHeader(b []byte) Header {
	_ = b[9]
	return Header{
		RBit:        b[0]&0x80 != 0,
		DeviceID:    uint16(b[0]&0x7F)<<8 | uint16(b[1]),
		WBit:        b[2]&0x80 != 0,
		Stream:      b[2] & 0x7F,
		Function:    b[3],
		EBit:        b[4]&0x80 != 0,
		BlockNum:    uint16(b[4]&0x7F)<<8 | uint16(b[5]),
		SystemBytes: uint32(b[6])<<24 | uint32(b[7])<<16 | uint32(b[8])<<8 | uint32(b[9]),
	}
}

// EncodeBlock assembles the wire bytes for a single block: L, header, text,
// checksum. text must be at most 244 bytes.
func EncodeBlock(h Header, text []byte) ([]byte, error) {
	if len(text) > maxTextBytes {
		return nil, secserr.Newf(secserr.CategorySECS1, secserr.CodeInvalidBlock,
			"text length %d exceeds %d bytes", len(text), maxTextBytes)
	}
	l := minBlockLength + len(text)
	out := make([]byte, 1+l+2)
	out[0] = byte(l)
	hdr := h.encode()
	copy(out[1:11], hdr[:])
	copy(out[11:11+len(text)], text)

	sum := checksum(out[1 : 1+l])
	out[1+l] = byte(sum >> 8)
	out[1+l+1] = byte(sum)
	return out, nil
}

func checksum(region []byte) uint16 {
	var sum uint32
	for _, b := range region {
		sum += uint32(b)
	}
	return uint16(sum & 0xFFFF)
}

// DecodedBlock is a successfully parsed, checksum-verified block.
type DecodedBlock struct {
	Header Header
	Text   []byte
}

// ParseBlock validates and decodes a complete block (length byte through
// checksum, as returned by reading L+3 bytes off the wire). L itself (raw[0])
// must be in [10,254].
func ParseBlock(raw []byte) (DecodedBlock, error) {
	if len(raw) < 1 {
		return DecodedBlock{}, secserr.New(secserr.CategorySECS1, secserr.CodeInvalidBlock, "empty block")
	}
	l := int(raw[0])
	if l < minBlockLength || l > maxBlockLength {
		return DecodedBlock{}, secserr.Newf(secserr.CategorySECS1, secserr.CodeInvalidBlock,
			"length byte %d out of range [10,254]", l)
	}
	if len(raw) != 1+l+2 {
		return DecodedBlock{}, secserr.New(secserr.CategorySECS1, secserr.CodeInvalidBlock, "short block read")
	}

	region := raw[1 : 1+l]
	want := checksum(region)
	got := uint16(raw[1+l])<<8 | uint16(raw[1+l+1])
	if want != got {
		return DecodedBlock{}, secserr.New(secserr.CategorySECS1, secserr.CodeChecksumError, "checksum mismatch")
	}

	header := decodeHeader(region[:10])
	text := make([]byte, l-minBlockLength)
	copy(text, region[10:])
	return DecodedBlock{Header: header, Text: text}, nil
}

// Segment splits body into one or more blocks sharing header's identity
// fields (DeviceID, WBit, Stream, Function, SystemBytes), each carrying up
// to 244 bytes of text, with contiguous BlockNum starting at 1 (wrapping
// past 32767) and EBit set only on the last block.
func Segment(h Header, body []byte) [][]byte {
	if len(body) == 0 {
		h.BlockNum = 1
		h.EBit = true
		blk, _ := EncodeBlock(h, nil)
		return [][]byte{blk}
	}

	var blocks [][]byte
	blockNum := uint16(1)
	for off := 0; off < len(body); off += maxTextBytes {
		end := off + maxTextBytes
		if end > len(body) {
			end = len(body)
		}
		hh := h
		hh.BlockNum = blockNum
		hh.EBit = end == len(body)
		blk, _ := EncodeBlock(hh, body[off:end])
		blocks = append(blocks, blk)

		if blockNum == 32767 {
			blockNum = 1
		} else {
			blockNum++
		}
	}
	return blocks
}

// Reassembler concatenates block text bodies in BlockNum order, aborting on
// any gap or duplicate.
type Reassembler struct {
	expected uint16
	body     []byte
	started  bool
}

// NewReassembler returns a Reassembler ready to accept BlockNum starting
// at 1.
func NewReassembler() *Reassembler {
	return &Reassembler{expected: 1}
}

// Add appends one decoded block's text. It returns (complete, error); once
// complete is true (the block's EBit was set) the assembled body is
// retrieved via Body().
func (r *Reassembler) Add(blk DecodedBlock) (bool, error) {
	if blk.Header.BlockNum != r.expected {
		return false, secserr.Newf(secserr.CategorySECS1, secserr.CodeReassemblyError,
			"expected block %d, got %d", r.expected, blk.Header.BlockNum)
	}
	r.started = true
	r.body = append(r.body, blk.Text...)
	if r.expected == 32767 {
		r.expected = 1
	} else {
		r.expected++
	}
	return blk.Header.EBit, nil
}

// Body returns the assembled payload once Add has reported completion.
func (r *Reassembler) Body() []byte {
	return r.body
}
