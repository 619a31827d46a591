// Package secsii implements the SECS-II item codec: encoding ast.ItemNode
// values to their binary TLV representation and decoding them back under
// caller-supplied resource limits.
//
// Encoding is delegated to ast.ItemNode.ToBytes, which already implements the
// wire format (format byte, length bytes, payload) for every item type. This
// package's job is the harder direction: turning untrusted bytes back into
// an ast.ItemNode without over-allocating or blowing the stack on
// adversarial input.
package secsii

import (
	"encoding/binary"
	"math"

	"github.com/nexosec/gosecs/pkg/ast"
	"github.com/nexosec/gosecs/pkg/secserr"
)

// format codes, see ast.getHeaderBytes for the encoder side of the same table.
const (
	formatCodeList    = 0o00
	formatCodeBinary  = 0o10
	formatCodeBoolean = 0o11
	formatCodeASCII   = 0o20
	formatCodeI8      = 0o30
	formatCodeI1      = 0o31
	formatCodeI2      = 0o32
	formatCodeI4      = 0o34
	formatCodeF8      = 0o40
	formatCodeF4      = 0o44
	formatCodeU8      = 0o50
	formatCodeU1      = 0o51
	formatCodeU2      = 0o52
	formatCodeU4      = 0o54
)

// Limits bounds what a Decode call will accept, so a hostile or corrupt peer
// cannot force unbounded allocation or unbounded recursion.
type Limits struct {
	MaxDepth        int // nested list depth, root counts as depth 1
	MaxListItems    int // element count of a single list
	MaxPayloadBytes int // payload length of a single item
	MaxTotalItems   int // cumulative items across the whole decode
	MaxTotalBytes   int // cumulative bytes consumed across the whole decode
}

// DefaultLimits matches the spec's defaults: depth 64, 16 MiB-ish payloads.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:        64,
		MaxListItems:    1 << 20,
		MaxPayloadBytes: 1<<24 - 1,
		MaxTotalItems:   1 << 20,
		MaxTotalBytes:   1 << 24,
	}
}

func errInvalidHeader(msg string) error {
	return secserr.New(secserr.CategorySECSII, secserr.CodeInvalidHeader, msg)
}

func errTruncated() error {
	return secserr.New(secserr.CategorySECSII, secserr.CodeTruncated, "fewer bytes than declared length")
}

func errLimitExceeded(msg string) error {
	return secserr.New(secserr.CategorySECSII, secserr.CodeLimitExceeded, msg)
}

// Encode returns the binary representation of item. It is a thin wrapper
// over ast.ItemNode.ToBytes that reports the one failure ToBytes swallows
// (an item too large to represent, or one that still contains variables).
func Encode(item ast.ItemNode) ([]byte, error) {
	b := item.ToBytes()
	if len(b) == 0 && item.Size() != 0 {
		return nil, errInvalidHeader("item cannot be encoded: unfilled variables or size limit exceeded")
	}
	return b, nil
}

// frame describes one partially-decoded list: how many children remain and
// where to place the next decoded child.
type frame struct {
	values []interface{}
	pos    int
}

// DecodeOne decodes a single item (which may be an arbitrarily nested list)
// from the front of input, enforcing limits, and returns the item along with
// the number of bytes consumed.
//
// Decoding is iterative (an explicit stack of in-progress list frames) so
// that a deeply nested, hostile input cannot exhaust the Go call stack; only
// the configured MaxDepth is allowed before decoding aborts.
func DecodeOne(input []byte, limits Limits) (ast.ItemNode, int, error) {
	pos := 0
	totalItems := 0

	var stack []frame

	for {
		item, n, err := decodeHeaderAndMaybeList(input[pos:], limits, len(stack)+1)
		if err != nil {
			return ast.NewEmptyItemNode(), 0, err
		}
		pos += n
		totalItems++
		if totalItems > limits.MaxTotalItems {
			return ast.NewEmptyItemNode(), 0, errLimitExceeded("total item count exceeded")
		}
		if pos > limits.MaxTotalBytes {
			return ast.NewEmptyItemNode(), 0, errLimitExceeded("total bytes consumed exceeded")
		}

		if lf, ok := item.(*listFrameMarker); ok {
			if lf.count == 0 {
				item = ast.NewListNode()
			} else {
				stack = append(stack, frame{values: make([]interface{}, lf.count)})
				continue
			}
		}

		// item is now a fully decoded leaf (or an empty list); place it into
		// the parent frame, if any, and pop any frames that just completed.
		for {
			if len(stack) == 0 {
				return item.(ast.ItemNode), pos, nil
			}
			top := &stack[len(stack)-1]
			top.values[top.pos] = item
			top.pos++
			if top.pos < len(top.values) {
				break
			}
			// frame complete: materialize the list and pop
			completed := ast.NewListNode(top.values...)
			stack = stack[:len(stack)-1]
			item = completed
		}
	}
}

// listFrameMarker is an internal sentinel returned by decodeHeaderAndMaybeList
// when the decoded header describes a List; the caller pushes a frame rather
// than treating it as a leaf value.
type listFrameMarker struct {
	count int
}

// decodeHeaderAndMaybeList decodes exactly one item header (and, for
// non-list leaf types, its full payload). For List items it returns a
// *listFrameMarker instead of recursing, so the caller can drive the
// iteration with an explicit stack.
func decodeHeaderAndMaybeList(input []byte, limits Limits, depth int) (interface{}, int, error) {
	if len(input) < 1 {
		return nil, 0, errTruncated()
	}

	formatByte := input[0]
	lengthBytesCount := int(formatByte & 0b11)
	formatCode := formatByte >> 2

	if lengthBytesCount == 0 {
		return nil, 0, errInvalidHeader("length_bytes field is zero")
	}
	if lengthBytesCount > 3 {
		return nil, 0, errInvalidHeader("length_bytes field out of range")
	}

	pos := 1
	if len(input) < pos+lengthBytesCount {
		return nil, 0, errTruncated()
	}

	length := 0
	for _, b := range input[pos : pos+lengthBytesCount] {
		length = (length << 8) | int(b)
	}
	pos += lengthBytesCount

	if length > limits.MaxPayloadBytes {
		return nil, 0, errLimitExceeded("declared payload length exceeds max_payload_bytes")
	}

	if formatCode == formatCodeList {
		if length > limits.MaxListItems {
			return nil, 0, errLimitExceeded("list element count exceeds max_list_items")
		}
		if depth > limits.MaxDepth {
			return nil, 0, errLimitExceeded("nesting depth exceeds max_depth")
		}
		return &listFrameMarker{count: length}, pos, nil
	}

	if len(input) < pos+length {
		return nil, 0, errTruncated()
	}
	payload := input[pos : pos+length]
	pos += length

	item, err := decodeLeaf(formatCode, payload)
	if err != nil {
		return nil, 0, err
	}
	return item, pos, nil
}

func decodeLeaf(formatCode byte, payload []byte) (ast.ItemNode, error) {
	switch formatCode {
	case formatCodeASCII:
		return ast.NewASCIINode(string(payload)), nil

	case formatCodeBinary:
		values := make([]interface{}, len(payload))
		for i, v := range payload {
			values[i] = int(v)
		}
		return ast.NewBinaryNode(values...), nil

	case formatCodeBoolean:
		values := make([]interface{}, len(payload))
		for i, v := range payload {
			values[i] = v != 0
		}
		return ast.NewBooleanNode(values...), nil

	case formatCodeF4:
		return decodeFloat(4, payload)
	case formatCodeF8:
		return decodeFloat(8, payload)

	case formatCodeI1:
		return decodeInt(1, payload)
	case formatCodeI2:
		return decodeInt(2, payload)
	case formatCodeI4:
		return decodeInt(4, payload)
	case formatCodeI8:
		return decodeInt(8, payload)

	case formatCodeU1:
		return decodeUint(1, payload)
	case formatCodeU2:
		return decodeUint(2, payload)
	case formatCodeU4:
		return decodeUint(4, payload)
	case formatCodeU8:
		return decodeUint(8, payload)

	default:
		return nil, errInvalidHeader("unknown type code")
	}
}

func decodeFloat(byteSize int, payload []byte) (ast.ItemNode, error) {
	if len(payload)%byteSize != 0 {
		return nil, errInvalidHeader("float payload not a multiple of element size")
	}
	count := len(payload) / byteSize
	values := make([]interface{}, count)
	for i := 0; i < count; i++ {
		start, end := i*byteSize, (i+1)*byteSize
		if byteSize == 4 {
			values[i] = math.Float32frombits(binary.BigEndian.Uint32(payload[start:end]))
		} else {
			values[i] = math.Float64frombits(binary.BigEndian.Uint64(payload[start:end]))
		}
	}
	return ast.NewFloatNode(byteSize, values...), nil
}

func decodeInt(byteSize int, payload []byte) (ast.ItemNode, error) {
	if len(payload)%byteSize != 0 {
		return nil, errInvalidHeader("int payload not a multiple of element size")
	}
	count := len(payload) / byteSize
	values := make([]interface{}, count)
	for i := 0; i < count; i++ {
		start, end := i*byteSize, (i+1)*byteSize
		switch byteSize {
		case 1:
			values[i] = int8(payload[start])
		case 2:
			values[i] = int16(binary.BigEndian.Uint16(payload[start:end]))
		case 4:
			values[i] = int32(binary.BigEndian.Uint32(payload[start:end]))
		case 8:
			values[i] = int64(binary.BigEndian.Uint64(payload[start:end]))
		}
	}
	return ast.NewIntNode(byteSize, values...), nil
}

func decodeUint(byteSize int, payload []byte) (ast.ItemNode, error) {
	if len(payload)%byteSize != 0 {
		return nil, errInvalidHeader("uint payload not a multiple of element size")
	}
	count := len(payload) / byteSize
	values := make([]interface{}, count)
	for i := 0; i < count; i++ {
		start, end := i*byteSize, (i+1)*byteSize
		switch byteSize {
		case 1:
			values[i] = payload[start]
		case 2:
			values[i] = binary.BigEndian.Uint16(payload[start:end])
		case 4:
			values[i] = binary.BigEndian.Uint32(payload[start:end])
		case 8:
			values[i] = binary.BigEndian.Uint64(payload[start:end])
		}
	}
	return ast.NewUintNode(byteSize, values...), nil
}
