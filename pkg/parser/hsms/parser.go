// Package hsms decodes a complete on-wire HSMS byte blob (4-byte length
// prefix, 10-byte header, body) into an ast.HSMSMessage in a single call.
//
// pkg/hsms's own Connection reads and decodes frames incrementally off a
// Link and leaves the body undecoded until a caller asks for it; this
// package exists for callers that already hold a full captured frame (a
// test fixture, a logged DumpSink record) and want one call from raw bytes
// to a structured message. It is built on top of pkg/hsms.DecodePayload and
// pkg/secsii.DecodeOne rather than re-implementing frame or item decoding.
package hsms

import (
	"encoding/binary"

	"github.com/nexosec/gosecs/pkg/ast"
	"github.com/nexosec/gosecs/pkg/hsms"
	"github.com/nexosec/gosecs/pkg/secsii"
)

// Parse parses the input bytes that represent a single, complete HSMS
// message (length prefix + header + body).
//
// If parsing fails, ok == false is returned.
func Parse(input []byte) (msg ast.HSMSMessage, ok bool) {
	if len(input) < 4 {
		return nil, false
	}
	length := binary.BigEndian.Uint32(input[0:4])
	payload := input[4:]
	if uint32(len(payload)) != length {
		return nil, false
	}

	frame, err := hsms.DecodePayload(payload)
	if err != nil {
		return nil, false
	}
	if frame.PType != 0 {
		return nil, false
	}

	if frame.IsControl() {
		switch frame.SType {
		case hsms.STypeSelectReq, hsms.STypeSelectRsp, hsms.STypeDeselectReq,
			hsms.STypeDeselectRsp, hsms.STypeLinktestReq, hsms.STypeLinktestRsp,
			hsms.STypeRejectReq, hsms.STypeSeparateReq:
			return hsms.ToControlMessage(frame), true
		default:
			return nil, false
		}
	}

	dataItem, err := decodeBody(frame.Body)
	if err != nil {
		return nil, false
	}

	stream := int(frame.HeaderByte2 & 0b01111111)
	function := int(frame.HeaderByte3)
	waitBit := int(frame.HeaderByte2 >> 7)
	systemBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(systemBytes, frame.SystemBytes)

	return ast.NewHSMSDataMessage("", stream, function, waitBit, "H<->E",
		dataItem, int(frame.SessionID), systemBytes), true
}

func decodeBody(body []byte) (ast.ItemNode, error) {
	if len(body) == 0 {
		return ast.NewEmptyItemNode(), nil
	}
	item, _, err := secsii.DecodeOne(body, secsii.DefaultLimits())
	return item, err
}
