// Package message implements the RTMP Message Layer: encoding and decoding
// AMF0 command payloads into typed Command/Response/Status/Error values
// (spec §4.4).
package message

import (
	"bytes"

	"rtmpclient/amf0"
)

// DataKind discriminates a MessageData's variant.
type DataKind int

const (
	KindCommand DataKind = iota
	KindResponse
	KindStatus
	KindError
)

// Status is a server-pushed notification extracted from a trailing AMF0
// Object, per spec §4.4 "Status extraction".
type Status struct {
	Level       string
	Code        string
	Description string
}

// Data is the decoded payload of an AMF0 command message. Exactly the
// fields relevant to Kind are populated.
type Data struct {
	Kind DataKind

	// KindCommand
	Name string
	ID   float64
	Obj  amf0.Value
	Opt  []amf0.Value

	// KindResponse / KindError also use ID and Opt; Obj holds the
	// command-object value that came back (often Null).
	// Status, populated for KindResponse and KindError from the first
	// Object among Opt, read for level/code/description (e.g. a connect
	// response), and always for KindStatus.
	Status   Status
	HasStatus bool
}

// Message is one Chunk-Framer-reassembled application payload, addressed to
// a stream id (0 = connection channel).
type Message struct {
	StreamID uint32
	Data     Data
}

// Encode serializes a Message's command payload as AMF0 values, ready to be
// handed to a chunk Framer as an AMF0-command-type chunk message.
func Encode(m Message) ([]byte, error) {
	var buf bytes.Buffer
	switch m.Data.Kind {
	case KindCommand:
		if err := amf0.EncodeValues(&buf, amf0.Utf8(m.Data.Name), amf0.Number(m.Data.ID), m.Data.Obj); err != nil {
			return nil, err
		}
	case KindResponse:
		name := "_result"
		if err := amf0.EncodeValues(&buf, amf0.Utf8(name), amf0.Number(m.Data.ID), m.Data.Obj); err != nil {
			return nil, err
		}
	case KindError:
		if err := amf0.EncodeValues(&buf, amf0.Utf8("_error"), amf0.Number(m.Data.ID), m.Data.Obj); err != nil {
			return nil, err
		}
	case KindStatus:
		obj := amf0.Object(map[string]amf0.Value{
			"level":       amf0.Utf8(m.Data.Status.Level),
			"code":        amf0.Utf8(m.Data.Status.Code),
			"description": amf0.Utf8(m.Data.Status.Description),
		})
		if err := amf0.EncodeValues(&buf, amf0.Utf8("onStatus"), amf0.Number(m.Data.ID), amf0.Null(), obj); err != nil {
			return nil, err
		}
	}
	for _, v := range m.Data.Opt {
		if err := amf0.EncodeValue(&buf, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Decode parses an AMF0 command payload into a Message addressed to
// streamID. Dispatch follows the command name (spec §4.4): "_result" and
// "_error" become Response/Error keyed by tx_id, "onStatus" becomes a
// Status extracted from the trailing object, anything else remains a
// Command.
func Decode(streamID uint32, payload []byte) (Message, error) {
	values, err := amf0.DecodeValues(bytes.NewReader(payload))
	if err != nil {
		return Message{}, err
	}
	if len(values) < 2 {
		return Message{}, &DecodeError{Reason: "command payload needs at least name and transaction id"}
	}

	name, _ := values[0].AsUtf8()
	txID, _ := values[1].AsNumber()

	var obj amf0.Value
	if len(values) >= 3 {
		obj = values[2]
	} else {
		obj = amf0.Null()
	}
	opt := append([]amf0.Value(nil), values[3:]...)

	switch name {
	case "_result":
		d := Data{Kind: KindResponse, Name: name, ID: txID, Obj: obj, Opt: opt}
		if status, ok := statusFromOpt(opt); ok {
			d.Status, d.HasStatus = status, true
		}
		return Message{StreamID: streamID, Data: d}, nil

	case "_error":
		d := Data{Kind: KindError, Name: name, ID: txID, Obj: obj, Opt: opt}
		if status, ok := statusFromOpt(opt); ok {
			d.Status, d.HasStatus = status, true
		}
		return Message{StreamID: streamID, Data: d}, nil

	case "onStatus":
		status, _ := statusFromValue(obj)
		if !status.isSet() {
			if s, ok := statusFromOpt(opt); ok {
				status = s
			}
		}
		return Message{StreamID: streamID, Data: Data{Kind: KindStatus, Name: name, ID: txID, Obj: obj, Opt: opt, Status: status, HasStatus: true}}, nil

	default:
		return Message{StreamID: streamID, Data: Data{Kind: KindCommand, Name: name, ID: txID, Obj: obj, Opt: opt}}, nil
	}
}

func (s Status) isSet() bool { return s.Level != "" || s.Code != "" || s.Description != "" }

// statusFromOpt looks for a trailing Object value among opt and extracts a
// Status from it, for responses that carry their status as the second
// trailing value rather than as the command-object.
func statusFromOpt(opt []amf0.Value) (Status, bool) {
	for _, v := range opt {
		if v.Kind == amf0.TypeObject || v.Kind == amf0.TypeEcmaArray {
			if s, ok := statusFromValue(v); ok {
				return s, true
			}
		}
	}
	return Status{}, false
}

func statusFromValue(v amf0.Value) (Status, bool) {
	if v.Kind != amf0.TypeObject && v.Kind != amf0.TypeEcmaArray {
		return Status{}, false
	}
	return Status{
		Level:       v.GetUtf8("level"),
		Code:        v.GetUtf8("code"),
		Description: v.GetUtf8("description"),
	}, true
}

// IsConnectSuccess reports whether m is the Response that signals a
// successful connect (spec §4.4 "Connect-success recognition").
func IsConnectSuccess(m Message) bool {
	return m.Data.Kind == KindResponse && m.Data.HasStatus && m.Data.Status.Code == "NetConnection.Connect.Success"
}

// DecodeError reports a structurally invalid command payload.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "message: " + e.Reason }
