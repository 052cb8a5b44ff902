package remotecontrol

import (
	"encoding/hex"
	stdjson "encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// ValueKind distinguishes the two shapes a response value can take.
type ValueKind int

const (
	Number ValueKind = iota
	Binary
)

// Value is the untagged union carried by a successful response: a bare
// integer or a hex-encoded byte string.
type Value struct {
	Kind   ValueKind
	Number uint32
	Binary []byte
}

// Message is the payload of an Ok response; Value is absent for requests
// that don't return data (e.g. most writes).
type Message struct {
	Value *Value
}

// Meta carries the optional device/gateway identifiers and the mandatory
// correlation id of a response.
type Meta struct {
	Uid   *string
	Guid  *string
	Gmuid *string
	Rid   string
}

// Response is a decoded remote-control response: either Ok with a Message,
// or an error string from the server.
type Response struct {
	Meta Meta
	Ok   *Message
	Err  *string
}

// BadValueHexError reports a Binary value whose hex string failed to decode.
type BadValueHexError struct {
	Err error
}

func (e BadValueHexError) Error() string { return fmt.Sprintf("bad value hex: %v", e.Err) }
func (e BadValueHexError) Unwrap() error { return e.Err }

type rawMeta struct {
	Uid   *string `json:"uid,omitempty"`
	Guid  *string `json:"guid,omitempty"`
	Gmuid *string `json:"gmuid,omitempty"`
	Rid   string  `json:"rid"`
}

type rawMsg struct {
	Status string             `json:"status"`
	Value  stdjson.RawMessage `json:"value,omitempty"`
	ErrMsg string             `json:"err_msg,omitempty"`
}

type rawEnvelope struct {
	Meta rawMeta `json:"meta"`
	Msg  rawMsg  `json:"msg"`
}

func parseValue(raw stdjson.RawMessage) (*Value, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var obj struct {
		Hex *string `json:"hex"`
	}
	if err := sonic.Unmarshal(raw, &obj); err == nil && obj.Hex != nil {
		decoded, err := hex.DecodeString(*obj.Hex)
		if err != nil {
			return nil, BadValueHexError{Err: err}
		}
		return &Value{Kind: Binary, Binary: decoded}, nil
	}

	var n uint32
	if err := sonic.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	return &Value{Kind: Number, Number: n}, nil
}

// Parse decodes a remote-control response. It accepts both the encoder's
// "OK"/"ERROR" spelling and the platform's observed "OK"/"ERR" spelling for
// the status tag; callers must not assume a single canonical spelling.
func Parse(data []byte) (Response, error) {
	var raw rawEnvelope
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return Response{}, err
	}

	meta := Meta{Uid: raw.Meta.Uid, Guid: raw.Meta.Guid, Gmuid: raw.Meta.Gmuid, Rid: raw.Meta.Rid}

	switch raw.Msg.Status {
	case "OK":
		value, err := parseValue(raw.Msg.Value)
		if err != nil {
			return Response{}, err
		}
		return Response{Meta: meta, Ok: &Message{Value: value}}, nil
	case "ERR", "ERROR":
		errMsg := raw.Msg.ErrMsg
		return Response{Meta: meta, Err: &errMsg}, nil
	default:
		return Response{}, fmt.Errorf("unknown response status %q", raw.Msg.Status)
	}
}

// Encode renders r as its wire JSON form. Per the platform's asymmetry, an
// error response always encodes its status as "ERROR", never "ERR" — only
// the decoder accepts the latter.
func (r Response) Encode() ([]byte, error) {
	meta := rawMeta{Uid: r.Meta.Uid, Guid: r.Meta.Guid, Gmuid: r.Meta.Gmuid, Rid: r.Meta.Rid}

	if r.Err != nil {
		return sonic.Marshal(rawEnvelope{
			Meta: meta,
			Msg:  rawMsg{Status: "ERROR", ErrMsg: *r.Err},
		})
	}

	var valueRaw stdjson.RawMessage
	if r.Ok != nil && r.Ok.Value != nil {
		var encoded []byte
		var err error
		switch r.Ok.Value.Kind {
		case Number:
			encoded, err = sonic.Marshal(r.Ok.Value.Number)
		case Binary:
			encoded, err = sonic.Marshal(struct {
				Hex string `json:"hex"`
			}{Hex: hex.EncodeToString(r.Ok.Value.Binary)})
		}
		if err != nil {
			return nil, err
		}
		valueRaw = stdjson.RawMessage(encoded)
	}

	return sonic.Marshal(rawEnvelope{
		Meta: meta,
		Msg:  rawMsg{Status: "OK", Value: valueRaw},
	})
}
