// Package remotecontrol encodes remote-control requests and decodes their
// responses: a single read or write against one field of one device.
package remotecontrol

import (
	stdjson "encoding/json"
	"fmt"
	"math"

	"github.com/bytedance/sonic"

	"github.com/wizzilab/applink-client/codec"
)

// Action selects a read or a write; Write carries the value to write.
type Action int

const (
	ActionRead Action = iota
	ActionWrite
)

// DataKind distinguishes the three shapes a write value can take.
type DataKind int

const (
	Integer DataKind = iota
	Float
	Raw
)

// Data is the write payload for a Write request; the zero value (Integer 0)
// is meaningless outside of a Write action.
type Data struct {
	Kind    DataKind
	Int     int64
	Float64 float64
	Bytes   []byte
}

// GatewayModemUid selects which gateway modem should relay the request, or
// lets the platform pick automatically.
type GatewayModemUid struct {
	auto bool
	uid  string
}

// AutoGatewayModem lets the platform choose the relaying modem.
func AutoGatewayModem() GatewayModemUid { return GatewayModemUid{auto: true} }

// NamedGatewayModem pins the request to a specific modem uid.
func NamedGatewayModem(uid string) GatewayModemUid { return GatewayModemUid{uid: uid} }

func (g GatewayModemUid) String() string {
	if g.auto {
		return "auto"
	}
	return g.uid
}

func (g GatewayModemUid) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(g.String())
}

// Request is a single read or write against one field of one device.
type Request struct {
	Action     Action
	Data       Data // only read when Action == ActionWrite
	UserType   codec.Permission
	Gmuid      GatewayModemUid
	Uid        string
	FileID     uint8
	FieldName  string
}

// NonFiniteValueError reports a write-float request whose value has no JSON
// number representation (NaN or +/-Inf).
type NonFiniteValueError struct {
	Value float64
}

func (e NonFiniteValueError) Error() string {
	return fmt.Sprintf("value %v has no JSON number representation", e.Value)
}

// byteArray marshals as a JSON array of small integers, not base64 — the
// wire format a []byte would otherwise get from encoding/json-compatible
// marshalers.
type byteArray []byte

func (b byteArray) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return sonic.Marshal(ints)
}

type rawRequest struct {
	Action    string             `json:"action"`
	UserType  codec.Permission   `json:"user_type"`
	Gmuid     GatewayModemUid    `json:"gmuid"`
	Uid       string             `json:"uid"`
	FileID    uint8              `json:"fid"`
	FieldName string             `json:"field_name"`
	Data      byteArray          `json:"data,omitempty"`
	Value     stdjson.RawMessage `json:"value,omitempty"`
}

// Encode renders r as its wire JSON form. A write with a non-finite float
// value is rejected rather than silently serialized, since JSON numbers have
// no representation for NaN or +/-Inf.
func (r Request) Encode() ([]byte, error) {
	raw := rawRequest{
		UserType:  r.UserType,
		Gmuid:     r.Gmuid,
		Uid:       r.Uid,
		FileID:    r.FileID,
		FieldName: r.FieldName,
	}

	switch r.Action {
	case ActionRead:
		raw.Action = "R"
	case ActionWrite:
		raw.Action = "W"
		switch r.Data.Kind {
		case Integer:
			encoded, err := sonic.Marshal(r.Data.Int)
			if err != nil {
				return nil, err
			}
			raw.Value = stdjson.RawMessage(encoded)
		case Float:
			if math.IsNaN(r.Data.Float64) || math.IsInf(r.Data.Float64, 0) {
				return nil, NonFiniteValueError{Value: r.Data.Float64}
			}
			encoded, err := sonic.Marshal(r.Data.Float64)
			if err != nil {
				return nil, err
			}
			raw.Value = stdjson.RawMessage(encoded)
		case Raw:
			raw.Data = byteArray(r.Data.Bytes)
		}
	}

	return sonic.Marshal(raw)
}
