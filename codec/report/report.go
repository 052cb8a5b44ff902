// Package report decodes the applink report wire format: a device telemetry
// message with strongly-typed meta fields plus either a "known" structured
// payload (handed off to an external schema layer) or a "raw" offset+bytes
// payload.
package report

import (
	"encoding/hex"
	stdjson "encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/wizzilab/applink-client/uid"
)

// LinkQuality is the 0..5 enumerated link-quality indicator.
type LinkQuality uint8

const (
	L0 LinkQuality = iota
	L1
	L2
	L3
	L4
	L5
)

func linkQualityFrom(n uint8) (LinkQuality, error) {
	if n > uint8(L5) {
		return 0, BadLqualError{Value: n}
	}
	return LinkQuality(n), nil
}

// SecurityStatus is the 1..4 enumerated security-status indicator.
type SecurityStatus uint8

const (
	BelowExpectations SecurityStatus = iota + 1
	MatchingExpectations
	AboveExpectations
	TodoAskBen
)

func securityStatusFrom(n uint8) (SecurityStatus, error) {
	if n < 1 || n > 4 {
		return 0, BadSecurityStatusError{Value: n}
	}
	return SecurityStatus(n), nil
}

// AcceptationStatus is the 0..6 enumerated acceptation-status indicator.
type AcceptationStatus uint8

const (
	Accepted AcceptationStatus = iota
	AcceptableRepeat
	AcceptableReplay
	AcceptableOutOfSeq
	RejectedSecurityLevel
	RejectedBadNlss
	RejectedIllegal
)

func acceptationStatusFrom(n uint8) (AcceptationStatus, error) {
	if n > uint8(RejectedIllegal) {
		return 0, BadAcceptationStatusError{Value: n}
	}
	return AcceptationStatus(n), nil
}

// Meta carries the fixed fields common to every report.
type Meta struct {
	Uid           uid.Uid
	Guid          uid.Uid
	Gmuid         uid.Uid
	LinkBurst     uint8
	FileID        uint8
	FileName      string
	DeviceType    uint64
	SiteID        uint16
	LinkQuality   LinkQuality
	Offset        uint32
	Roaming       bool
	CreatedAt     string
	Frequency     float64
	Status        uint32
	SecurityStat  SecurityStatus
	AcceptStat    AcceptationStatus
	UnixTimestamp int64
}

// DataValueKind distinguishes the shapes a known-report field value can take.
type DataValueKind int

const (
	PositiveInteger DataValueKind = iota
	NegativeInteger
	Float
	Raw
	BitFields
)

// DataValue is one field's value inside a known report's msg map.
type DataValue struct {
	Kind      DataValueKind
	UInt      uint64
	Int       int64
	Float64   float64
	Raw       []byte
	BitFields map[string]uint64
}

// RawMsg is the payload of a "raw" report: an offset plus the bytes that
// start there.
type RawMsg struct {
	Offset  uint32
	Payload []byte
}

// Msg is either a Known set of schema-layer fields or a Raw offset+payload
// pair. Exactly one of Known/RawMsg is non-nil.
type Msg struct {
	Known  map[string]DataValue
	RawMsg *RawMsg
}

// IsRaw reports whether this msg is the raw (unparsed) shape.
func (m Msg) IsRaw() bool {
	return m.RawMsg != nil
}

// Report is a fully decoded applink report.
type Report struct {
	Meta Meta
	Msg  Msg
}

// --- errors ---

type BadLqualError struct{ Value uint8 }

func (e BadLqualError) Error() string { return fmt.Sprintf("bad link quality value %d", e.Value) }

type BadSecurityStatusError struct{ Value uint8 }

func (e BadSecurityStatusError) Error() string {
	return fmt.Sprintf("bad security status value %d", e.Value)
}

type BadAcceptationStatusError struct{ Value uint8 }

func (e BadAcceptationStatusError) Error() string {
	return fmt.Sprintf("bad acceptation status value %d", e.Value)
}

type BadDeviceTypeError struct{ Err error }

func (e BadDeviceTypeError) Error() string { return fmt.Sprintf("bad device_type: %v", e.Err) }
func (e BadDeviceTypeError) Unwrap() error { return e.Err }

type BadRawHexError struct{ Err error }

func (e BadRawHexError) Error() string { return fmt.Sprintf("bad hex payload: %v", e.Err) }
func (e BadRawHexError) Unwrap() error { return e.Err }

type NonHexPayloadError struct{ Payload string }

func (e NonHexPayloadError) Error() string {
	return fmt.Sprintf("raw msg payload is not valid hex: %q", e.Payload)
}

// ParseError wraps the stage at which decoding a report failed.
type ParseError struct {
	Stage string // "json", "meta", "msg", "rawmsg"
	Err   error
}

func (e *ParseError) Error() string { return fmt.Sprintf("report: %s: %v", e.Stage, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// --- wire shapes ---

type rawMeta struct {
	Uid        string  `json:"uid"`
	Guid       string  `json:"guid"`
	Gmuid      string  `json:"gmuid"`
	Lb         uint8   `json:"lb"`
	Fid        uint8   `json:"fid"`
	Fname      string  `json:"fname"`
	DeviceType string  `json:"device_type"`
	SiteID     uint16  `json:"site_id"`
	Lqual      uint8   `json:"lqual"`
	Offset     uint32  `json:"offset"`
	Roaming    bool    `json:"roaming"`
	Ct         string  `json:"ct"`
	Freq       float64 `json:"freq"`
	Status     uint32  `json:"status"`
	SStatus    uint8   `json:"s_status"`
	AStatus    uint8   `json:"a_status"`
	Timestamp  int64   `json:"timestamp"`
}

type rawRmsg struct {
	Offset  uint32 `json:"offset"`
	Payload string `json:"payload"`
}

type rawEnvelope struct {
	Meta rawMeta                   `json:"meta"`
	Msg  map[string]stdjson.RawMessage `json:"msg,omitempty"`
	Rmsg *rawRmsg                  `json:"rmsg,omitempty"`
}

func parseMeta(raw rawMeta) (Meta, error) {
	deviceType, err := strconv.ParseUint(raw.DeviceType, 16, 64)
	if err != nil {
		return Meta{}, &ParseError{Stage: "meta", Err: BadDeviceTypeError{Err: err}}
	}
	deviceType = byteSwap64(deviceType)

	lqual, err := linkQualityFrom(raw.Lqual)
	if err != nil {
		return Meta{}, &ParseError{Stage: "meta", Err: err}
	}
	sstatus, err := securityStatusFrom(raw.SStatus)
	if err != nil {
		return Meta{}, &ParseError{Stage: "meta", Err: err}
	}
	astatus, err := acceptationStatusFrom(raw.AStatus)
	if err != nil {
		return Meta{}, &ParseError{Stage: "meta", Err: err}
	}

	return Meta{
		Uid:           uid.Parse(raw.Uid),
		Guid:          uid.Parse(raw.Guid),
		Gmuid:         uid.Parse(raw.Gmuid),
		LinkBurst:     raw.Lb,
		FileID:        raw.Fid,
		FileName:      raw.Fname,
		DeviceType:    deviceType,
		SiteID:        raw.SiteID,
		LinkQuality:   lqual,
		Offset:        raw.Offset,
		Roaming:       raw.Roaming,
		CreatedAt:     raw.Ct,
		Frequency:     raw.Freq,
		Status:        raw.Status,
		SecurityStat:  sstatus,
		AcceptStat:    astatus,
		UnixTimestamp: raw.Timestamp,
	}, nil
}

func byteSwap64(v uint64) uint64 {
	var out uint64
	for i := 0; i < 8; i++ {
		out = (out << 8) | (v & 0xff)
		v >>= 8
	}
	return out
}

func parseDataValue(raw []byte) (DataValue, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return DataValue{}, fmt.Errorf("empty value")
	}

	if trimmed[0] == '{' {
		var obj map[string]stdjson.RawMessage
		if err := sonic.Unmarshal(raw, &obj); err != nil {
			return DataValue{}, err
		}
		if hexRaw, ok := obj["hex"]; ok {
			var hexStr string
			if err := sonic.Unmarshal(hexRaw, &hexStr); err != nil {
				return DataValue{}, err
			}
			decoded, err := hex.DecodeString(hexStr)
			if err != nil {
				return DataValue{}, BadRawHexError{Err: err}
			}
			return DataValue{Kind: Raw, Raw: decoded}, nil
		}
		bitfields := make(map[string]uint64, len(obj))
		for k, v := range obj {
			var n uint64
			if err := sonic.Unmarshal(v, &n); err != nil {
				return DataValue{}, err
			}
			bitfields[k] = n
		}
		return DataValue{Kind: BitFields, BitFields: bitfields}, nil
	}

	if strings.ContainsAny(trimmed, ".eE") {
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return DataValue{}, err
		}
		return DataValue{Kind: Float, Float64: f}, nil
	}
	if n, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		return DataValue{Kind: PositiveInteger, UInt: n}, nil
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return DataValue{}, err
	}
	return DataValue{Kind: NegativeInteger, Int: n}, nil
}

// Parse decodes a JSON report, resolving the known-vs-raw shape structurally
// (presence of "msg" vs "rmsg"), never by a discriminator field.
func Parse(data []byte) (Report, error) {
	var raw rawEnvelope
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return Report{}, &ParseError{Stage: "json", Err: err}
	}

	meta, err := parseMeta(raw.Meta)
	if err != nil {
		return Report{}, err
	}

	if raw.Rmsg != nil {
		payload, err := hex.DecodeString(raw.Rmsg.Payload)
		if err != nil {
			return Report{}, &ParseError{Stage: "rawmsg", Err: NonHexPayloadError{Payload: raw.Rmsg.Payload}}
		}
		return Report{
			Meta: meta,
			Msg: Msg{RawMsg: &RawMsg{
				Offset:  raw.Rmsg.Offset,
				Payload: payload,
			}},
		}, nil
	}

	known := make(map[string]DataValue, len(raw.Msg))
	for k, v := range raw.Msg {
		dv, err := parseDataValue(v)
		if err != nil {
			return Report{}, &ParseError{Stage: "msg", Err: fmt.Errorf("field %q: %w", k, err)}
		}
		known[k] = dv
	}
	return Report{Meta: meta, Msg: Msg{Known: known}}, nil
}
