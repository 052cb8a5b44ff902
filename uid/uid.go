// Package uid implements the applink device-identifier model: the three
// spellings a device uid can take on the wire (Dash7, virtual gateway,
// unknown), and the closed DeviceType catalog that maps a 64-bit
// company/device code to a named kind.
package uid

import (
	"encoding/hex"
	"strings"

	"github.com/bytedance/sonic"
)

// Kind distinguishes the three spellings a Uid can take.
type Kind int

const (
	// Dash7 is an 8-byte binary identifier rendered as 16 uppercase hex digits.
	Dash7 Kind = iota
	// Vgw is a virtual-gateway identifier, wire-prefixed with "VGW-".
	Vgw
	// Unknown is any other string, carried through verbatim.
	Unknown
)

// VGWPrefix is the wire prefix identifying a virtual-gateway uid.
const VGWPrefix = "VGW-"

// Uid is a device identifier in one of three forms. The zero value is not
// meaningful; construct with Parse.
type Uid struct {
	kind   Kind
	dash7  [8]byte
	vgw    string
	opaque string
}

// Parse decodes s into a Uid, trying the 16-hex-digit Dash7 form first, then
// the VGW- prefix, and finally falling back to Unknown. Parse never fails:
// any string is representable.
func Parse(s string) Uid {
	if data, ok := parseDash7(s); ok {
		return Uid{kind: Dash7, dash7: data}
	}
	if rest, ok := strings.CutPrefix(s, VGWPrefix); ok {
		return Uid{kind: Vgw, vgw: rest}
	}
	return Uid{kind: Unknown, opaque: s}
}

// FromDash7Bytes builds a Uid directly from an 8-byte device identifier.
func FromDash7Bytes(data [8]byte) Uid {
	return Uid{kind: Dash7, dash7: data}
}

func parseDash7(s string) ([8]byte, bool) {
	var out [8]byte
	if len(s) != 16 {
		return out, false
	}
	decoded, err := hex.DecodeString(s)
	if err != nil || len(decoded) != 8 {
		return out, false
	}
	copy(out[:], decoded)
	return out, true
}

// Kind reports which of the three forms this Uid holds.
func (u Uid) Kind() Kind {
	return u.kind
}

// Dash7Bytes returns the 8 raw bytes of a Dash7 uid and true, or a zero
// array and false if u is not a Dash7 uid.
func (u Uid) Dash7Bytes() ([8]byte, bool) {
	if u.kind != Dash7 {
		return [8]byte{}, false
	}
	return u.dash7, true
}

// String formats u back into its wire spelling; it is the inverse of Parse.
func (u Uid) String() string {
	switch u.kind {
	case Dash7:
		return strings.ToUpper(hex.EncodeToString(u.dash7[:]))
	case Vgw:
		return VGWPrefix + u.vgw
	default:
		return u.opaque
	}
}

// Equal reports structural equality between two Uids.
func (u Uid) Equal(other Uid) bool {
	if u.kind != other.kind {
		return false
	}
	switch u.kind {
	case Dash7:
		return u.dash7 == other.dash7
	case Vgw:
		return u.vgw == other.vgw
	default:
		return u.opaque == other.opaque
	}
}

// MarshalJSON renders the Uid as its wire string.
func (u Uid) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(u.String())
}

// UnmarshalJSON parses a JSON string into a Uid via Parse.
func (u *Uid) UnmarshalJSON(data []byte) error {
	var s string
	if err := sonic.Unmarshal(data, &s); err != nil {
		return err
	}
	*u = Parse(s)
	return nil
}
