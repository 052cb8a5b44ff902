package remotecontrol

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/wizzilab/applink-client/codec"
)

func TestEncodeReadRequest(t *testing.T) {
	req := Request{
		Action:    ActionRead,
		UserType:  codec.Operator,
		Gmuid:     AutoGatewayModem(),
		Uid:       "001BC50C71006FD7",
		FileID:    0,
		FieldName: "uid",
	}
	data, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"action":"R","user_type":"operator","gmuid":"auto","uid":"001BC50C71006FD7","fid":0,"field_name":"uid"}`
	if string(data) != want {
		t.Fatalf("Encode() = %s, want %s", data, want)
	}
}

func TestEncodeWriteRawRequest(t *testing.T) {
	req := Request{
		Action:    ActionWrite,
		Data:      Data{Kind: Raw, Bytes: []byte{0xDE, 0xAD}},
		UserType:  codec.Admin,
		Gmuid:     NamedGatewayModem("MODEM1"),
		Uid:       "001BC50C71006FD7",
		FileID:    2,
		FieldName: "field",
	}
	data, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"action":"W","user_type":"admin","gmuid":"MODEM1","uid":"001BC50C71006FD7","fid":2,"field_name":"field","data":[222,173]}`
	if string(data) != want {
		t.Fatalf("Encode() = %s, want %s", data, want)
	}
}

func TestEncodeWriteIntegerPreservesPrecision(t *testing.T) {
	req := Request{
		Action:    ActionWrite,
		Data:      Data{Kind: Integer, Int: 9007199254740993}, // 2^53 + 1, not exactly representable as float64
		UserType:  codec.Operator,
		Gmuid:     AutoGatewayModem(),
		Uid:       "001BC50C71006FD7",
		FieldName: "field",
	}
	data, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"action":"W","user_type":"operator","gmuid":"auto","uid":"001BC50C71006FD7","fid":0,"field_name":"field","value":9007199254740993}`
	if string(data) != want {
		t.Fatalf("Encode() = %s, want %s", data, want)
	}
}

func TestEncodeWriteFloatRejectsNonFinite(t *testing.T) {
	req := Request{
		Action: ActionWrite,
		Data:   Data{Kind: Float, Float64: math.NaN()},
	}
	if _, err := req.Encode(); err == nil {
		t.Fatalf("expected error for NaN value")
	}
}

func TestParseOkNumber(t *testing.T) {
	data := []byte(`{"meta":{"rid":"0-1"},"msg":{"status":"OK","value":42}}`)
	resp, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if resp.Ok == nil || resp.Ok.Value == nil || resp.Ok.Value.Kind != Number || resp.Ok.Value.Number != 42 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestParseOkBinary(t *testing.T) {
	data := []byte(`{"meta":{"rid":"0-1"},"msg":{"status":"OK","value":{"hex":"001bc50c71006fd7"}}}`)
	resp, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if resp.Ok == nil || resp.Ok.Value == nil || resp.Ok.Value.Kind != Binary {
		t.Fatalf("resp = %+v", resp)
	}
	want, _ := hex.DecodeString("001bc50c71006fd7")
	if string(resp.Ok.Value.Binary) != string(want) {
		t.Fatalf("binary = %x, want %x", resp.Ok.Value.Binary, want)
	}
}

func TestParseOkNoValue(t *testing.T) {
	data := []byte(`{"meta":{"rid":"0-1"},"msg":{"status":"OK"}}`)
	resp, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if resp.Ok == nil || resp.Ok.Value != nil {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestParseErrAcceptsBothSpellings(t *testing.T) {
	for _, status := range []string{"ERR", "ERROR"} {
		data := []byte(`{"meta":{"rid":"0-1"},"msg":{"status":"` + status + `","err_msg":"nope"}}`)
		resp, err := Parse(data)
		if err != nil {
			t.Fatalf("Parse(%s): %v", status, err)
		}
		if resp.Err == nil || *resp.Err != "nope" {
			t.Fatalf("resp = %+v", resp)
		}
	}
}

func TestEncodeErrAlwaysUsesErrorSpelling(t *testing.T) {
	msg := "nope"
	resp := Response{Meta: Meta{Rid: "0-1"}, Err: &msg}
	data, err := resp.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"meta":{"rid":"0-1"},"msg":{"status":"ERROR","err_msg":"nope"}}`
	if string(data) != want {
		t.Fatalf("Encode() = %s, want %s", data, want)
	}

	roundTripped, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse round trip: %v", err)
	}
	if roundTripped.Err == nil || *roundTripped.Err != msg {
		t.Fatalf("round trip = %+v", roundTripped)
	}
}
