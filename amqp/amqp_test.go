package amqp

import "testing"

const knownReport = `{
	"meta": {
		"uid": "001BC50C71006FD7", "guid": "001BC50C71006FD7", "gmuid": "001BC50C71006FD7",
		"lb": 0, "fid": 0, "fname": "", "device_type": "01BC50C700001001", "site_id": 1,
		"lqual": 1, "offset": 0, "roaming": false, "ct": "2024-01-01T00:00:00Z",
		"freq": 868.1, "status": 0, "s_status": 1, "a_status": 0, "timestamp": 1700000000
	},
	"msg": {}
}`

func TestClassifyApplinkReport(t *testing.T) {
	ev := classify(".applink.01BC50C7.report.1.001BC50C70010EDE", []byte(knownReport))
	if ev.Kind != ApplinkEvent {
		t.Fatalf("Kind = %v, want ApplinkEvent", ev.Kind)
	}
	if ev.Company != "01BC50C7" || ev.Site != "1" || ev.Device != "001BC50C70010EDE" {
		t.Fatalf("ev = %+v", ev)
	}
	if ev.Applink == nil || ev.Applink.Kind != ApplinkReport || ev.Applink.Report == nil {
		t.Fatalf("ev.Applink = %+v", ev.Applink)
	}
}

func TestClassifyGatewayMdReport(t *testing.T) {
	ev := classify(".gw.VGW-abc.md.MODEM1", []byte("deadbeef"))
	if ev.Kind != GatewayEvent {
		t.Fatalf("Kind = %v, want GatewayEvent", ev.Kind)
	}
	if ev.GatewayUid != "VGW-abc" {
		t.Fatalf("GatewayUid = %q", ev.GatewayUid)
	}
	if ev.Gateway == nil || ev.Gateway.Kind != GatewayMdReport || ev.Gateway.Modem != "MODEM1" {
		t.Fatalf("ev.Gateway = %+v", ev.Gateway)
	}
	if string(ev.Gateway.Payload) != "deadbeef" {
		t.Fatalf("payload = %q", ev.Gateway.Payload)
	}
}

func TestClassifyMissingLeadingDot(t *testing.T) {
	ev := classify("applink.01BC50C7.report.1.x", []byte(knownReport))
	if ev.Kind != BadFormatEvent {
		t.Fatalf("Kind = %v, want BadFormatEvent", ev.Kind)
	}
}

func TestClassifyMissingDevice(t *testing.T) {
	ev := classify(".applink.01BC50C7.report.1", []byte(knownReport))
	if ev.Kind != BadFormatEvent {
		t.Fatalf("Kind = %v, want BadFormatEvent", ev.Kind)
	}
	if ev.BadFormat == nil || ev.BadFormat.Reason == "" {
		t.Fatalf("BadFormat = %+v", ev.BadFormat)
	}
}

func TestClassifyMissingModemUid(t *testing.T) {
	ev := classify(".gw.VGW-abc.md", []byte("x"))
	if ev.Kind != BadFormatEvent {
		t.Fatalf("Kind = %v, want BadFormatEvent", ev.Kind)
	}
}

func TestClassifyUnknownRoot(t *testing.T) {
	ev := classify(".something.else", []byte("x"))
	if ev.Kind != BadFormatEvent {
		t.Fatalf("Kind = %v, want BadFormatEvent", ev.Kind)
	}
}

func TestClassifyBadReportPayload(t *testing.T) {
	ev := classify(".applink.01BC50C7.report.1.x", []byte(`not json`))
	if ev.Kind != BadFormatEvent {
		t.Fatalf("Kind = %v, want BadFormatEvent", ev.Kind)
	}
}

func TestClassifyBadUtf8ReportPayload(t *testing.T) {
	ev := classify(".applink.01BC50C7.report.1.x", []byte{0xff, 0xfe, 0xfd})
	if ev.Kind != BadFormatEvent {
		t.Fatalf("Kind = %v, want BadFormatEvent", ev.Kind)
	}
	if ev.BadFormat == nil || ev.BadFormat.Reason != "non-UTF-8 payload" {
		t.Fatalf("BadFormat = %+v", ev.BadFormat)
	}
}
