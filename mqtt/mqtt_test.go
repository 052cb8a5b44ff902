package mqtt

import (
	"context"
	"testing"
	"time"

	"github.com/wizzilab/applink-client/codec/remotecontrol"
)

func TestRequestIDsDistinct(t *testing.T) {
	c, _ := newForTest("01BC50C7", 4)
	a := c.requestID()
	b := c.requestID()
	if a == b {
		t.Fatalf("expected distinct request ids, got %q twice", a)
	}

	clone := c.Clone()
	c2 := clone.requestID()
	if c2 == a || c2 == b {
		t.Fatalf("clone request id %q collided with parent ids", c2)
	}
}

func TestClassifyReport(t *testing.T) {
	c, _ := newForTest("01BC50C7", 4)
	payload := []byte(`{
		"meta": {
			"uid": "001BC50C71006FD7", "guid": "001BC50C71006FD7", "gmuid": "001BC50C71006FD7",
			"lb": 0, "fid": 0, "fname": "", "device_type": "01BC50C700001001", "site_id": 1,
			"lqual": 1, "offset": 0, "roaming": false, "ct": "2024-01-01T00:00:00Z",
			"freq": 868.1, "status": 0, "s_status": 1, "a_status": 0, "timestamp": 1700000000
		},
		"msg": {}
	}`)
	ev, ok := c.classify("/applink/01BC50C7/report/1/001BC50C71006FD7", payload)
	if !ok || ev.Kind != ReportEvent {
		t.Fatalf("classify() = %+v, %v", ev, ok)
	}
}

func TestClassifyBadUtf8Report(t *testing.T) {
	c, _ := newForTest("01BC50C7", 4)
	payload := []byte{0xff, 0xfe, 0xfd}
	ev, ok := c.classify("/applink/01BC50C7/report/1/001BC50C71006FD7", payload)
	if !ok || ev.Kind != BadFormatEvent || ev.BadFormat == nil || ev.BadFormat.Kind != BadFormatUtf8 {
		t.Fatalf("classify() = %+v, %v", ev, ok)
	}
}

func TestClassifyDropsOwnRequestEcho(t *testing.T) {
	c, _ := newForTest("01BC50C7", 4)
	_, ok := c.classify("/applink/01BC50C7/remotectrl/request/abc-0-1", []byte(`{}`))
	if ok {
		t.Fatalf("expected own request echo to be dropped")
	}
}

func TestClassifyUnknownTopicDropped(t *testing.T) {
	c, _ := newForTest("01BC50C7", 4)
	_, ok := c.classify("/applink/01BC50C7/something/else", []byte(`{}`))
	if ok {
		t.Fatalf("expected unknown topic to be dropped")
	}
}

func TestRemoteControlCorrelation(t *testing.T) {
	c, commands := newForTest("01BC50C7", 4)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	var gotResp remotecontrol.Response
	var gotErr error
	go func() {
		gotResp, gotErr = c.RemoteControl(ctx, remotecontrol.Request{Uid: "x", FieldName: "uid"})
		close(done)
	}()

	cmd := <-commands
	rid := ridFromTopic(cmd.topic)

	// interleaved traffic for a different rid must be ignored
	c.feedForTest("/applink/01BC50C7/remotectrl/response/other", []byte(`{"meta":{"rid":"other-0-1"},"msg":{"status":"OK"}}`))
	c.feedForTest("/applink/01BC50C7/remotectrl/response/"+rid, []byte(`{"meta":{"rid":"`+rid+`"},"msg":{"status":"OK","value":42}}`))

	<-done
	if gotErr != nil {
		t.Fatalf("RemoteControl: %v", gotErr)
	}
	if gotResp.Meta.Rid != rid {
		t.Fatalf("resp rid = %q, want %q", gotResp.Meta.Rid, rid)
	}
	if gotResp.Ok == nil || gotResp.Ok.Value == nil || gotResp.Ok.Value.Number != 42 {
		t.Fatalf("resp = %+v", gotResp)
	}
}

func ridFromTopic(topic string) string {
	const prefix = "/applink/01BC50C7/remotectrl/request/"
	return topic[len(prefix):]
}
