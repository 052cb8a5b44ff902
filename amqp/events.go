package amqp

import (
	"fmt"

	"github.com/wizzilab/applink-client/codec/macro"
	"github.com/wizzilab/applink-client/codec/remotecontrol"
	"github.com/wizzilab/applink-client/codec/report"
)

// EventKind discriminates the shapes an Unsolicited event can take.
type EventKind int

const (
	ConnectEvent EventKind = iota
	DisconnectEvent
	ApplinkEvent
	GatewayEvent
	BadFormatEvent
)

// ApplinkPayloadKind discriminates the payload carried by an ApplinkEvent.
type ApplinkPayloadKind int

const (
	ApplinkReport ApplinkPayloadKind = iota
	ApplinkRemoteControl
	ApplinkMacro
)

// ApplinkPayload is the decoded body of one applink.<co>.<subtopic>... frame.
type ApplinkPayload struct {
	Kind          ApplinkPayloadKind
	Report        *report.Report
	RemoteControl *remotecontrol.Response
	Macro         *macro.Response
}

// GatewayPayloadKind discriminates the payload carried by a GatewayEvent.
type GatewayPayloadKind int

const (
	GatewayMdReport GatewayPayloadKind = iota
)

// GatewayPayload is the decoded body of one gw.<uid>.<subtopic>... frame.
type GatewayPayload struct {
	Kind    GatewayPayloadKind
	Modem   string
	Payload []byte
}

// BadFormat reports a routing key or payload that failed to classify or
// decode. It is a non-fatal, observable event.
type BadFormat struct {
	RoutingKey string
	Data       []byte
	Reason     string
}

func (b BadFormat) Error() string {
	return fmt.Sprintf("bad format on %q: %s", b.RoutingKey, b.Reason)
}

// Unsolicited is one event delivered by the AMQP client: a connection
// lifecycle event, a classified applink/gateway frame, or a BadFormat.
type Unsolicited struct {
	Kind       EventKind
	Company    string
	Site       string
	Device     string
	Applink    *ApplinkPayload
	GatewayUid string
	Gateway    *GatewayPayload
	BadFormat  *BadFormat
}
