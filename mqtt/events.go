package mqtt

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
	ReportEvent
	RemoteControlEvent
	MacroEvent
	BadFormatEvent
)

// BadFormatKind names which decoder rejected a frame, or a transport-level
// encoding problem short of decoding.
type BadFormatKind int

const (
	BadFormatUtf8 BadFormatKind = iota
	BadFormatReportDecode
	BadFormatRemoteControlDecode
	BadFormatMacroDecode
)

// BadFormat carries a non-fatal decode failure: the stream stays open, the
// event is simply reported for observability.
type BadFormat struct {
	Kind  BadFormatKind
	Topic string
	Data  []byte
	Err   error
}

func (b BadFormat) Error() string {
	return fmt.Sprintf("bad format on %s: %v", b.Topic, b.Err)
}

// Unsolicited is one event pushed through the dispatcher: a connection
// lifecycle event, a decoded frame, or a decode failure.
type Unsolicited struct {
	Kind          EventKind
	Report        *report.Report
	RemoteControl *remotecontrol.Response
	Macro         *macro.Response
	BadFormat     *BadFormat
}
