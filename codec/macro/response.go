package macro

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// StatusKind is the lifecycle phase a Status message reports.
type StatusKind int

const (
	Start StatusKind = iota
	End
	Err
)

// MessageKind discriminates the four flattened response shapes.
type MessageKind int

const (
	StatusMessage MessageKind = iota
	LogMessage
	DstatusOkMessage
	DstatusErrorMessage
)

// Message is one event in a macro response stream, reduced from the raw
// tagged-union wire shape to a flat struct switched on Kind.
type Message struct {
	Kind MessageKind

	// StatusMessage
	Status StatusKind
	Err    string // set when Status == Err

	// LogMessage
	Progress float64

	// DstatusOkMessage / DstatusErrorMessage
	Uid      string
	DstatErr string // set for DstatusErrorMessage
}

// Terminal reports whether m ends the response stream for its correlation id.
func (m Message) Terminal() bool {
	return m.Kind == StatusMessage && (m.Status == End || m.Status == Err)
}

// Meta carries the stream's correlation id.
type Meta struct {
	Rid string
}

// Response is one decoded frame of a macro response stream.
type Response struct {
	Meta Meta
	Msg  Message
}

// BadRawError reports a structurally valid frame whose semantics are
// incomplete or unrecognized: an error tag (STATUS/ERR, DSTATUS/ERROR) whose
// mandatory err field was omitted, a LOG without progress, or an unknown
// type/status token. The raw frame is preserved for diagnostics.
type BadRawError struct {
	Raw []byte
}

func (e BadRawError) Error() string {
	return fmt.Sprintf("incomplete macro response frame: %s", e.Raw)
}

type rawMeta struct {
	Rid string `json:"rid"`
}

type rawMsg struct {
	Type     string   `json:"type"`
	Status   string   `json:"status,omitempty"`
	Err      *string  `json:"err,omitempty"`
	Progress *float64 `json:"progress,omitempty"`
	Uid      string   `json:"uid,omitempty"`
	Dstatus  string   `json:"dstatus,omitempty"`
}

type rawEnvelope struct {
	Meta rawMeta `json:"meta"`
	Msg  rawMsg  `json:"msg"`
}

// Parse decodes one macro response frame. A structurally valid frame whose
// required companion field is missing for an error tag (STATUS/ERR without
// err, DSTATUS/ERROR without err) is reported as BadRawError rather than
// silently substituted with a placeholder message.
func Parse(data []byte) (Response, error) {
	var raw rawEnvelope
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return Response{}, err
	}

	meta := Meta{Rid: raw.Meta.Rid}

	switch raw.Msg.Type {
	case "STATUS":
		switch raw.Msg.Status {
		case "START":
			return Response{Meta: meta, Msg: Message{Kind: StatusMessage, Status: Start}}, nil
		case "END":
			return Response{Meta: meta, Msg: Message{Kind: StatusMessage, Status: End}}, nil
		case "ERR":
			if raw.Msg.Err == nil {
				return Response{}, BadRawError{Raw: data}
			}
			return Response{Meta: meta, Msg: Message{Kind: StatusMessage, Status: Err, Err: *raw.Msg.Err}}, nil
		default:
			return Response{}, BadRawError{Raw: data}
		}
	case "LOG":
		if raw.Msg.Progress == nil {
			return Response{}, BadRawError{Raw: data}
		}
		return Response{Meta: meta, Msg: Message{Kind: LogMessage, Progress: *raw.Msg.Progress}}, nil
	case "DSTATUS":
		switch raw.Msg.Dstatus {
		case "OK":
			return Response{Meta: meta, Msg: Message{Kind: DstatusOkMessage, Uid: raw.Msg.Uid}}, nil
		case "ERROR":
			if raw.Msg.Err == nil {
				return Response{}, BadRawError{Raw: data}
			}
			return Response{Meta: meta, Msg: Message{
				Kind:     DstatusErrorMessage,
				Uid:      raw.Msg.Uid,
				DstatErr: *raw.Msg.Err,
			}}, nil
		default:
			return Response{}, BadRawError{Raw: data}
		}
	default:
		return Response{}, BadRawError{Raw: data}
	}
}
