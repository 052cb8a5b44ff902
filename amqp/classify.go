package amqp

import (
	"strings"
	"unicode/utf8"

	"github.com/wizzilab/applink-client/codec/report"
)

// classify resolves one AMQP delivery into a typed Unsolicited event. A
// leading empty routing-key component is required (keys are dot-joined
// with a leading dot); the second component selects the applink or gateway
// sub-tree. Any missing component at any level produces a structured
// BadFormat naming the missing field, never a panic.
func classify(routingKey string, data []byte) Unsolicited {
	parts := strings.Split(routingKey, ".")

	if len(parts) == 0 || parts[0] != "" {
		return badFormat(routingKey, data, "missing leading empty component")
	}
	rest := parts[1:]

	if len(rest) == 0 {
		return badFormat(routingKey, data, "missing sub-tree component")
	}

	switch rest[0] {
	case "applink":
		return classifyApplink(routingKey, rest[1:], data)
	case "gw":
		return classifyGateway(routingKey, rest[1:], data)
	default:
		return badFormat(routingKey, data, "unknown routing key root "+rest[0])
	}
}

func classifyApplink(routingKey string, parts []string, data []byte) Unsolicited {
	if len(parts) == 0 {
		return badFormat(routingKey, data, "missing company")
	}
	company := parts[0]
	rest := parts[1:]

	if len(rest) == 0 {
		return badFormat(routingKey, data, "missing applink sub-topic")
	}

	switch rest[0] {
	case "report":
		return classifyApplinkReport(routingKey, company, rest[1:], data)
	default:
		return badFormat(routingKey, data, "unknown applink sub-topic "+rest[0])
	}
}

func classifyApplinkReport(routingKey, company string, parts []string, data []byte) Unsolicited {
	if len(parts) == 0 {
		return badFormat(routingKey, data, "missing site")
	}
	site := parts[0]

	if len(parts) < 2 {
		return badFormat(routingKey, data, "missing device")
	}
	device := parts[1]

	if !utf8.Valid(data) {
		return badFormat(routingKey, data, "non-UTF-8 payload")
	}

	r, err := report.Parse(data)
	if err != nil {
		return badFormat(routingKey, data, "bad report: "+err.Error())
	}

	return Unsolicited{
		Kind:    ApplinkEvent,
		Company: company,
		Site:    site,
		Device:  device,
		Applink: &ApplinkPayload{Kind: ApplinkReport, Report: &r},
	}
}

func classifyGateway(routingKey string, parts []string, data []byte) Unsolicited {
	if len(parts) == 0 {
		return badFormat(routingKey, data, "missing gateway uid")
	}
	uid := parts[0]
	rest := parts[1:]

	if len(rest) == 0 {
		return badFormat(routingKey, data, "missing gateway sub-topic")
	}

	switch rest[0] {
	case "md":
		if len(rest) < 2 {
			return badFormat(routingKey, data, "missing modem uid")
		}
		return Unsolicited{
			Kind:       GatewayEvent,
			GatewayUid: uid,
			Gateway: &GatewayPayload{
				Kind:    GatewayMdReport,
				Modem:   rest[1],
				Payload: data,
			},
		}
	default:
		return badFormat(routingKey, data, "unknown gateway sub-topic "+rest[0])
	}
}

func badFormat(routingKey string, data []byte, reason string) Unsolicited {
	return Unsolicited{
		Kind:      BadFormatEvent,
		BadFormat: &BadFormat{RoutingKey: routingKey, Data: data, Reason: reason},
	}
}
