// Package macro encodes wizzi-macro requests and decodes the streamed
// responses a macro run emits: a start/end/error status stream, progress
// log lines, and a per-device outcome.
package macro

import (
	"github.com/bytedance/sonic"

	"github.com/wizzilab/applink-client/codec"
)

// GatewayMode selects how the platform schedules the macro across gateways.
type GatewayMode int

const (
	Best GatewayMode = iota
)

func (m GatewayMode) String() string {
	switch m {
	case Best:
		return "best"
	default:
		return "best"
	}
}

func (m GatewayMode) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(m.String())
}

// Request starts a macro run against a set of devices.
type Request struct {
	SiteID      uint64
	UserType    codec.Permission
	Name        string
	SharedVars  map[string]int64
	DeviceVars  map[string]map[string]int64
	DeviceUids  []string
	GatewayMode GatewayMode
}

type rawRequest struct {
	SiteID      uint64                      `json:"site_id"`
	UserType    codec.Permission            `json:"user_type"`
	Name        string                      `json:"name"`
	SharedVars  map[string]int64            `json:"shared_vars"`
	DeviceVars  map[string]map[string]int64 `json:"device_vars"`
	DeviceUids  []string                    `json:"device_uids"`
	GatewayMode GatewayMode                 `json:"gateway_mode"`
}

// Encode renders r as its wire JSON form.
func (r Request) Encode() ([]byte, error) {
	sharedVars := r.SharedVars
	if sharedVars == nil {
		sharedVars = map[string]int64{}
	}
	deviceVars := r.DeviceVars
	if deviceVars == nil {
		deviceVars = map[string]map[string]int64{}
	}
	deviceUids := r.DeviceUids
	if deviceUids == nil {
		deviceUids = []string{}
	}

	return sonic.Marshal(rawRequest{
		SiteID:      r.SiteID,
		UserType:    r.UserType,
		Name:        r.Name,
		SharedVars:  sharedVars,
		DeviceVars:  deviceVars,
		DeviceUids:  deviceUids,
		GatewayMode: r.GatewayMode,
	})
}
