// Package httpapi implements the management-API sidecar: authenticated
// GET/POST calls against the platform's HTTP backend for site enumeration,
// device metadata, and tagging.
package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/wizzilab/applink-client/uid"
)

// Credentials identifies the management-API server and the basic-auth
// principal embedded in every request's URL userinfo.
type Credentials struct {
	Server   string
	Username string
	Password string
}

// Client issues authenticated requests against the management API. The
// zero value is not usable; construct with New.
type Client struct {
	creds      Credentials
	httpClient *http.Client
}

// New builds a Client from creds, using http.DefaultClient if hc is nil.
func New(creds Credentials, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{creds: creds, httpClient: hc}
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("https://%s:%s@%s/%s", c.creds.Username, c.creds.Password, c.creds.Server, path)
}

// Dash7boardError reports a status:"error" envelope from the management API.
type Dash7boardError struct {
	Msg string
}

func (e Dash7boardError) Error() string { return e.Msg }

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	encoded, err := sonic.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

type rawSiteDevices struct {
	Status string   `json:"status"`
	Msg    string   `json:"msg"`
	Uids   []string `json:"uids"`
}

// GetSiteDevices lists the device uids assigned to a site.
func (c *Client) GetSiteDevices(ctx context.Context, siteID uint64) ([]uid.Uid, error) {
	data, err := c.get(ctx, fmt.Sprintf("api/v1/sites/%d/devices", siteID))
	if err != nil {
		return nil, err
	}

	var raw rawSiteDevices
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("httpapi: decode site devices: %w", err)
	}
	if raw.Status == "error" {
		return nil, Dash7boardError{Msg: raw.Msg}
	}

	uids := make([]uid.Uid, len(raw.Uids))
	for i, s := range raw.Uids {
		uids[i] = uid.Parse(s)
	}
	return uids, nil
}

// DeviceInfo is one device's metadata as reported by the management API.
// Optional fields are nil when the platform has no value on record.
type DeviceInfo struct {
	Uid       uid.Uid
	SiteID    *uint64
	Vid       *uint64
	KeyRingID *uint64
	Key       *uint64
	Label     *string
	DC        *string
	MC        *string
	DFV       *string
	DHV       *string
	MFV       *string
	MHV       *string
}

type rawDeviceInfo struct {
	Uid       string  `json:"uid"`
	SiteID    *uint64 `json:"site_id"`
	Vid       *uint64 `json:"vid"`
	KeyRingID *uint64 `json:"key_ring_id"`
	Key       *uint64 `json:"key"`
	Label     *string `json:"label"`
	DC        *string `json:"dc"`
	MC        *string `json:"mc"`
	DFV       *string `json:"dfv"`
	DHV       *string `json:"dhv"`
	MFV       *string `json:"mfv"`
	MHV       *string `json:"mhv"`
}

type rawDevicesInfo struct {
	Status  string          `json:"status"`
	Msg     string          `json:"msg"`
	Devices []rawDeviceInfo `json:"devices"`
}

// GetDevicesInfo fetches metadata for the given device uids.
func (c *Client) GetDevicesInfo(ctx context.Context, uids []string) ([]DeviceInfo, error) {
	data, err := c.post(ctx, "api/v1/devices/info", map[string]any{"uids": uids})
	if err != nil {
		return nil, err
	}

	var raw rawDevicesInfo
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("httpapi: decode devices info: %w", err)
	}
	if raw.Status == "error" {
		return nil, Dash7boardError{Msg: raw.Msg}
	}

	out := make([]DeviceInfo, len(raw.Devices))
	for i, d := range raw.Devices {
		out[i] = DeviceInfo{
			Uid: uid.Parse(d.Uid), SiteID: d.SiteID, Vid: d.Vid, KeyRingID: d.KeyRingID,
			Key: d.Key, Label: d.Label, DC: d.DC, MC: d.MC, DFV: d.DFV, DHV: d.DHV, MFV: d.MFV, MHV: d.MHV,
		}
	}
	return out, nil
}

type rawDeviceTags struct {
	Status string   `json:"status"`
	Msg    string   `json:"msg"`
	Tags   []string `json:"tags"`
}

// AddDeviceTags posts tags to a device's tag set and returns the device's
// resulting full tag list.
func (c *Client) AddDeviceTags(ctx context.Context, deviceUid string, tags []string) ([]string, error) {
	data, err := c.post(ctx, fmt.Sprintf("api/v1/devices/%s/tags/add", deviceUid), map[string]any{"tags": tags})
	if err != nil {
		return nil, err
	}

	var raw rawDeviceTags
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("httpapi: decode device tags: %w", err)
	}
	if raw.Status == "error" {
		return nil, Dash7boardError{Msg: raw.Msg}
	}
	return raw.Tags, nil
}
