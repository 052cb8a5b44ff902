package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	server := strings.TrimPrefix(srv.URL, "http://")
	c := New(Credentials{Server: server, Username: "u", Password: "p"}, srv.Client())
	// the sidecar always builds https:// URLs; point it at the plain-http
	// test server by rewriting the scheme on every outbound request.
	c.httpClient = &http.Client{Transport: rewriteHTTPSTransport{base: srv.Client().Transport}}
	return c
}

type rewriteHTTPSTransport struct {
	base http.RoundTripper
}

func (t rewriteHTTPSTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.URL.Scheme = "http"
	req.Host = req.URL.Host
	return base.RoundTrip(req)
}

func TestGetSiteDevicesOk(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sites/1/devices" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok","uids":["001BC50C70010EDE"]}`))
	})

	devices, err := c.GetSiteDevices(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetSiteDevices: %v", err)
	}
	if len(devices) != 1 || devices[0].String() != "001BC50C70010EDE" {
		t.Fatalf("devices = %+v", devices)
	}
}

func TestGetSiteDevicesError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","msg":"nope"}`))
	})

	_, err := c.GetSiteDevices(context.Background(), 1)
	var dashErr Dash7boardError
	if err == nil {
		t.Fatal("expected error")
	}
	if !asDash7boardError(err, &dashErr) || dashErr.Msg != "nope" {
		t.Fatalf("err = %v", err)
	}
}

func asDash7boardError(err error, target *Dash7boardError) bool {
	de, ok := err.(Dash7boardError)
	if !ok {
		return false
	}
	*target = de
	return true
}

func TestAddDeviceTags(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/devices/001BC50C70010EDE/tags/add" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok","tags":["test"]}`))
	})

	tags, err := c.AddDeviceTags(context.Background(), "001BC50C70010EDE", []string{"test"})
	if err != nil {
		t.Fatalf("AddDeviceTags: %v", err)
	}
	if len(tags) != 1 || tags[0] != "test" {
		t.Fatalf("tags = %+v", tags)
	}
}
