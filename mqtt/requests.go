package mqtt

import (
	"context"
	"fmt"

	"github.com/wizzilab/applink-client/codec/macro"
	"github.com/wizzilab/applink-client/codec/remotecontrol"
)

// RemoteControl publishes a single read or write request and waits for the
// matching response. The call opens a private listener on the dispatcher
// rather than registering in a shared correlation table; the listener is
// closed before returning.
func (c *Client) RemoteControl(ctx context.Context, req remotecontrol.Request) (remotecontrol.Response, error) {
	listener := c.Unsolicited()
	defer listener.Close()

	rid := c.requestID()
	data, err := req.Encode()
	if err != nil {
		return remotecontrol.Response{}, err
	}
	topic := fmt.Sprintf("/applink/%s/remotectrl/request/%s", c.company, rid)

	if err := c.publish(ctx, topic, data); err != nil {
		return remotecontrol.Response{}, SendBackendDeadError{}
	}

	for {
		select {
		case ev, ok := <-listener.C():
			if !ok {
				return remotecontrol.Response{}, ReceiveBackendDeadError{}
			}
			if ev.Kind == RemoteControlEvent && ev.RemoteControl.Meta.Rid == rid {
				return *ev.RemoteControl, nil
			}
		case <-ctx.Done():
			return remotecontrol.Response{}, ctx.Err()
		}
	}
}

// RealTimeWizziMacro starts a macro run and returns a channel of its
// response stream. The channel is closed after a terminal status (End or
// Err) or when ctx is cancelled; the forwarder goroutine filters the
// dispatcher's unsolicited feed down to this run's correlation id.
func (c *Client) RealTimeWizziMacro(ctx context.Context, req macro.Request) (<-chan macro.Response, error) {
	listener := c.Unsolicited()

	rid := c.requestID()
	data, err := req.Encode()
	if err != nil {
		listener.Close()
		return nil, err
	}
	topic := fmt.Sprintf("/applink/%s/macro/request/%s", c.company, rid)

	if err := c.publish(ctx, topic, data); err != nil {
		listener.Close()
		return nil, SendBackendDeadError{}
	}

	out := make(chan macro.Response, 1)
	go func() {
		defer close(out)
		defer listener.Close()
		for {
			select {
			case ev, ok := <-listener.C():
				if !ok {
					return
				}
				if ev.Kind != MacroEvent || ev.Macro.Meta.Rid != rid {
					continue
				}
				resp := *ev.Macro
				select {
				case out <- resp:
				case <-ctx.Done():
					return
				}
				if resp.Msg.Terminal() {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// RawWizziMacro runs a macro to completion and returns every response
// frame observed. It surfaces a Dash7boardError iff the stream contained a
// Status{Err} frame, with Trace holding the full transcript.
func (c *Client) RawWizziMacro(ctx context.Context, req macro.Request) ([]macro.Response, error) {
	stream, err := c.RealTimeWizziMacro(ctx, req)
	if err != nil {
		return nil, err
	}

	var out []macro.Response
	var macroErr *string
	for resp := range stream {
		if resp.Msg.Kind == macro.StatusMessage && resp.Msg.Status == macro.Err {
			err := resp.Msg.Err
			macroErr = &err
		}
		out = append(out, resp)
	}

	if macroErr != nil {
		return out, Dash7boardError{Msg: *macroErr, Trace: out}
	}
	return out, nil
}

// DeviceOutcome is one device's result from a WizziMacro run.
type DeviceOutcome struct {
	Ok  bool
	Err string
}

// WizziMacro runs a macro to completion and reduces the transcript to a
// per-device outcome map, derived from the DstatusOk/DstatusError frames.
func (c *Client) WizziMacro(ctx context.Context, req macro.Request) (map[string]DeviceOutcome, error) {
	responses, err := c.RawWizziMacro(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(map[string]DeviceOutcome, len(responses))
	for _, resp := range responses {
		switch resp.Msg.Kind {
		case macro.DstatusOkMessage:
			out[resp.Msg.Uid] = DeviceOutcome{Ok: true}
		case macro.DstatusErrorMessage:
			out[resp.Msg.Uid] = DeviceOutcome{Ok: false, Err: resp.Msg.DstatErr}
		}
	}
	return out, nil
}
