// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Version is the JSON-RPC protocol version carried by every request.
const Version = "2.0"

// Request is an outbound call envelope. It is built once by Exec and never
// mutated afterwards.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

func newRequest(id uint64, method string, params []interface{}) *Request {
	if params == nil {
		params = []interface{}{}
	}
	return &Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// ResponseError is the error member of a JSON-RPC reply.
type ResponseError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ResponseError) remote() *RemoteError {
	re := &RemoteError{Code: e.Code, Message: e.Message}
	if len(e.Data) > 0 {
		var data interface{}
		if err := json.Unmarshal(e.Data, &data); err == nil {
			re.Data = data
		}
	}
	return re
}

// Response is a reply correlated to a Request by ID. Exactly one of Result
// and Error is meaningful; a reply whose result is JSON null carries the
// literal "null" in Result.
type Response struct {
	ID     uint64
	Result json.RawMessage
	Error  *ResponseError
}

// outcome converts the reply to what the waiting Call settles with.
func (r *Response) outcome() (json.RawMessage, error) {
	if r.Error != nil {
		return nil, r.Error.remote()
	}
	return r.Result, nil
}

// Notification is a server-initiated message without an id, such as the
// xrpc.ch.val values that feed subscriptions.
type Notification struct {
	Method string
	Params json.RawMessage
}

// frame is the union of everything that may arrive on a duplex transport.
type frame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// reply turns a frame received for the call with the given id into its
// Response. Request/response transports know the id from the request, so
// the frame's own id is not consulted.
func (f *frame) reply(id uint64) (*Response, error) {
	if f.Error == nil && len(f.Result) == 0 {
		return nil, &ProtocolError{Msg: "reply has neither result nor error"}
	}
	return &Response{ID: id, Result: f.Result, Error: f.Error}, nil
}

var jsonNull = []byte("null")

// parseFrame classifies an inbound frame. It returns either a response or a
// notification, or a ProtocolError when the frame is neither.
func parseFrame(codec Codec, data []byte) (*Response, *Notification, error) {
	var f frame
	if err := codec.Decode(data, &f); err != nil {
		return nil, nil, &ProtocolError{Msg: "decode frame", Err: err}
	}

	hasID := len(f.ID) > 0 && !bytes.Equal(f.ID, jsonNull)
	if !hasID {
		if f.Method == "" {
			return nil, nil, &ProtocolError{Msg: "frame has neither id nor method"}
		}
		return nil, &Notification{Method: f.Method, Params: f.Params}, nil
	}

	id, err := parseID(f.ID)
	if err != nil {
		return nil, nil, err
	}
	if f.Error == nil && len(f.Result) == 0 {
		return nil, nil, &ProtocolError{Msg: fmt.Sprintf("reply %d has neither result nor error", id)}
	}
	return &Response{ID: id, Result: f.Result, Error: f.Error}, nil, nil
}

// parseID accepts numeric ids and numeric ids echoed back as strings.
func parseID(raw json.RawMessage) (uint64, error) {
	s := string(bytes.Trim(raw, `"`))
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &ProtocolError{Msg: "reply id " + string(raw), Err: err}
	}
	return id, nil
}
