// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// httpTransport performs one POST per call. It keeps no state besides the
// endpoint, so Open and Close only matter when a health check is set.
type httpTransport struct {
	endpoint     string
	client       *http.Client
	codec        Codec
	header       http.Header
	healthMethod string
	log          *zap.Logger
}

func newHTTPTransport(endpoint *url.URL, o *options) (Transport, error) {
	client := o.httpClient
	if client == nil {
		client = newHTTPClient()
	}
	header := o.header.Clone()
	header.Set("Content-Type", "application/json")
	if o.token != "" {
		header.Set("Authorization", "Bearer "+o.token)
	}
	return &httpTransport{
		endpoint:     endpoint.String(),
		client:       client,
		codec:        o.codec,
		header:       header,
		healthMethod: o.healthMethod,
		log:          o.logger.With(zap.String("transport", "http")),
	}, nil
}

// newHTTPClient creates the default client. Timeouts are left to the
// caller's context.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
}

// CleanlyCloseBody drains and closes an HTTP response body to prevent
// HTTP/2 GOAWAY errors caused by closing bodies with unread data.
// See: https://github.com/golang/go/issues/46071
func CleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	// Drain any remaining data to allow connection reuse
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

func (t *httpTransport) Open(ctx context.Context, _ Sink) error {
	if t.healthMethod == "" {
		return nil
	}
	_, err := t.Send(ctx, newRequest(0, t.healthMethod, nil))
	if err != nil {
		return fmt.Errorf("health check %s: %w", t.healthMethod, err)
	}
	return nil
}

func (t *httpTransport) Duplex() bool { return false }

func (t *httpTransport) Close() error { return nil }

func (t *httpTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	body, err := t.codec.Encode(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header = t.header.Clone()

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "post", Err: err}
	}
	defer CleanlyCloseBody(resp.Body)

	// Return an error for any non successful status code
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProtocolError{Msg: fmt.Sprintf("received status code: %d", resp.StatusCode)}
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read", Err: err}
	}
	var reply frame
	if err := t.codec.Decode(body, &reply); err != nil {
		t.log.Debug("undecodable reply", zap.String("method", req.Method), zap.Error(err))
		return nil, &ProtocolError{Msg: "failed to decode client response", Err: err}
	}
	return reply.reply(req.ID)
}
