package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"
)

// ClientTimeout bounds the whole request/response exchange from the
// client side; a stuck daemon is reported, not waited on.
const ClientTimeout = 5 * time.Second

// Client sends single requests to a running daemon.
type Client struct {
	endpoint string
	timeout  time.Duration
}

// NewClient returns a client for the endpoint. A zero timeout uses
// ClientTimeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = ClientTimeout
	}
	return &Client{endpoint: endpoint, timeout: timeout}
}

// Send performs one request/response exchange.
func (c *Client) Send(req Request) (Response, error) {
	deadline := time.Now().Add(c.timeout)

	conn, err := dial(c.endpoint, c.timeout)
	if err != nil {
		return Response{}, fmt.Errorf("connect to daemon: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(deadline)

	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}

	line, err := bufio.NewReaderSize(conn, maxLineBytes).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}
