package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"gitlab.com/NebulousLabs/errors"
	connmonitor "gitlab.com/NebulousLabs/monitor"
	"gitlab.com/NebulousLabs/ratelimit"
)

// dialTimeout bounds how long Dial will wait for the TCP handshake before
// giving up.
const dialTimeout = 15 * time.Second

// roundTripDeadline bounds a single request/response round trip.
const roundTripDeadline = 30 * time.Second

// frame is the on-the-wire envelope for one request or response. The exact
// payload encoding is out of scope for this library (spec.md §1); JSON lines
// are used here as a concrete, inspectable stand-in for BOINC's XML framing.
type frame struct {
	Command string          `json:"command"`
	Status  Status          `json:"status"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Connection is a single text-framed TCP connection to one daemon. It is not
// safe for concurrent use; callers (the woincui.Client façade) must serialize
// access to it themselves.
type Connection struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer

	monitor *connmonitor.Monitor
}

// Dial opens a TCP connection to addr:port, wrapping the raw socket with
// bandwidth monitoring and an (unlimited by default) rate limiter, mirroring
// the dial path built in skymodules/gateway's staticDial.
func Dial(addr string, port uint16, cancel <-chan struct{}) (*Connection, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}
	ctx, stopDial := context.WithCancel(context.Background())
	defer stopDial()
	go func() {
		select {
		case <-cancel:
			stopDial()
		case <-ctx.Done():
		}
	}()
	raw, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", addr, port))
	if err != nil {
		return nil, errors.AddContext(err, "could not dial host")
	}

	m := connmonitor.NewMonitor()
	monitored := connmonitor.NewMonitoredConn(raw, m)

	rl := ratelimit.NewRateLimit(0, 0, 0) // unlimited: transport shaping only, never applied against a real cap by default
	limited := ratelimit.NewRLConn(monitored, rl, cancel)

	return &Connection{
		conn:    limited,
		reader:  bufio.NewReader(limited),
		writer:  bufio.NewWriter(limited),
		monitor: m,
	}, nil
}

// Close closes the underlying socket. Idempotent from the caller's
// perspective in that a second Close only surfaces a "already closed" style
// net error, which callers of Disconnect ignore.
func (c *Connection) Close() error {
	return c.conn.Close()
}

// BandwidthCounts reports cumulative bytes read/written on this connection.
func (c *Connection) BandwidthCounts() (read, written uint64) {
	return c.monitor.Counts()
}

// RoundTrip writes one request frame carrying req and blocks for the
// matching response frame, decoding it into resp. An encoding or decoding
// failure is reported as StatusParsingError; a failed write or read on the
// socket is reported as StatusConnectionError; a non-OK status carried in
// the response frame is returned as is.
func (c *Connection) RoundTrip(name string, req, resp interface{}) Status {
	c.conn.SetDeadline(time.Now().Add(roundTripDeadline))
	defer c.conn.SetDeadline(time.Time{})

	payload, err := json.Marshal(req)
	if err != nil {
		return StatusParsingError
	}

	out, err := json.Marshal(frame{Command: name, Payload: payload})
	if err != nil {
		return StatusParsingError
	}
	if _, err := c.writer.Write(append(out, '\n')); err != nil {
		return StatusConnectionError
	}
	if err := c.writer.Flush(); err != nil {
		return StatusConnectionError
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return StatusConnectionError
	}

	var in frame
	if err := json.Unmarshal(line, &in); err != nil {
		return StatusParsingError
	}
	if in.Status != StatusOK {
		return in.Status
	}
	if len(in.Payload) > 0 {
		if err := json.Unmarshal(in.Payload, resp); err != nil {
			return StatusParsingError
		}
	}
	return StatusOK
}
