package woincui

import (
	"gitlab.com/NebulousLabs/woincui/rpc"
)

// Client is the per-host RPC façade a HostController drives from its worker
// goroutine. It is not safe for concurrent use; callers serialize access to
// a single Client the same way a worker goroutine owns its Connection
// exclusively (original_source/libui/src/client.h/.cc).
type Client interface {
	// Connect dials the daemon. cancel, if closed, aborts an in-flight dial.
	Connect(addr string, port uint16, cancel <-chan struct{}) error

	// Execute runs cmd against the daemon and returns its outcome. Called on
	// a disconnected Client, it returns rpc.StatusDisconnected without
	// touching any socket (matches the original's guard in Client::execute).
	Execute(cmd rpc.Command) rpc.Status

	// Disconnect closes the connection, if any. Safe to call on an already
	// disconnected Client.
	Disconnect()

	// Host returns the host identifier this Client was constructed for.
	Host() string

	// BandwidthCounts reports cumulative bytes read/written, or (0, 0) if
	// never connected.
	BandwidthCounts() (read, written uint64)
}

// tcpClient is the concrete Client backing production HostControllers.
type tcpClient struct {
	host string
	conn *rpc.Connection
}

// newTCPClient constructs a disconnected Client for host.
func newTCPClient(host string) *tcpClient {
	return &tcpClient{host: host}
}

func (c *tcpClient) Connect(addr string, port uint16, cancel <-chan struct{}) error {
	conn, err := rpc.Dial(addr, port, cancel)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *tcpClient) Execute(cmd rpc.Command) rpc.Status {
	if c.conn == nil {
		return rpc.StatusDisconnected
	}
	return cmd.Execute(c.conn)
}

func (c *tcpClient) Disconnect() {
	if c.conn == nil {
		return
	}
	c.conn.Close()
	c.conn = nil
}

func (c *tcpClient) Host() string {
	return c.host
}

func (c *tcpClient) BandwidthCounts() (read, written uint64) {
	if c.conn == nil {
		return 0, 0
	}
	return c.conn.BandwidthCounts()
}
