package woincui

import (
	"sync"

	"gitlab.com/NebulousLabs/fastrand"

	"gitlab.com/NebulousLabs/woincui/rpc"
)

// fakeClient is an in-memory Client double for deterministic worker and
// scheduler tests, in the fault-injection style of the teacher's
// siatest/dependencies test doubles: a handful of toggles a test flips
// before exercising the controller, rather than a mocking framework.
type fakeClient struct {
	host string

	mu          sync.Mutex
	connected   bool
	password    string
	authorized  bool
	execCount   int
	executeFunc func(cmd rpc.Command) rpc.Status

	connectErr error

	// bytesRead/bytesWritten stand in for connmonitor's cumulative counters.
	// Randomized at construction (fastrand.Intn, as in workerjobupdateregistry_
	// test.go's randomized fixture data) so BandwidthStats tests can't
	// accidentally pass against a hard-coded zero value.
	bytesRead    uint64
	bytesWritten uint64
}

func newFakeClient(host string) *fakeClient {
	return &fakeClient{
		host:         host,
		bytesRead:    uint64(fastrand.Intn(1 << 20)),
		bytesWritten: uint64(fastrand.Intn(1 << 20)),
	}
}

func (c *fakeClient) Connect(addr string, port uint16, cancel <-chan struct{}) error {
	if c.connectErr != nil {
		return c.connectErr
	}
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return nil
}

func (c *fakeClient) Execute(cmd rpc.Command) rpc.Status {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return rpc.StatusDisconnected
	}

	if authCmd, ok := cmd.(*rpc.AuthorizeCommand); ok {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.execCount++
		if authCmd.Request.Password != c.password {
			return rpc.StatusUnauthorized
		}
		c.authorized = true
		return rpc.StatusOK
	}

	c.mu.Lock()
	c.execCount++
	fn := c.executeFunc
	c.mu.Unlock()

	if fn != nil {
		return fn(cmd)
	}
	return rpc.StatusOK
}

func (c *fakeClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

func (c *fakeClient) Host() string {
	return c.host
}

func (c *fakeClient) BandwidthCounts() (read, written uint64) {
	return c.bytesRead, c.bytesWritten
}

func (c *fakeClient) executions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.execCount
}
