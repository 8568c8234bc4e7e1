package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// TCP transport constants.
const (
	// DefaultDialTimeout is the default TCP connect timeout.
	DefaultDialTimeout = 5 * time.Second

	// DefaultIOTimeout is the default per-round-trip read/write timeout.
	DefaultIOTimeout = 10 * time.Second

	// DefaultTriggerStatusQuery is the query used to poll acquisition
	// status on instruments that follow the common TRIGger:STATus
	// convention.
	DefaultTriggerStatusQuery = ":TRIGger:STATus?"
)

// TCPConfig configures the TCP transport.
type TCPConfig struct {
	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration

	// IOTimeout bounds each command round trip when the context carries
	// no deadline.
	IOTimeout time.Duration

	// TriggerStatusQuery is the SCPI query used by PollTriggerStatus.
	TriggerStatusQuery string
}

// DefaultTCPConfig returns the default TCP transport configuration.
func DefaultTCPConfig() TCPConfig {
	return TCPConfig{
		DialTimeout:        DefaultDialTimeout,
		IOTimeout:          DefaultIOTimeout,
		TriggerStatusQuery: DefaultTriggerStatusQuery,
	}
}

// TCPTransport talks newline-framed SCPI over raw TCP sockets, one
// connection per bus address (the scpi-raw convention, port 5025).
// It is safe for concurrent use across addresses; round trips to the same
// address are serialized.
type TCPTransport struct {
	config TCPConfig

	mu    sync.Mutex
	conns map[string]*tcpConn
}

type tcpConn struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// NewTCP creates a TCP SCPI transport.
func NewTCP(config TCPConfig) *TCPTransport {
	if config.DialTimeout == 0 {
		config.DialTimeout = DefaultDialTimeout
	}
	if config.IOTimeout == 0 {
		config.IOTimeout = DefaultIOTimeout
	}
	if config.TriggerStatusQuery == "" {
		config.TriggerStatusQuery = DefaultTriggerStatusQuery
	}
	return &TCPTransport{
		config: config,
		conns:  make(map[string]*tcpConn),
	}
}

// Identify queries *IDN? on the instrument at address.
func (t *TCPTransport) Identify(ctx context.Context, address string) (string, error) {
	return t.SendCommand(ctx, address, "*IDN?")
}

// SendCommand sends one newline-terminated command. Commands containing a
// "?" are queries and read one response line; others return an empty
// string.
func (t *TCPTransport) SendCommand(ctx context.Context, address, command string) (string, error) {
	c, err := t.conn(ctx, address)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(t.config.IOTimeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		t.drop(address)
		return "", fmt.Errorf("set deadline for %s: %w", address, err)
	}

	if _, err := c.conn.Write([]byte(command + "\n")); err != nil {
		t.drop(address)
		return "", fmt.Errorf("write to %s: %w", address, err)
	}

	if !strings.Contains(command, "?") {
		return "", nil
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		t.drop(address)
		return "", fmt.Errorf("read from %s: %w", address, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PollTriggerStatus queries the configured trigger-status command and maps
// the conventional status words: Arm/Ready/Auto/Normal mean armed,
// Trig'd/Stop mean a capture is buffered.
func (t *TCPTransport) PollTriggerStatus(ctx context.Context, address string) (TriggerStatus, error) {
	response, err := t.SendCommand(ctx, address, t.config.TriggerStatusQuery)
	if err != nil {
		return TriggerStatus{}, err
	}
	return ParseTriggerStatus(response), nil
}

// ParseTriggerStatus maps a TRIGger:STATus? response word to a
// TriggerStatus.
func ParseTriggerStatus(word string) TriggerStatus {
	switch strings.ToUpper(strings.TrimSpace(word)) {
	case "ARM", "READY", "AUTO", "NORMAL":
		return TriggerStatus{Armed: true}
	case "TRIG'D", "TRIGD", "STOP":
		return TriggerStatus{DataReady: true}
	default:
		return TriggerStatus{}
	}
}

// Close closes all open connections. The transport is unusable afterwards
// for the closed addresses; new commands re-dial.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	for address, c := range t.conns {
		if err := c.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(t.conns, address)
	}
	return firstErr
}

// conn returns the open connection for address, dialing if needed.
func (t *TCPTransport) conn(ctx context.Context, address string) (*tcpConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.conns[address]; ok {
		return c, nil
	}

	target, err := dialTarget(address)
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: t.config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}

	c := &tcpConn{conn: conn, reader: bufio.NewReader(conn)}
	t.conns[address] = c
	return c, nil
}

// dialTarget maps a bus address to the host:port net.Dial expects.
// Addresses carry the tcp:// scheme throughout the repo (aliases,
// discovery, examples); a bare host:port is accepted too. Any other
// scheme belongs to a different transport.
func dialTarget(address string) (string, error) {
	if target, ok := strings.CutPrefix(address, "tcp://"); ok {
		return target, nil
	}
	if strings.Contains(address, "://") {
		return "", fmt.Errorf("address %s: scheme not supported by the TCP transport", address)
	}
	return address, nil
}

// drop discards a connection after an I/O failure so the next command
// re-dials.
func (t *TCPTransport) drop(address string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.conns[address]; ok {
		_ = c.conn.Close()
		delete(t.conns, address)
	}
}

// Compile-time interface satisfaction check.
var _ Transport = (*TCPTransport)(nil)
