package transport

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

// fakeInstrument answers newline-framed SCPI on a local listener.
func fakeInstrument(t *testing.T) (addr string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				r := bufio.NewReader(c)
				for {
					line, err := r.ReadString('\n')
					if err != nil {
						return
					}
					cmd := strings.TrimSpace(line)
					switch {
					case cmd == "*IDN?":
						_, _ = c.Write([]byte("Acme,MODEL1,SN42,0.1\n"))
					case cmd == ":TRIGger:STATus?":
						_, _ = c.Write([]byte("Ready\n"))
					case strings.Contains(cmd, "?"):
						_, _ = c.Write([]byte("0\n"))
					}
				}
			}(conn)
		}
	}()

	return ln.Addr().String()
}

func TestTCPTransport(t *testing.T) {
	addr := fakeInstrument(t)
	tp := NewTCP(DefaultTCPConfig())
	defer tp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("Identify", func(t *testing.T) {
		idn, err := tp.Identify(ctx, addr)
		if err != nil {
			t.Fatalf("Identify failed: %v", err)
		}
		if idn != "Acme,MODEL1,SN42,0.1" {
			t.Errorf("idn = %q", idn)
		}
	})

	t.Run("WriteOnlyCommand", func(t *testing.T) {
		response, err := tp.SendCommand(ctx, addr, "*RST")
		if err != nil {
			t.Fatalf("SendCommand failed: %v", err)
		}
		if response != "" {
			t.Errorf("write-only command returned %q", response)
		}
	})

	t.Run("PollTriggerStatus", func(t *testing.T) {
		status, err := tp.PollTriggerStatus(ctx, addr)
		if err != nil {
			t.Fatalf("PollTriggerStatus failed: %v", err)
		}
		if !status.Armed || status.DataReady {
			t.Errorf("status = %+v, want armed", status)
		}
	})

	t.Run("ConnectionReuse", func(t *testing.T) {
		// Multiple commands share one connection per address.
		for i := 0; i < 3; i++ {
			if _, err := tp.SendCommand(ctx, addr, "*IDN?"); err != nil {
				t.Fatalf("command %d failed: %v", i, err)
			}
		}
		tp.mu.Lock()
		n := len(tp.conns)
		tp.mu.Unlock()
		if n != 1 {
			t.Errorf("open connections = %d, want 1", n)
		}
	})

	t.Run("SchemeAddress", func(t *testing.T) {
		// Aliases and discovery hand out tcp://host:port addresses.
		idn, err := tp.Identify(ctx, "tcp://"+addr)
		if err != nil {
			t.Fatalf("Identify failed: %v", err)
		}
		if idn != "Acme,MODEL1,SN42,0.1" {
			t.Errorf("idn = %q", idn)
		}
	})

	t.Run("UnknownScheme", func(t *testing.T) {
		if _, err := tp.SendCommand(ctx, "visa://GPIB0::7::INSTR", "*IDN?"); err == nil {
			t.Error("expected error for non-TCP scheme")
		}
	})

	t.Run("DialFailure", func(t *testing.T) {
		// A freshly closed local port refuses connections without
		// touching the network.
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		closedAddr := ln.Addr().String()
		_ = ln.Close()

		if _, err := tp.SendCommand(ctx, closedAddr, "*IDN?"); err == nil {
			t.Error("expected dial error for closed port")
		}
	})
}

func TestDialTarget(t *testing.T) {
	cases := []struct {
		address string
		want    string
		wantErr bool
	}{
		{"tcp://10.0.0.17:5025", "10.0.0.17:5025", false},
		{"10.0.0.17:5025", "10.0.0.17:5025", false},
		{"tcp://scope.local:5025", "scope.local:5025", false},
		{"visa://GPIB0::7::INSTR", "", true},
		{"usb://0x1ab1", "", true},
	}
	for _, tc := range cases {
		got, err := dialTarget(tc.address)
		if tc.wantErr {
			if err == nil {
				t.Errorf("dialTarget(%q): expected error", tc.address)
			}
			continue
		}
		if err != nil {
			t.Errorf("dialTarget(%q): %v", tc.address, err)
			continue
		}
		if got != tc.want {
			t.Errorf("dialTarget(%q) = %q, want %q", tc.address, got, tc.want)
		}
	}
}
