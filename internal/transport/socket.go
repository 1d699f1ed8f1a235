// Package transport is the raw UDP datagram boundary: a non-blocking
// send/recv pair with no delivery, ordering, or duplication guarantees
// (spec.md §4.1) — everything above this layer (internal/channel,
// internal/session) is responsible for reliability. Grounded on
// source/server/server.go's bind-and-read-loop shape, adapted from a
// blocking accept loop into a goroutine feeding a bounded channel so the
// update loop can drain it to empty once per tick without blocking
// (spec.md §5).
package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/deceiver-net/deceiver-net/internal/wire"
)

// inboundQueueSize bounds how many undelivered datagrams the receive
// goroutine will buffer before dropping the newest arrival — a slow
// update loop sheds load rather than blocking the OS socket read.
const inboundQueueSize = 1024

// Datagram is one received UDP packet, not yet opened or validated.
type Datagram struct {
	Addr *net.UDPAddr
	Data []byte
}

// Socket owns one bound UDP endpoint. Send is safe to call concurrently
// with the receive goroutine; Drain is intended to be called once per
// tick from the single update-loop goroutine.
type Socket struct {
	conn  *net.UDPConn
	inbox chan Datagram
}

// Listen binds addr (e.g. ":7777" for a server, ":0" for a client's
// ephemeral local port).
func Listen(addr string) (*Socket, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %q: %w", addr, err)
	}
	return &Socket{conn: conn, inbox: make(chan Datagram, inboundQueueSize)}, nil
}

// Run reads datagrams until ctx is cancelled, at which point it closes
// the underlying socket (unblocking the pending ReadFromUDP) and
// returns. Intended to run on its own goroutine.
func (s *Socket) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	buf := make([]byte, wire.MaxPacketSize)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case s.inbox <- Datagram{Addr: addr, Data: data}:
		default:
			// Inbox full: drop rather than block the read loop. The
			// sender's reliability layer will resend.
		}
	}
}

// Drain returns every datagram queued since the last call, non-blocking.
func (s *Socket) Drain() []Datagram {
	out := make([]Datagram, 0, len(s.inbox))
	for {
		select {
		case d := <-s.inbox:
			out = append(out, d)
		default:
			return out
		}
	}
}

func (s *Socket) Send(addr *net.UDPAddr, data []byte) error {
	_, err := s.conn.WriteToUDP(data, addr)
	if err != nil {
		return fmt.Errorf("transport: send to %s: %w", addr, err)
	}
	return nil
}

func (s *Socket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

func (s *Socket) Close() error { return s.conn.Close() }

// AddrEqual reports whether two UDP addresses refer to the same peer —
// spec.md §4.1's address_equals.
func AddrEqual(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.IP.Equal(b.IP) && a.Port == b.Port
}
