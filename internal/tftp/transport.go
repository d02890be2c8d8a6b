package tftp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

const maxDatagramSize = 4 + MaxDataLen

// Session manages a single UDP socket bound to an ephemeral local port for
// one transfer, enforcing the single-TID invariant (spec.md §4.2): once the
// peer's transfer identifier is locked, any datagram from another source is
// discarded and answered with ERROR{UnknownTID}.
type Session struct {
	conn   *net.UDPConn
	peer   *net.UDPAddr
	locked bool
}

// Open binds an ephemeral UDP port on the local host and records the
// initial peer as (serverIP, serverPort). serverPort is normally 69 (the
// well-known request port); the peer address is replaced by LockPeerTID
// once the server's reply reveals its own TID.
func Open(serverIP string, serverPort int) (*Session, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, &TransportError{Kind: Io, Err: err}
	}

	peer, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", serverIP, serverPort))
	if err != nil {
		conn.Close()
		return nil, &TransportError{Kind: Io, Err: err}
	}

	return &Session{conn: conn, peer: peer}, nil
}

// Send encodes and transmits p to the session's current peer.
func (s *Session) Send(p Packet) error {
	b, err := Encode(p)
	if err != nil {
		return err
	}
	if _, err := s.conn.WriteToUDP(b, s.peer); err != nil {
		return &TransportError{Kind: Io, Err: err}
	}
	return nil
}

// Receive waits up to timeout for a datagram from the current (or, before
// locking, any) source. Stray datagrams arriving after the peer TID has
// been locked are discarded and answered with ERROR{UnknownTID} without
// consuming the caller's timeout budget on their own — the deadline still
// governs the call as a whole.
//
// ctx, if non-nil, additionally unblocks Receive early with ctx.Err() when
// cancelled — this is how a caller interrupts an in-flight transfer
// (spec.md §5 "Cancellation").
func (s *Session) Receive(ctx context.Context, timeout time.Duration) (Packet, *net.UDPAddr, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, maxDatagramSize)

	s.conn.SetReadDeadline(deadline)
	if ctx != nil {
		// Pull the read deadline in to now on cancellation so a blocked
		// ReadFromUDP returns at once.
		stop := context.AfterFunc(ctx, func() { s.conn.SetReadDeadline(time.Now()) })
		defer stop()
	}

	for {
		if time.Until(deadline) <= 0 {
			return nil, nil, &TransportError{Kind: Timeout}
		}
		if ctx != nil {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			default:
			}
		}

		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx != nil && ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, nil, &TransportError{Kind: Timeout}
			}
			return nil, nil, &TransportError{Kind: Io, Err: err}
		}

		if s.locked && !sameHostPort(addr, s.peer) {
			s.sendErrorTo(addr, ErrUnknownTransferID, DefaultMessage(ErrUnknownTransferID))
			continue
		}

		pkt, err := Decode(buf[:n])
		if err != nil {
			return nil, addr, err
		}
		return pkt, addr, nil
	}
}

// LockPeerTID overwrites the peer address to the server's chosen transfer
// identifier, as observed in its first reply. Subsequent Receive calls
// enforce that every future datagram comes from exactly this address.
func (s *Session) LockPeerTID(peer *net.UDPAddr) {
	s.peer = peer
	s.locked = true
}

// Close releases the underlying socket.
func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) sendErrorTo(addr *net.UDPAddr, code ErrorCode, msg string) {
	b, err := Encode(ErrorPacket{Code: code, Message: msg})
	if err != nil {
		return
	}
	s.conn.WriteToUDP(b, addr)
}

func sameHostPort(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return false
	}
	return a.IP.Equal(b.IP) && a.Port == b.Port
}
