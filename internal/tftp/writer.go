package tftp

import (
	"context"
	"errors"
	"io"
	"os"
)

// Put uploads localFilename to the server at serverIP:serverPort, naming it
// remoteFilename (spec.md §4.4). Empty files and files whose length is an
// exact multiple of 512 bytes both end with a final zero-length DATA block,
// which the server must ACK before the upload is reported successful.
func Put(ctx context.Context, serverIP string, serverPort int, localFilename, remoteFilename string, opts Options, logger Logger) error {
	logger = orNopLogger(logger)
	opts = opts.withDefaults()

	in, err := os.Open(localFilename)
	if err != nil {
		return &TransportError{Kind: Io, Err: err}
	}
	defer in.Close()

	sess, err := Open(serverIP, serverPort)
	if err != nil {
		return err
	}
	defer sess.Close()

	wrq := WRQPacket{Filename: remoteFilename, Mode: ModeOctet}
	if err := sess.Send(wrq); err != nil {
		return err
	}
	logger.Info("WRQ sent: file=%s server=%s:%d", remoteFilename, serverIP, serverPort)

	// Step 1: wait for ACK{0} and lock the peer TID.
	retries := 0
	var lastSent Packet = wrq
	for {
		pkt, addr, err := sess.Receive(ctx, opts.InactivityTimeout)
		if err != nil {
			if ctx != nil && ctx.Err() != nil {
				sess.Send(ErrorPacket{Code: ErrNotDefined, Message: "Cancelled"})
				return ctx.Err()
			}
			if te, ok := err.(*TransportError); ok && te.Kind == Timeout {
				retries++
				if retries > opts.MaxRetries {
					return te
				}
				logger.Warn("timeout waiting for ACK 0, retry %d/%d", retries, opts.MaxRetries)
				if err := sess.Send(lastSent); err != nil {
					return err
				}
				continue
			}
			return err
		}

		switch p := pkt.(type) {
		case AckPacket:
			if p.BlockNumber != 0 {
				sess.Send(ErrorPacket{Code: ErrIllegalOperation, Message: DefaultMessage(ErrIllegalOperation)})
				return &ProtocolError{Kind: UnexpectedBlock, Msg: "expected ACK 0 as write-request acknowledgement"}
			}
			sess.LockPeerTID(addr)
			logger.Debug("locked peer TID to %s", addr)
		case ErrorPacket:
			return &ServerError{Code: p.Code, Message: p.Message}
		default:
			sess.Send(ErrorPacket{Code: ErrIllegalOperation, Message: DefaultMessage(ErrIllegalOperation)})
			return &ProtocolError{Kind: InvalidOpcode, Msg: "unexpected opcode awaiting ACK 0"}
		}
		break
	}

	// Step 2+: stream the file in 512-byte blocks.
	buf := make([]byte, MaxDataLen)
	var n uint16 = 0
	for {
		n++
		count, readErr := readFull(in, buf)
		if readErr != nil {
			return &TransportError{Kind: Io, Err: readErr}
		}

		data := DataPacket{BlockNumber: n, Payload: append([]byte(nil), buf[:count]...)}
		if err := sess.Send(data); err != nil {
			return err
		}
		lastSent = data
		logger.Debug("sent DATA block=%d (%d bytes)", n, count)

		retries = 0
		for {
			pkt, _, err := sess.Receive(ctx, opts.InactivityTimeout)
			if err != nil {
				if ctx != nil && ctx.Err() != nil {
					sess.Send(ErrorPacket{Code: ErrNotDefined, Message: "Cancelled"})
					return ctx.Err()
				}
				if te, ok := err.(*TransportError); ok && te.Kind == Timeout {
					retries++
					if retries > opts.MaxRetries {
						return te
					}
					logger.Warn("timeout waiting for ACK %d, retry %d/%d", n, retries, opts.MaxRetries)
					if err := sess.Send(lastSent); err != nil {
						return err
					}
					continue
				}
				return err
			}

			switch p := pkt.(type) {
			case AckPacket:
				switch {
				case p.BlockNumber == n:
					// advance to the next block
				case blockPrecedes(p.BlockNumber, n):
					// stale duplicate ACK of an earlier block: keep waiting
					// without resetting the retry counter.
					logger.Debug("stale duplicate ACK %d while awaiting %d", p.BlockNumber, n)
					continue
				default:
					sess.Send(ErrorPacket{Code: ErrIllegalOperation, Message: DefaultMessage(ErrIllegalOperation)})
					return &ProtocolError{Kind: UnexpectedBlock, Msg: "ACK ahead of last sent block"}
				}
			case ErrorPacket:
				return &ServerError{Code: p.Code, Message: p.Message}
			default:
				sess.Send(ErrorPacket{Code: ErrIllegalOperation, Message: DefaultMessage(ErrIllegalOperation)})
				return &ProtocolError{Kind: InvalidOpcode, Msg: "unexpected opcode mid-transfer"}
			}
			break
		}

		if count < MaxDataLen {
			logger.Info("upload complete: %s", localFilename)
			return nil
		}
	}
}

// readFull reads up to len(buf) bytes from r, returning fewer only at EOF
// (unlike io.ReadFull, reaching EOF immediately is not an error: it is how
// the final, possibly empty, DATA block is produced).
func readFull(r io.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			return total, nil
		}
	}
	return total, nil
}
