package tftp

import (
	"context"
	"os"
)

// Get downloads remoteFilename from the server at serverIP:serverPort,
// writing it to localFilename as an octet-mode binary file (spec.md §4.3).
// An existing localFilename is overwritten.
func Get(ctx context.Context, serverIP string, serverPort int, remoteFilename, localFilename string, opts Options, logger Logger) error {
	logger = orNopLogger(logger)
	opts = opts.withDefaults()

	out, err := os.Create(localFilename)
	if err != nil {
		return &TransportError{Kind: Io, Err: err}
	}
	closed := false
	defer func() {
		if !closed {
			out.Close()
		}
	}()

	sess, err := Open(serverIP, serverPort)
	if err != nil {
		return err
	}
	defer sess.Close()

	rrq := RRQPacket{Filename: remoteFilename, Mode: ModeOctet}
	if err := sess.Send(rrq); err != nil {
		return err
	}
	logger.Info("RRQ sent: file=%s server=%s:%d", remoteFilename, serverIP, serverPort)

	var (
		expected uint16 = 1
		retries         = 0
		lastSent Packet = rrq
	)

	for {
		pkt, addr, err := sess.Receive(ctx, opts.InactivityTimeout)
		if err != nil {
			if ctx != nil && ctx.Err() != nil {
				sess.Send(ErrorPacket{Code: ErrNotDefined, Message: "Cancelled"})
				return ctx.Err()
			}
			if codecErr, ok := err.(*CodecError); ok {
				sess.Send(ErrorPacket{Code: ErrIllegalOperation, Message: DefaultMessage(ErrIllegalOperation)})
				return codecErr
			}
			var transportErr *TransportError
			if isTransportTimeout(err, &transportErr) {
				retries++
				if retries > opts.MaxRetries {
					return transportErr
				}
				logger.Warn("timeout waiting for DATA, retry %d/%d", retries, opts.MaxRetries)
				if err := sess.Send(lastSent); err != nil {
					return err
				}
				continue
			}
			return err
		}

		switch p := pkt.(type) {
		case DataPacket:
			if p.BlockNumber == expected {
				if !sess.locked {
					sess.LockPeerTID(addr)
					logger.Debug("locked peer TID to %s", addr)
				}
				if _, err := out.Write(p.Payload); err != nil {
					return &TransportError{Kind: Io, Err: err}
				}
				ack := AckPacket{BlockNumber: p.BlockNumber}
				if err := sess.Send(ack); err != nil {
					return err
				}
				logger.Debug("recv DATA block=%d (%d bytes); sent ACK", p.BlockNumber, len(p.Payload))

				if len(p.Payload) < MaxDataLen {
					closed = true
					if err := out.Close(); err != nil {
						return &TransportError{Kind: Io, Err: err}
					}
					logger.Info("download complete: %s", localFilename)
					return nil
				}
				expected++
				retries = 0
				lastSent = ack
				continue
			}

			if p.BlockNumber == expected-1 {
				// Duplicate of the block we already wrote and ACKed: our ACK
				// was lost. Resend it without advancing or re-writing.
				ack := AckPacket{BlockNumber: p.BlockNumber}
				if err := sess.Send(ack); err != nil {
					return err
				}
				logger.Debug("duplicate DATA block=%d, resent ACK", p.BlockNumber)
				continue
			}

			sess.Send(ErrorPacket{Code: ErrIllegalOperation, Message: DefaultMessage(ErrIllegalOperation)})
			return &ProtocolError{Kind: UnexpectedBlock, Msg: "unexpected block number in DATA"}

		case ErrorPacket:
			closed = true
			out.Close()
			os.Remove(localFilename)
			return &ServerError{Code: p.Code, Message: p.Message}

		default:
			sess.Send(ErrorPacket{Code: ErrIllegalOperation, Message: DefaultMessage(ErrIllegalOperation)})
			return &ProtocolError{Kind: InvalidOpcode, Msg: "unexpected opcode mid-transfer"}
		}
	}
}

func isTransportTimeout(err error, out **TransportError) bool {
	te, ok := err.(*TransportError)
	if !ok || te.Kind != Timeout {
		return false
	}
	*out = te
	return true
}
