package session

import "errors"

// ErrUnknownSender is returned when an Update packet arrives from an
// address with no matching session (spec.md §4.10, §7): the caller
// drops the packet.
var ErrUnknownSender = errors.New("session: unknown sender")

// ErrSequenceGapTooLarge terminates the whole session: the distance
// between the peer's most recent sequence and our processed cursor
// exceeded seq.AckPreviousSequences (spec.md §4.4, §4.10).
var ErrSequenceGapTooLarge = errors.New("session: sequence gap too large")

// ErrVersionMismatch is a Connect packet whose game version doesn't
// match. Server.HandlePacket returns it without creating a session and
// sends no reply to the sender; Client.HandlePacket returns it when the
// server's Init carries a different version.
var ErrVersionMismatch = errors.New("session: protocol version mismatch")
