// Package channel implements the bounded write-once-drain buffer that sits
// behind the character device.
//
// A Channel owns a fixed-capacity byte store and a write cursor. Writers
// append at the write cursor until the store is full; nothing ever frees
// space. Readers attach through a Session, which carries its own read
// cursor, and drain the stored bytes. Releasing a session resets its read
// cursor so the stored contents can be drained again.
//
// Invariants, for every session s:
//
//	0 <= s.read <= write <= capacity
//
// Bytes past the write cursor are stale and never delivered.
//
// Transfers:
//   - Write clamps to the remaining capacity and reports the accepted count
//     (a short write is not an error). A write into a full store fails with
//     ErrBufferFull. A source that cannot supply the accepted bytes fails
//     with ErrCopyFault and leaves the write cursor where it was.
//   - Read returns 0 once the session has seen everything. A destination
//     that takes fewer bytes than offered produces a short read, not an error.
//
// Read modes:
//   - ReadDrain (default): each read continues from the session's read
//     cursor and is clamped to the unread remainder.
//   - ReadLiteral: each read starts at offset 0 and is clamped to the total
//     written length; the read cursor becomes the delivered count. A second
//     short read in the same session therefore re-delivers the same prefix.
//
// All operations are non-blocking and serialized by one mutex per Channel.
// The package does no logging; callers decide what to report.
//
// Example Usage:
//
//	ch, _ := channel.New(channel.DefaultCapacity)
//	s := ch.Open()
//	n, err := s.Write(bytes.NewReader(p), len(p))
//	var out bytes.Buffer
//	n, _ = s.Read(&out, 5)
//	s.Release()
package channel
