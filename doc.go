// Package ogevent is a library for tokenizing Python's pickle format into events.
//
// Contrary to a regular unpickler it does not build Python objects. Every
// opcode of the stream becomes one Event carrying only fixed-size metadata:
// numbers, booleans and lengths. This is handy for tools that inspect, filter
// or convert pickles, and for pickles too big to be loaded whole.
//
// Use Decoder to read events one by one, for example:
//
//	d := ogevent.NewDecoder(r)
//	var buf []byte
//	for {
//		ev, b, err := d.ReadEvent(buf[:0])
//		buf = b
//		if err != nil {
//			return err
//		}
//		if ev.Type == ogevent.EventStop {
//			break
//		}
//		payload := ev.Payload(buf) // e.g. string data of BINUNICODE
//		...
//	}
//
// The buffer passed to ReadEvent is owned by the caller and is reused from
// call to call. Payloads of string and bytes opcodes are appended to it, and
// the Event reports only their length. A payload is valid until the buffer is
// reused.
//
// Use DecodeAll to get all events of a stream at once:
//
//	events, err := ogevent.DecodeAll(r)
//
// DecodeAll decodes large frames of protocol 4 and newer in parallel and
// returns events in stream order. FRAME events and the final Stop are not
// reported. See Collect for details.
//
//
// Pickle protocol versions
//
// Over the time the pickle stream format was evolving. The original protocol
// version 0 is human-readable with versions 1 and 2 extending the protocol in
// backward-compatible way with binary encodings for efficiency. Protocol
// version 3 added ways to represent Python3 bytes. Protocol version 4
// completely switches to binary-only encoding and groups opcodes into frames.
// Protocol version 5 added support for out-of-band data. Please see
// https://docs.python.org/3/library/pickle.html#data-stream-format for details.
//
// The decoder handles all protocols, 0 to 5, transparently. ReadHeader can be
// used to require that a stream starts with PROTO of a supported version.
//
//
// Limitations
//
// Integers are reported as int64. LONG, LONG1 and LONG4 arguments are parsed
// as decimal text, and values out of int64 range are reported as PayloadError.
//
// Out-of-band buffers of protocol 5 are reported as NEXT_BUFFER and
// READONLY_BUFFER events only: their data is not part of the pickle stream.
package ogevent
