package ogevent

import (
	"errors"
	"fmt"
)

// ErrInvalidUTF8 is the cause of a PayloadError for text that must be UTF-8 but is not.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// ErrInvalidLength is the cause of a PayloadError for a negative or
// unrepresentable length prefix.
var ErrInvalidLength = errors.New("invalid length")

// IOError is returned when reading the underlying stream fails.
//
// End of input exactly at an opcode boundary is not an error - it is decoded
// as Stop. End of input inside an opcode is reported as IOError wrapping
// io.ErrUnexpectedEOF.
type IOError struct {
	Pos int64 // stream offset at which the read failed
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("pickle: read error at position %d: %s", e.Pos, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ProtocolError is returned by ReadHeader when the stream does not start
// with a valid `PROTO <version>` header.
type ProtocolError struct {
	Header [2]byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("pickle: unsupported protocol header %q", e.Header[:])
}

// OpcodeError is the error that ReadEvent returns when it sees unknown pickle opcode.
type OpcodeError struct {
	Key byte
	Pos int64
}

func (e OpcodeError) Error() string {
	return fmt.Sprintf("Unknown opcode %d (%c) at position %d: %q", e.Key, e.Key, e.Pos, e.Key)
}

// PayloadError is returned when an opcode argument is malformed: a decimal
// payload that does not parse, text that is not valid UTF-8, or an invalid
// length prefix.
type PayloadError struct {
	Op  byte  // opcode whose argument is malformed
	Pos int64 // stream offset of the opcode
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("pickle: malformed argument of opcode %q at position %d: %s", e.Op, e.Pos, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }
