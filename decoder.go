package ogevent

import (
	"errors"
	"io"
	"math"
	"strconv"
	"unicode/utf8"
)

// Decoder is a decoder for pickle streams.
//
// It tokenizes the stream into Events, one opcode at a time. It does not
// build Python objects and does not check that the opcode sequence makes
// sense - e.g. GET of a memo index that was never PUT decodes fine.
type Decoder struct {
	r      *Reader
	config DecoderConfig
}

// DecoderConfig allows to tune Decoder.
type DecoderConfig struct {
	// StrictUnicode, if set, makes the decoder require that payloads of
	// unicode opcodes (UNICODE, BINUNICODE, SHORT_BINUNICODE, BINUNICODE8)
	// and names of GLOBAL and INST are valid UTF-8.
	//
	// By default such payloads are passed through as is: Python itself
	// allows e.g. lone surrogates in pickled str.
	StrictUnicode bool
}

// NewDecoder constructs a new Decoder which will decode the pickle stream in r.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderWithConfig(r, &DecoderConfig{})
}

// NewDecoderWithConfig is similar to NewDecoder, but allows specifying decoder configuration.
func NewDecoderWithConfig(r io.Reader, config *DecoderConfig) *Decoder {
	return NewDecoderFromReader(NewReader(r), config)
}

// NewDecoderFromReader constructs a Decoder reading from r.
//
// Event positions reported by the decoder are r's cursor positions, e.g.
// offsets in the original stream for a Reader made with NewReaderAt.
func NewDecoderFromReader(r *Reader, config *DecoderConfig) *Decoder {
	d := &Decoder{r: r}
	if config != nil {
		d.config = *config
	}
	return d
}

// Pos returns the stream offset of the next opcode to be decoded.
func (d *Decoder) Pos() int64 {
	return d.r.Pos()
}

// ReadHeader reads and checks the `PROTO <version>` header that starts
// pickles of protocol 2 and newer.
//
// It returns the PROTO event, or ProtocolError if the first two bytes are not
// PROTO followed by a supported version.
func (d *Decoder) ReadHeader() (Event, error) {
	var h [2]byte
	if err := d.r.readFull(h[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Event{}, &IOError{Pos: d.r.pos, Err: err}
	}

	// The PROTO opcode documentation says protocol version must be in [2, 256).
	// However CPython also loads PROTO with version 0 and 1 without error.
	if h[0] != opProto || h[1] > HighestProtocol {
		return Event{}, &ProtocolError{Header: h}
	}
	return Event{Type: EventProto, Op: opProto, Int: int64(h[1])}, nil
}

// ReadEvent decodes next opcode from the stream.
//
// buf is the caller's scratch buffer. Variable-length payloads are appended
// to it and the returned Event carries only their length; the payload is
// Event.Payload(buf) of the returned buffer. Opcodes with decimal text
// arguments use the buffer as scratch space and leave it at its original
// length. On error buf is returned at its original length as well.
//
// End of input right where next opcode is expected is reported as Stop event
// with zero Op. This way pickles without trailing STOP are handled.
func (d *Decoder) ReadEvent(buf []byte) (Event, []byte, error) {
	start := d.r.pos
	l := len(buf)

	key, err := d.r.readByte()
	if err != nil {
		if err == io.EOF {
			return Event{Type: EventStop}, buf, nil
		}
		return Event{}, buf, &IOError{Pos: d.r.pos, Err: err}
	}

	ev, buf, err := d.decode(key, start, buf)
	if err != nil {
		return Event{}, buf[:l], d.wrapError(err)
	}
	return ev, buf, nil
}

// wrapError converts raw read errors into IOError.
func (d *Decoder) wrapError(err error) error {
	var perr *PayloadError
	var operr OpcodeError
	if errors.As(err, &perr) || errors.As(err, &operr) {
		return err
	}
	// EOF from individual opcode decoder is unexpected end of stream
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &IOError{Pos: d.r.pos, Err: err}
}

// simpleTypes maps opcodes without arguments to their event types.
var simpleTypes = [256]EventType{
	opMark:           EventMark,
	opStop:           EventStop,
	opPop:            EventPop,
	opPopMark:        EventPopMark,
	opDup:            EventDup,
	opNone:           EventNone,
	opEmptyTuple:     EventEmptyTuple,
	opTuple:          EventTuple,
	opTuple1:         EventTuple1,
	opTuple2:         EventTuple2,
	opTuple3:         EventTuple3,
	opEmptyList:      EventEmptyList,
	opList:           EventList,
	opAppend:         EventAppend,
	opAppends:        EventAppends,
	opEmptyDict:      EventEmptyDict,
	opDict:           EventDict,
	opSetitem:        EventSetItem,
	opSetitems:       EventSetItems,
	opEmptySet:       EventEmptySet,
	opAddItems:       EventAddItems,
	opFrozenSet:      EventFrozenSet,
	opMemoize:        EventMemoize,
	opStackGlobal:    EventStackGlobal,
	opReduce:         EventReduce,
	opBuild:          EventBuild,
	opObj:            EventObj,
	opNewobj:         EventNewObj,
	opNewobjEx:       EventNewObjEx,
	opBinpersid:      EventBinPersID,
	opNextBuffer:     EventNextBuffer,
	opReadOnlyBuffer: EventReadOnlyBuffer,
}

// decode decodes arguments of opcode key that started at position start.
func (d *Decoder) decode(key byte, start int64, buf []byte) (ev Event, _ []byte, err error) {
	ev.Op = key
	if t := simpleTypes[key]; t != 0 {
		ev.Type = t
		return ev, buf, nil
	}

	switch key {
	case opProto:
		ev.Type = EventProto
		var v byte
		v, err = d.r.readByte()
		ev.Int = int64(v)

	case opFrame:
		ev.Type = EventFrame
		var v uint64
		v, err = d.r.readUint64()
		if err == nil && v > math.MaxInt64 {
			err = &PayloadError{Op: key, Pos: start, Err: ErrInvalidLength}
		}
		ev.Int = int64(v)

	case opNewtrue, opNewfalse:
		ev.Type = EventBool
		ev.Bool = key == opNewtrue

	case opInt:
		// INT 00 and 01 are False and True
		l := len(buf)
		buf, _, err = d.r.appendLine(buf)
		if err != nil {
			break
		}
		switch s := string(buf[l:]); s {
		case intFalse, intTrue:
			ev.Type = EventBool
			ev.Bool = s == intTrue
		default:
			ev.Type = EventInt
			ev.Int, err = parseInt(key, start, buf[l:])
		}
		buf = buf[:l]

	case opBinint:
		ev.Type = EventBinInt
		var v uint32
		v, err = d.r.readUint32()
		ev.Int = int64(int32(v)) // NOTE signed: uint32 -> int32, and only then -> int64

	case opBinint1:
		ev.Type = EventBinInt1
		var v byte
		v, err = d.r.readByte()
		ev.Int = int64(v)

	case opBinint2:
		ev.Type = EventBinInt2
		var v uint16
		v, err = d.r.readUint16()
		ev.Int = int64(v)

	case opLong:
		ev.Type = EventLong
		l := len(buf)
		buf, _, err = d.r.appendLine(buf)
		if err != nil {
			break
		}
		s := buf[l:]
		if n := len(s); n > 0 && s[n-1] == 'L' {
			s = s[:n-1]
		}
		ev.Int, err = parseInt(key, start, s)
		buf = buf[:l]

	case opLong1, opLong4:
		// LONG1 and LONG4 digits are parsed the same way as LONG text
		ev.Type = EventLong
		var n int
		n, err = d.readLen(key, start)
		if err != nil {
			break
		}
		l := len(buf)
		buf, err = d.r.appendN(buf, n)
		if err != nil {
			break
		}
		ev.Int, err = parseInt(key, start, buf[l:])
		buf = buf[:l]

	case opFloat:
		ev.Type = EventFloat
		l := len(buf)
		buf, _, err = d.r.appendLine(buf)
		if err != nil {
			break
		}
		ev.Float, err = parseFloat(key, start, buf[l:])
		buf = buf[:l]

	case opBinfloat:
		ev.Type = EventFloat
		ev.Float, err = d.r.readFloat64()

	case opString, opUnicode, opPersid:
		ev.Type = lineTypes[key]
		buf, ev.Len, err = d.r.appendLine(buf)
		if err == nil && key == opUnicode {
			err = d.checkUnicode(key, start, ev.Payload(buf))
		}

	case opBinstring, opShortBinstring, opBinunicode, opShortBinUnicode, opBinunicode8,
		opBinbytes, opShortBinbytes, opBinbytes8, opBytearray8:
		ev.Type = countedTypes[key]
		ev.Len, err = d.readLen(key, start)
		if err != nil {
			break
		}
		buf, err = d.r.appendN(buf, ev.Len)
		if err == nil {
			switch key {
			case opBinunicode, opShortBinUnicode, opBinunicode8:
				err = d.checkUnicode(key, start, ev.Payload(buf))
			}
		}

	case opGet, opPut:
		ev.Type = EventGet
		if key == opPut {
			ev.Type = EventPut
		}
		l := len(buf)
		buf, _, err = d.r.appendLine(buf)
		if err != nil {
			break
		}
		ev.Int, err = parseInt(key, start, buf[l:])
		buf = buf[:l]

	case opBinget, opBinput:
		ev.Type = EventBinGet
		if key == opBinput {
			ev.Type = EventBinPut
		}
		var v byte
		v, err = d.r.readByte()
		ev.Int = int64(v)

	case opLongBinget, opLongBinput:
		ev.Type = EventLongBinGet
		if key == opLongBinput {
			ev.Type = EventLongBinPut
		}
		var v uint32
		v, err = d.r.readUint32()
		ev.Int = int64(v)

	case opGlobal, opInst:
		ev.Type = EventGlobal
		if key == opInst {
			ev.Type = EventInst
		}
		buf, ev.Len, err = d.r.appendLine(buf)
		if err != nil {
			break
		}
		buf, ev.NameLen, err = d.r.appendLine(buf)
		if err == nil {
			err = d.checkUnicode(key, start, ev.Payload(buf))
		}

	case opExt1:
		ev.Type = EventExt1
		var v byte
		v, err = d.r.readByte()
		ev.Int = int64(v)

	case opExt2:
		ev.Type = EventExt2
		var v uint16
		v, err = d.r.readUint16()
		ev.Int = int64(v)

	case opExt4:
		ev.Type = EventExt4
		var v uint32
		v, err = d.r.readUint32()
		ev.Int = int64(v)

	default:
		return ev, buf, OpcodeError{Key: key, Pos: start}
	}

	return ev, buf, err
}

// lineTypes maps opcodes with one \n-terminated text argument to their event types.
var lineTypes = map[byte]EventType{
	opString:  EventString,
	opUnicode: EventUnicode,
	opPersid:  EventPersID,
}

// countedTypes maps opcodes with length-prefixed data to their event types.
var countedTypes = map[byte]EventType{
	opBinstring:       EventBinString,
	opShortBinstring:  EventShortBinString,
	opBinunicode:      EventBinUnicode,
	opShortBinUnicode: EventShortBinUnicode,
	opBinunicode8:     EventBinUnicode8,
	opBinbytes:        EventBinBytes,
	opShortBinbytes:   EventShortBinBytes,
	opBinbytes8:       EventBinBytes8,
	opBytearray8:      EventByteArray8,
}

// readLen reads the length prefix of a counted opcode.
//
// The prefix width and signedness depend on the opcode:
//
//	1 byte   unsigned   SHORT_BINSTRING SHORT_BINUNICODE SHORT_BINBYTES LONG1
//	4 bytes  signed     BINSTRING BINUNICODE BINBYTES LONG4
//	8 bytes  signed     BINUNICODE8
//	8 bytes  unsigned   BINBYTES8 BYTEARRAY8
func (d *Decoder) readLen(key byte, start int64) (int, error) {
	var n int64
	switch key {
	case opShortBinstring, opShortBinUnicode, opShortBinbytes, opLong1:
		b, err := d.r.readByte()
		if err != nil {
			return 0, err
		}
		n = int64(b)

	case opBinstring, opBinunicode, opBinbytes, opLong4:
		v, err := d.r.readUint32()
		if err != nil {
			return 0, err
		}
		n = int64(int32(v))

	case opBinunicode8:
		v, err := d.r.readUint64()
		if err != nil {
			return 0, err
		}
		n = int64(v)

	case opBinbytes8, opBytearray8:
		v, err := d.r.readUint64()
		if err != nil {
			return 0, err
		}
		if v > math.MaxInt64 {
			return 0, &PayloadError{Op: key, Pos: start, Err: ErrInvalidLength}
		}
		n = int64(v)
	}

	if n < 0 || n > math.MaxInt {
		return 0, &PayloadError{Op: key, Pos: start, Err: ErrInvalidLength}
	}
	return int(n), nil
}

// checkUnicode verifies text payloads in StrictUnicode mode.
func (d *Decoder) checkUnicode(key byte, start int64, s []byte) error {
	if !d.config.StrictUnicode || utf8.Valid(s) {
		return nil
	}
	return &PayloadError{Op: key, Pos: start, Err: ErrInvalidUTF8}
}

// parseInt parses decimal text argument of opcode key.
func parseInt(key byte, start int64, s []byte) (int64, error) {
	if !utf8.Valid(s) {
		return 0, &PayloadError{Op: key, Pos: start, Err: ErrInvalidUTF8}
	}
	v, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return 0, &PayloadError{Op: key, Pos: start, Err: err}
	}
	return v, nil
}

// parseFloat parses decimal text argument of FLOAT.
func parseFloat(key byte, start int64, s []byte) (float64, error) {
	if !utf8.Valid(s) {
		return 0, &PayloadError{Op: key, Pos: start, Err: ErrInvalidUTF8}
	}
	v, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return 0, &PayloadError{Op: key, Pos: start, Err: err}
	}
	return v, nil
}
