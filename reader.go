package ogevent

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"slices"
)

// maxGrow limits how much a payload fill grows the buffer ahead of data
// actually read from the stream.
//
// This way a malicious `BINSTRING <bigsize> nodata` cannot make us run out of
// memory: we fail with unexpected EOF after reading what is really there.
const maxGrow = 0x10000

// Reader is a byte source paired with a position cursor.
//
// The cursor is the offset of the next byte to be read. It starts at the
// value given to NewReaderAt and increases with every byte consumed.
type Reader struct {
	r   byteSource
	pos int64
}

// byteSource is what Reader needs from the underlying stream.
// *bufio.Reader and frameData implement it.
type byteSource interface {
	io.Reader
	io.ByteReader
	ReadSlice(delim byte) ([]byte, error)
}

// NewReader returns a Reader over r with cursor starting at 0.
func NewReader(r io.Reader) *Reader {
	return NewReaderAt(r, 0)
}

// NewReaderAt returns a Reader over r with cursor starting at pos.
//
// It is used to decode part of a stream, e.g. a frame, that was cut out of
// it: with the cursor seeded to the part's offset in the original stream,
// positions from different readers stay comparable. Use
// NewDecoderFromReader to decode it.
//
// If r is a *bufio.Reader it is read directly, without extra buffering.
func NewReaderAt(r io.Reader, pos int64) *Reader {
	src, ok := r.(byteSource)
	if !ok {
		src = bufio.NewReader(r)
	}
	return &Reader{r: src, pos: pos}
}

// Pos returns the current cursor position.
func (r *Reader) Pos() int64 {
	return r.pos
}

func (r *Reader) readByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, err
	}
	r.pos++
	return b, nil
}

// readFull reads exactly len(b) bytes.
func (r *Reader) readFull(b []byte) error {
	n, err := io.ReadFull(r.r, b)
	r.pos += int64(n)
	return err
}

func (r *Reader) readUint16() (uint16, error) {
	var b [2]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func (r *Reader) readUint32() (uint32, error) {
	var b [4]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (r *Reader) readUint64() (uint64, error) {
	var b [8]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// readFloat64 reads an IEEE-754 double.
//
// NOTE contrary to integers BINFLOAT is stored big-endian.
func (r *Reader) readFloat64() (float64, error) {
	var b [8]byte
	if err := r.readFull(b[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:])), nil
}

// appendN reads exactly n bytes from the stream and appends them to buf.
func (r *Reader) appendN(buf []byte, n int) ([]byte, error) {
	for n > 0 {
		chunk := min(n, maxGrow)
		buf = slices.Grow(buf, chunk)
		l := len(buf)
		m, err := io.ReadFull(r.r, buf[l:l+chunk])
		buf = buf[:l+m]
		r.pos += int64(m)
		if err != nil {
			return buf, err
		}
		n -= chunk
	}
	return buf, nil
}

// appendLine reads next line from the stream and appends it to buf.
//
// The terminating \n is consumed but not appended. It returns the number of
// bytes appended. A line not terminated by \n is an error.
func (r *Reader) appendLine(buf []byte) ([]byte, int, error) {
	l := len(buf)
	for {
		data, err := r.r.ReadSlice('\n')
		buf = append(buf, data...)
		r.pos += int64(len(data))

		// either have read till \n or got another error
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return buf, len(buf) - l, err
		}
		break
	}

	// trim trailing \n
	buf = buf[:len(buf)-1]
	return buf, len(buf) - l, nil
}

// frameReader reads the next n bytes into a private buffer and returns a
// Reader over them, positioned at the offset where the frame starts.
func (r *Reader) frameReader(n int) (*Reader, error) {
	start := r.pos
	data, err := r.appendN(nil, n)
	if err != nil {
		return nil, err
	}
	return NewReaderAt(&frameData{b: data}, start), nil
}

// frameData is a byteSource over bytes already in memory.
//
// ReadSlice returns subslices of b, so lines are not copied before they are
// appended to the scratch buffer.
type frameData struct {
	b   []byte
	off int
}

func (f *frameData) Read(p []byte) (int, error) {
	if f.off >= len(f.b) {
		return 0, io.EOF
	}
	n := copy(p, f.b[f.off:])
	f.off += n
	return n, nil
}

func (f *frameData) ReadByte() (byte, error) {
	if f.off >= len(f.b) {
		return 0, io.EOF
	}
	c := f.b[f.off]
	f.off++
	return c, nil
}

// ReadSlice has bufio.Reader.ReadSlice semantics except that it never
// returns bufio.ErrBufferFull.
func (f *frameData) ReadSlice(delim byte) ([]byte, error) {
	rest := f.b[f.off:]
	if i := bytes.IndexByte(rest, delim); i >= 0 {
		f.off += i + 1
		return rest[:i+1], nil
	}
	f.off = len(f.b)
	return rest, io.EOF
}
