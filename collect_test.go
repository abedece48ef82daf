package ogevent

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// frameBody returns a sequence of complete opcodes exactly n bytes long.
// Opcodes vary with seed so that different frames decode differently.
func frameBody(n, seed int) string {
	var b strings.Builder
	for i := 0; b.Len()+16 < n; i++ {
		switch (i + seed) % 5 {
		case 0:
			b.WriteString("J" + le32(uint32(i*seed)))
		case 1:
			s := fmt.Sprintf("item-%d-%d", seed, i)
			b.WriteString("\x8c" + string(rune(len(s))) + s)
		case 2:
			b.WriteString("\x94")
		case 3:
			b.WriteString("h" + string(rune(i%128)))
		case 4:
			b.WriteString("G\x3f\xe1\x47\xae\x14\x7a\xe1\x48")
		}
	}
	for b.Len() < n {
		b.WriteString("N")
	}
	return b.String()
}

// frame returns FRAME opcode with body as its data.
func frame(body string) string {
	return "\x95" + le64(uint64(len(body))) + body
}

// framed returns protocol 4 pickle made of FRAMEs with given bodies.
// STOP goes into the last frame.
func framed(bodies ...string) string {
	var b strings.Builder
	b.WriteString("\x80\x04")
	for i, body := range bodies {
		if i == len(bodies)-1 {
			body += "."
		}
		b.WriteString(frame(body))
	}
	return b.String()
}

// sequential decodes data with ReadEvent dropping FRAME and Stop, the same
// way Collect is expected to report events.
func sequential(t testing.TB, data string) []Event {
	t.Helper()
	events, _, err := readAll(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	var out []Event
	for _, ev := range events {
		if ev.Type == EventFrame || ev.Type == EventStop {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func TestDecodeAll(t *testing.T) {
	testv := []struct {
		data string
		want []Event
	}{
		{"\x80\x04\x88.", []Event{
			{Type: EventProto, Op: opProto, Int: 4},
			{Type: EventBool, Op: opNewtrue, Bool: true},
		}},
		// frame length 6, below threshold
		{"\x80\x04\x95\x06\x00\x00\x00\x00\x00\x00\x00J\x00\x00\x10\x00.", []Event{
			{Type: EventProto, Op: opProto, Int: 4},
			{Type: EventBinInt, Op: opBinint, Int: 1 << 20},
		}},
		{"", []Event{}},
	}

	for _, tt := range testv {
		for _, threshold := range []int64{0, 1, -1} {
			events, err := DecodeAll(strings.NewReader(tt.data), WithFrameThreshold(threshold))
			if err != nil {
				t.Errorf("%q (threshold %d): %s", tt.data, threshold, err)
				continue
			}
			if diff := cmp.Diff(tt.want, events); diff != "" {
				t.Errorf("%q (threshold %d): events mismatch (-want +have):\n%s", tt.data, threshold, diff)
			}
		}
	}
}

// verify that parallel decode gives the same events as sequential decode for
// frames around the threshold.
func TestCollectEquivalence(t *testing.T) {
	const threshold = 1024

	var bodies []string
	for i, n := range []int{10, 100, threshold - 1, threshold, threshold + 1, 3 * threshold, 50, 8 * threshold} {
		bodies = append(bodies, frameBody(n, i+1))
	}
	data := framed(bodies...)
	want := sequential(t, data)

	for _, parallelism := range []int{1, 2, 8} {
		have, err := DecodeAll(strings.NewReader(data),
			WithFrameThreshold(threshold), WithParallelism(parallelism))
		if err != nil {
			t.Fatalf("parallelism %d: %s", parallelism, err)
		}
		if diff := cmp.Diff(want, have); diff != "" {
			t.Errorf("parallelism %d: parallel != sequential (-seq +par):\n%s", parallelism, diff)
		}
	}

	never, err := DecodeAll(strings.NewReader(data), WithFrameThreshold(-1))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, never); diff != "" {
		t.Errorf("threshold -1 != sequential (-seq +never):\n%s", diff)
	}
}

// verify that frame length, not opcode count, determines where the main
// stream continues after a frame.
func TestCollectFrameAdvance(t *testing.T) {
	body := "K\x01NNN"
	data := "\x80\x04" + frame(body) + "K\x02."

	events, err := DecodeAll(strings.NewReader(data), WithFrameThreshold(1))
	if err != nil {
		t.Fatal(err)
	}
	want := []Event{
		{Type: EventProto, Op: opProto, Int: 4},
		{Type: EventBinInt1, Op: opBinint1, Int: 1},
		{Type: EventNone, Op: opNone},
		{Type: EventNone, Op: opNone},
		{Type: EventNone, Op: opNone},
		{Type: EventBinInt1, Op: opBinint1, Int: 2},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +have):\n%s", diff)
	}

	// Collect on a decoder leaves it right after the top-level STOP
	data += "N."
	dec := NewDecoder(strings.NewReader(data))
	if _, err := dec.Collect(WithFrameThreshold(1)); err != nil {
		t.Fatal(err)
	}
	if pos, want := dec.Pos(), int64(len(data)-2); pos != want {
		t.Errorf("pos after Collect = %d  ; want %d", pos, want)
	}
	rest, err := dec.Collect()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Event{{Type: EventNone, Op: opNone}}, rest); diff != "" {
		t.Errorf("second Collect mismatch (-want +have):\n%s", diff)
	}
}

// verify that the pickle ends at STOP met inside a frame decoded on a worker,
// and what follows it, e.g. another pickle, is not decoded as part of it.
func TestCollectStopInFrame(t *testing.T) {
	const threshold = 1024

	one := framed(frameBody(2048, 1))
	two := "\x80\x04" + frame("N"+frameBody(2048, 2)+".")
	stopInside := "\x80\x04" + frame(frameBody(2048, 1)+".")

	// data decodes to the events of the pickle alone
	testv := []struct {
		name   string
		data   string
		pickle string
	}{
		{"STOP in last frame", one, one},
		{"another pickle", one + "\x80\x04N.", one},
		{"another framed pickle", one + two, one},
		{"garbage after STOP", one + "\xff", one},
		{"bad frame after STOP", one + "\x80\x04" + frame(frameBody(2048, 3)+"\xff."), one},
		{"truncated frame after STOP", one + "\x80\x04" + frame(frameBody(2048, 4))[:100], one},
		{"data after STOP in frame", "\x80\x04" + frame(frameBody(2048, 1)+".K\x07") + "K\x08.", stopInside},
	}

	for _, tt := range testv {
		want := sequential(t, tt.pickle)
		for _, threshold := range []int64{-1, threshold} {
			for _, parallelism := range []int{1, 4} {
				have, err := DecodeAll(strings.NewReader(tt.data),
					WithFrameThreshold(threshold), WithParallelism(parallelism))
				if err != nil {
					t.Errorf("%s (threshold %d, parallelism %d): %s", tt.name, threshold, parallelism, err)
					continue
				}
				if diff := cmp.Diff(want, have); diff != "" {
					t.Errorf("%s (threshold %d, parallelism %d): events mismatch (-want +have):\n%s",
						tt.name, threshold, parallelism, diff)
				}
			}
		}
	}

	// failure before STOP in a later frame is still an error
	bad := "\x80\x04" + frame(frameBody(2048, 1)+"\xff") + frame(frameBody(2048, 2)+".")
	for _, threshold := range []int64{-1, threshold} {
		events, err := DecodeAll(strings.NewReader(bad), WithFrameThreshold(threshold))
		var e OpcodeError
		if !errors.As(err, &e) || e.Key != 0xff {
			t.Errorf("threshold %d: have %v  ; want OpcodeError", threshold, err)
		}
		if events != nil {
			t.Errorf("threshold %d: partial result: %d events", threshold, len(events))
		}
	}
}

// verify that any failure discards the whole result.
func TestCollectError(t *testing.T) {
	good := frameBody(2048, 1)
	bad := frameBody(2048, 2) + "\xff" + frameBody(10, 3)
	badPos := int64(2 + 9 + len(good) + 9 + len(bad) - 10 - 1)

	testv := []struct {
		name string
		data string
		ok   func(error) bool
	}{
		{"bad opcode in frame", framed(good, bad, good), func(err error) bool {
			var e OpcodeError
			return errors.As(err, &e) && e.Key == 0xff && e.Pos == badPos
		}},
		{"bad opcode after frames", "\x80\x04" + frame(good) + frame(good) + "\xff", func(err error) bool {
			var e OpcodeError
			return errors.As(err, &e) && e.Key == 0xff
		}},
		{"truncated frame", framed(good, good)[:2+9+len(good)+9+100], func(err error) bool {
			var e *IOError
			return errors.As(err, &e) && errors.Is(err, io.ErrUnexpectedEOF)
		}},
		{"opcode cut by frame end", "\x80\x04\x95" + le64(3) + "J\x01\x02" + ".", func(err error) bool {
			var e *IOError
			return errors.As(err, &e) && errors.Is(err, io.ErrUnexpectedEOF)
		}},
	}

	for _, tt := range testv {
		events, err := DecodeAll(strings.NewReader(tt.data), WithFrameThreshold(1), WithParallelism(2))
		if err == nil || !tt.ok(err) {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		}
		if events != nil {
			t.Errorf("%s: partial result: %d events", tt.name, len(events))
		}
	}
}

func TestCollectHeaderCheck(t *testing.T) {
	_, err := DecodeAll(strings.NewReader("I1\n."), WithHeaderCheck())
	var e *ProtocolError
	if !errors.As(err, &e) {
		t.Errorf("no header: have %v  ; want ProtocolError", err)
	}

	events, err := DecodeAll(strings.NewReader("\x80\x05N."), WithHeaderCheck())
	if err != nil {
		t.Fatal(err)
	}
	want := []Event{
		{Type: EventProto, Op: opProto, Int: 5},
		{Type: EventNone, Op: opNone},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +have):\n%s", diff)
	}
}

func TestCollectStrictUnicode(t *testing.T) {
	body := "X" + le32(2) + "\xff\xfe" + frameBody(100, 1)
	data := framed(body)

	if _, err := DecodeAll(strings.NewReader(data), WithFrameThreshold(1)); err != nil {
		t.Errorf("default: %s", err)
	}
	_, err := DecodeAll(strings.NewReader(data), WithFrameThreshold(1), WithStrictUnicode())
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("strict: have %v  ; want ErrInvalidUTF8", err)
	}
}

func TestApplyOptions(t *testing.T) {
	def := ApplyOptions()
	if def.FrameThreshold != DefaultFrameThreshold || def.Parallelism != runtime.GOMAXPROCS(0) {
		t.Errorf("defaults: %+v", def)
	}
	if c := ApplyOptions(WithFrameThreshold(0), WithParallelism(0)); c != def {
		t.Errorf("zero values must keep defaults: %+v", c)
	}

	c := ApplyOptions(WithFrameThreshold(-1), WithParallelism(3), WithHeaderCheck(), WithStrictUnicode())
	want := CollectConfig{FrameThreshold: -1, Parallelism: 3, HeaderCheck: true, StrictUnicode: true}
	if c != want {
		t.Errorf("have %+v  ; want %+v", c, want)
	}
}

func TestCollectLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	old := Logger()
	SetLogger(zap.New(core))
	defer SetLogger(old)

	data := framed(frameBody(100, 1), frameBody(100, 2), "K\x01")
	if _, err := DecodeAll(strings.NewReader(data), WithFrameThreshold(50)); err != nil {
		t.Fatal(err)
	}
	if n := logs.FilterMessage("frame dispatched").Len(); n != 2 {
		t.Errorf("frame dispatched logged %d times  ; want 2", n)
	}

	bad := framed(frameBody(100, 1) + "\xff")
	if _, err := DecodeAll(strings.NewReader(bad), WithFrameThreshold(50)); err == nil {
		t.Fatal("no error")
	}
	if n := logs.FilterMessage("frame decode failed").Len(); n != 1 {
		t.Errorf("frame decode failed logged %d times  ; want 1", n)
	}
}

func TestSetLoggerNil(t *testing.T) {
	old := Logger()
	SetLogger(nil)
	defer SetLogger(old)

	if Logger() == nil {
		t.Fatal("Logger() = nil after SetLogger(nil)")
	}
	data := framed(frameBody(100, 1), frameBody(100, 2))
	if _, err := DecodeAll(strings.NewReader(data), WithFrameThreshold(50)); err != nil {
		t.Fatal(err)
	}
}

// bigPickle returns a protocol 4 pickle with nframe frames of about framesize bytes.
func bigPickle(nframe, framesize int) string {
	bodies := make([]string, nframe)
	for i := range bodies {
		bodies[i] = frameBody(framesize, i+1)
	}
	return framed(bodies...)
}

func benchmarkDecodeAll(b *testing.B, opts ...Option) {
	data := bigPickle(16, 256*1024)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeAll(strings.NewReader(data), opts...); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeAllSequential(b *testing.B) { benchmarkDecodeAll(b, WithFrameThreshold(-1)) }
func BenchmarkDecodeAllParallel(b *testing.B)   { benchmarkDecodeAll(b) }
