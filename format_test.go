package ogevent

import (
	"testing"
)

// CodecTestCase represents 1 test case of a coder or decoder.
//
// Under the given transformation function in must be transformed to out.
type CodecTestCase struct {
	in, out string
}

// testCodec tests transform func applied to all test cases from testv.
func testCodec(t *testing.T, transform func(in string) (string, error), testv []CodecTestCase) {
	for _, tt := range testv {
		s, err := transform(tt.in)
		if err != nil {
			t.Errorf("%q -> error: %s", tt.in, err)
			continue
		}

		if s != tt.out {
			t.Errorf("%q -> unexpected:\nhave: %q\nwant: %q", tt.in, s, tt.out)
		}
	}
}

func TestPyQuote(t *testing.T) {
	testCodec(t, func(in string) (string, error) { return pyquote(in), nil }, []CodecTestCase{
		{``, `""`},
		{`hello`, `"hello"`},
		{"hello\nworld", `"hello\nworld"`},
		{`"\`, `"\"\\"`},
		{"\x00\x01\x7f", `"\x00\x01\x7f"`},
		{"\x80\xff", `"\x80\xff"`},
		{"привет", `"привет"`},
		{"\u00a0", `"\xc2\xa0"`},
		{"\u1234", "\"\u1234\""},
	})
}

func TestPyDecodeStringEscape(t *testing.T) {
	testCodec(t, pydecodeStringEscape, []CodecTestCase{
		{`hello`, "hello"},
		{"hello\\\nworld", "helloworld"},
		{`\\`, `\`},
		{`\'\"`, `'"`},
		{`\b\f\t\n\r\v\a`, "\b\f\t\n\r\v\a"},
		{`\000\001\376\377`, "\000\001\376\377"},
		{`\x00\x01\x7f\x80\xfe\xff`, "\x00\x01\x7f\x80\xfe\xff"},
		// vvv stays as is
		{`\u1234\U00001234\c`, `\u1234\U00001234\c`},
	})

	for _, in := range []string{`\`, `abc\`, `\x`, `\xZZ`} {
		if s, err := pydecodeStringEscape(in); err == nil {
			t.Errorf("%q -> no error; got %q", in, s)
		}
	}
}

func TestPyDecodeRawUnicodeEscape(t *testing.T) {
	testCodec(t, pydecodeRawUnicodeEscape, []CodecTestCase{
		{`hello`, "hello"},
		{"\x00\x01\x80\xfe\xff", "\u0000\u0001\u0080\u00fe\u00ff"},
		{`\`, `\`},
		{`\\`, `\\`},
		{`\\\`, `\\\`},
		{`\\\\`, `\\\\`},
		{`\u1234\U00004321`, "\u1234\U00004321"},
		{`\\u1234\\U00004321`, `\\u1234\\U00004321`},
		{`\\\u1234\\\U00004321`, "\\\\\u1234\\\\\U00004321"},
		{`\\\\u1234\\\\U00004321`, `\\\\u1234\\\\U00004321`},
		{`\\\\\u1234\\\\\U00004321`, "\\\\\\\\\u1234\\\\\\\\\U00004321"},
		// vvv stays as is
		{"hello\\\nworld", "hello\\\nworld"},
		{`\'\"`, `\'\"`},
		{`\b\f\t\n\r\v\a`, `\b\f\t\n\r\v\a`},
		{`\000\001\376\377`, `\000\001\376\377`},
		{`\x00\x01\x7f\x80\xfe\xff`, `\x00\x01\x7f\x80\xfe\xff`},
	})

	for _, in := range []string{`\u12`, `\U0000123`, `\uzzzz`, `\U00110000`} {
		if s, err := pydecodeRawUnicodeEscape(in); err == nil {
			t.Errorf("%q -> no error; got %q", in, s)
		}
	}
}

func TestDescribe(t *testing.T) {
	testv := []struct {
		ev      Event
		payload string
		want    string
	}{
		{Event{Type: EventProto, Op: opProto, Int: 4}, "", `PROTO 4`},
		{Event{Type: EventFrame, Op: opFrame, Int: 6}, "", `FRAME 6`},
		{Event{Type: EventBinInt1, Op: opBinint1, Int: 42}, "", `BININT1 42`},
		{Event{Type: EventLong, Op: opLong1, Int: -3}, "", `LONG1 -3`},
		{Event{Type: EventFloat, Op: opBinfloat, Float: 0.54}, "", `BINFLOAT 0.54`},
		{Event{Type: EventBool, Op: opInt, Bool: true}, "", `INT True`},
		{Event{Type: EventBool, Op: opInt}, "", `INT False`},
		{Event{Type: EventBool, Op: opNewtrue, Bool: true}, "", `NEWTRUE`},
		{Event{Type: EventMark, Op: opMark}, "", `MARK`},
		{Event{Type: EventStop, Op: opStop}, "", `STOP`},
		{Event{Type: EventStop}, "", `STOP`},
		{Event{Type: EventBinGet, Op: opBinget, Int: 3}, "", `BINGET 3`},
		{Event{Type: EventShortBinUnicode, Op: opShortBinUnicode, Len: 5}, "hello", `SHORT_BINUNICODE "hello"`},
		{Event{Type: EventString, Op: opString, Len: 6}, `'a\nb'`, `STRING "a\nb"`},
		{Event{Type: EventString, Op: opString, Len: 3}, `abc`, `STRING "abc"`},
		{Event{Type: EventUnicode, Op: opUnicode, Len: 7}, `\u0430b`, "UNICODE \"\u0430b\""},
		{Event{Type: EventBinBytes, Op: opBinbytes, Len: 2}, "\x00\xff", `BINBYTES b"\x00\xff"`},
		{Event{Type: EventGlobal, Op: opGlobal, Len: 7, NameLen: 7}, "decimalDecimal", `GLOBAL "decimal Decimal"`},
		{Event{Type: EventPersID, Op: opPersid, Len: 3}, "abc", `PERSID "abc"`},
	}

	for _, tt := range testv {
		if have := tt.ev.Describe([]byte(tt.payload)); have != tt.want {
			t.Errorf("%v: have %q  ; want %q", tt.ev, have, tt.want)
		}
	}

	if have := OpName(0xff); have != "OP_ff" {
		t.Errorf("OpName(0xff) = %q", have)
	}
}
