package ogevent

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// opNames are pickletools names of the opcodes.
var opNames = [256]string{
	opMark:            "MARK",
	opStop:            "STOP",
	opPop:             "POP",
	opPopMark:         "POP_MARK",
	opDup:             "DUP",
	opFloat:           "FLOAT",
	opInt:             "INT",
	opLong:            "LONG",
	opNone:            "NONE",
	opPersid:          "PERSID",
	opReduce:          "REDUCE",
	opString:          "STRING",
	opUnicode:         "UNICODE",
	opAppend:          "APPEND",
	opBuild:           "BUILD",
	opGlobal:          "GLOBAL",
	opDict:            "DICT",
	opGet:             "GET",
	opInst:            "INST",
	opList:            "LIST",
	opPut:             "PUT",
	opSetitem:         "SETITEM",
	opTuple:           "TUPLE",
	opBinint:          "BININT",
	opBinint1:         "BININT1",
	opBinint2:         "BININT2",
	opBinpersid:       "BINPERSID",
	opBinstring:       "BINSTRING",
	opShortBinstring:  "SHORT_BINSTRING",
	opBinunicode:      "BINUNICODE",
	opAppends:         "APPENDS",
	opBinget:          "BINGET",
	opLongBinget:      "LONG_BINGET",
	opEmptyList:       "EMPTY_LIST",
	opEmptyTuple:      "EMPTY_TUPLE",
	opEmptyDict:       "EMPTY_DICT",
	opObj:             "OBJ",
	opBinput:          "BINPUT",
	opLongBinput:      "LONG_BINPUT",
	opSetitems:        "SETITEMS",
	opBinfloat:        "BINFLOAT",
	opProto:           "PROTO",
	opNewobj:          "NEWOBJ",
	opExt1:            "EXT1",
	opExt2:            "EXT2",
	opExt4:            "EXT4",
	opTuple1:          "TUPLE1",
	opTuple2:          "TUPLE2",
	opTuple3:          "TUPLE3",
	opNewtrue:         "NEWTRUE",
	opNewfalse:        "NEWFALSE",
	opLong1:           "LONG1",
	opLong4:           "LONG4",
	opBinbytes:        "BINBYTES",
	opShortBinbytes:   "SHORT_BINBYTES",
	opShortBinUnicode: "SHORT_BINUNICODE",
	opBinunicode8:     "BINUNICODE8",
	opBinbytes8:       "BINBYTES8",
	opEmptySet:        "EMPTY_SET",
	opAddItems:        "ADDITEMS",
	opFrozenSet:       "FROZENSET",
	opNewobjEx:        "NEWOBJ_EX",
	opStackGlobal:     "STACK_GLOBAL",
	opMemoize:         "MEMOIZE",
	opFrame:           "FRAME",
	opBytearray8:      "BYTEARRAY8",
	opNextBuffer:      "NEXT_BUFFER",
	opReadOnlyBuffer:  "READONLY_BUFFER",
}

// OpName returns pickletools name of opcode op, e.g. "SHORT_BINUNICODE".
func OpName(op byte) string {
	if name := opNames[op]; name != "" {
		return name
	}
	return fmt.Sprintf("OP_%02x", op)
}

// Describe renders e similarly to how pickletools.dis shows an opcode, e.g.
//
//	BININT1 42
//	SHORT_BINUNICODE "hello"
//	GLOBAL "decimal Decimal"
//
// payload must be e.Payload(buf) for the buffer e was decoded into.
func (e Event) Describe(payload []byte) string {
	name := OpName(e.Op)
	if e.Op == 0 && e.Type == EventStop {
		name = "STOP" // synthesized at end of input
	}

	arg := e.describeArg(payload)
	if arg == "" {
		return name
	}
	return name + " " + arg
}

func (e Event) describeArg(payload []byte) string {
	switch e.Type {
	case EventProto, EventFrame, EventInt, EventBinInt, EventBinInt1, EventBinInt2, EventLong,
		EventGet, EventBinGet, EventLongBinGet, EventPut, EventBinPut, EventLongBinPut,
		EventExt1, EventExt2, EventExt4:
		return strconv.FormatInt(e.Int, 10)

	case EventFloat:
		return strconv.FormatFloat(e.Float, 'g', -1, 64)

	case EventBool:
		// NEWTRUE and NEWFALSE carry no argument
		if e.Op != opInt {
			return ""
		}
		if e.Bool {
			return "True"
		}
		return "False"

	case EventString:
		// STRING argument is a quoted Python literal
		s := string(payload)
		if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
			if v, err := pydecodeStringEscape(s[1 : len(s)-1]); err == nil {
				return pyquote(v)
			}
		}
		return pyquote(s)

	case EventUnicode:
		s, err := pydecodeRawUnicodeEscape(string(payload))
		if err != nil {
			s = string(payload)
		}
		return pyquote(s)

	case EventBinString, EventShortBinString, EventBinUnicode, EventShortBinUnicode, EventBinUnicode8,
		EventPersID:
		return pyquote(string(payload))

	case EventBinBytes, EventShortBinBytes, EventBinBytes8, EventByteArray8:
		return "b" + pyquote(string(payload))

	case EventGlobal, EventInst:
		if len(payload) < e.Len {
			return ""
		}
		return pyquote(string(payload[:e.Len]) + " " + string(payload[e.Len:]))
	}
	return ""
}

// pyquote, similarly to strconv.Quote, quotes s with " but does not use "\u" and "\U" inside.
//
// We need to avoid \u and friends, since for regular strings Python translates
// \u to \\u, not an UTF-8 character.
//
// Dumping strings in a way that is possible to copy/paste into Python and use
// pickletools.dis and pickle.loads there to verify a pickle is handy.
func pyquote(s string) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')

	for len(s) > 0 {
		r, width := utf8.DecodeRuneInString(s)

		switch {
		// invalid & everything else goes in numeric byte escapes
		case r == utf8.RuneError, r >= ' ' && !strconv.IsPrint(r):
			for i := 0; i < width; i++ {
				out = append(out, '\\', 'x', hexdigits[s[i]>>4], hexdigits[s[i]&0xf])
			}

		case r == '\\' || r == '"':
			out = append(out, '\\', byte(r))

		case r < ' ':
			rq := strconv.QuoteRune(r) // e.g. "'\n'"
			out = append(out, rq[1:len(rq)-1]...)

		default:
			out = append(out, s[:width]...)
		}

		s = s[width:]
	}

	out = append(out, '"')
	return string(out)
}

// pydecodeStringEscape decodes input according to "string-escape" Python codec.
//
// The codec is essentially defined here:
// https://github.com/python/cpython/blob/v2.7.15-198-g69d0bc1430d/Objects/stringobject.c#L600
func pydecodeStringEscape(s string) (string, error) {
	out := make([]byte, 0, len(s))

	for len(s) > 0 {
		// regular character
		if s[0] != '\\' {
			out = append(out, s[0])
			s = s[1:]
			continue
		}

		if len(s) < 2 {
			return "", strconv.ErrSyntax
		}

		switch c := s[1]; c {
		// \ LF -> just skip
		case '\n':
			s = s[2:]
			continue

		// \\ -> \
		case '\\':
			out = append(out, '\\')
			s = s[2:]
			continue

		// \' \"  (yes, both quotes are allowed to be escaped)
		case '\'', '"':
			out = append(out, c)
			s = s[2:]
			continue

		// escapes handled by strconv (NOTE no \u \U for strings)
		case 'b', 'f', 't', 'n', 'r', 'v', 'a',
			'0', '1', '2', '3', '4', '5', '6', '7',
			'x':

		// \c (any character without special meaning) -> \ and proceed with c
		default:
			out = append(out, '\\')
			s = s[1:]
			continue
		}

		r, _, tail, err := strconv.UnquoteChar(s, 0)
		if err != nil {
			return "", err
		}

		// all above escapes produce single byte; append it directly, since
		// rune -> UTF-8 would turn e.g. "\x80" into "\xc2\x80".
		if r > 0xff {
			return "", strconv.ErrSyntax
		}
		out = append(out, byte(r))
		s = tail
	}

	return string(out), nil
}

// pydecodeRawUnicodeEscape decodes input according to "raw-unicode-escape" Python codec.
//
// Bytes are latin-1 characters, and only \uXXXX and \UXXXXXXXX escapes are
// recognized, provided the backslash is not itself escaped.
func pydecodeRawUnicodeEscape(s string) (string, error) {
	out := make([]byte, 0, len(s))

	for len(s) > 0 {
		c := s[0]
		if c != '\\' {
			out = utf8.AppendRune(out, rune(c))
			s = s[1:]
			continue
		}

		// run of backslashes; only the odd one out can start an escape
		n := 1
		for n < len(s) && s[n] == '\\' {
			n++
		}
		out = append(out, s[:n]...)
		s = s[n:]
		if n%2 == 0 || len(s) == 0 || (s[0] != 'u' && s[0] != 'U') {
			continue
		}

		size := 4
		if s[0] == 'U' {
			size = 8
		}
		if len(s) < 1+size {
			return "", strconv.ErrSyntax
		}
		v, err := strconv.ParseUint(s[1:1+size], 16, 32)
		if err != nil || v > unicode.MaxRune {
			return "", strconv.ErrSyntax
		}

		out = out[:len(out)-1] // the escaping backslash
		out = utf8.AppendRune(out, rune(v))
		s = s[1+size:]
	}

	return string(out), nil
}
