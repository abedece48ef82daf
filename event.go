package ogevent

import "fmt"

// Event is one decoded pickle opcode.
//
// Only fixed-size metadata is stored in an Event. Variable-length payloads
// (strings, bytes, GLOBAL names, PERSID ids) are appended to the scratch
// buffer given to ReadEvent and the Event reports their length. Which of the
// value fields is meaningful depends on Type:
//
//	Int      PROTO version, FRAME length, INT/BININT*/LONG* value,
//	         memo index of GET/PUT family, EXT* code
//	Float    FLOAT, BINFLOAT
//	Bool     INT 00/01, NEWTRUE, NEWFALSE
//	Len      payload length of string/bytes opcodes and PERSID;
//	         module line length of GLOBAL/INST
//	NameLen  name line length of GLOBAL/INST
type Event struct {
	Type EventType

	// Op is the opcode byte the event was decoded from. It is 0 for the
	// Stop synthesized at end of input.
	Op byte

	Int     int64
	Float   float64
	Bool    bool
	Len     int
	NameLen int
}

// PayloadLen returns how many bytes the event appended to the scratch buffer.
func (e Event) PayloadLen() int {
	return e.Len + e.NameLen
}

// Payload returns the event's payload from buf, the buffer returned by the
// ReadEvent call that produced e.
//
// The result aliases buf and is valid only until buf is modified.
func (e Event) Payload(buf []byte) []byte {
	n := e.PayloadLen()
	if n == 0 || n > len(buf) {
		return nil
	}
	return buf[len(buf)-n:]
}

// Global splits the payload of a GLOBAL or INST event into module and name.
func (e Event) Global(buf []byte) (module, name []byte) {
	p := e.Payload(buf)
	if len(p) < e.Len {
		return nil, nil
	}
	return p[:e.Len], p[e.Len:]
}

func (e Event) String() string {
	switch e.Type {
	case EventProto, EventFrame, EventInt, EventBinInt, EventBinInt1, EventBinInt2, EventLong,
		EventGet, EventBinGet, EventLongBinGet, EventPut, EventBinPut, EventLongBinPut,
		EventExt1, EventExt2, EventExt4:
		return fmt.Sprintf("%s(%d)", e.Type, e.Int)
	case EventFloat:
		return fmt.Sprintf("%s(%v)", e.Type, e.Float)
	case EventBool:
		return fmt.Sprintf("%s(%v)", e.Type, e.Bool)
	case EventGlobal, EventInst:
		return fmt.Sprintf("%s{module: %d, name: %d}", e.Type, e.Len, e.NameLen)
	}
	if e.Type.hasPayload() {
		return fmt.Sprintf("%s{len: %d}", e.Type, e.Len)
	}
	return e.Type.String()
}

// EventType identifies the opcode family of an Event.
type EventType int

const (
	// Protocol identification
	EventProto EventType = iota + 1
	EventFrame

	// Stack manipulation
	EventMark
	EventStop
	EventPop
	EventPopMark
	EventDup

	// Basic types
	EventNone
	EventBool
	EventInt
	EventBinInt
	EventBinInt1
	EventBinInt2
	EventLong
	EventFloat

	// Strings and bytes
	EventString
	EventBinString
	EventShortBinString
	EventUnicode
	EventBinUnicode
	EventShortBinUnicode
	EventBinUnicode8
	EventBinBytes
	EventShortBinBytes
	EventBinBytes8
	EventByteArray8

	// Collections
	EventEmptyTuple
	EventTuple
	EventTuple1
	EventTuple2
	EventTuple3
	EventEmptyList
	EventList
	EventAppend
	EventAppends
	EventEmptyDict
	EventDict
	EventSetItem
	EventSetItems
	EventEmptySet
	EventAddItems
	EventFrozenSet

	// Memo
	EventGet
	EventBinGet
	EventLongBinGet
	EventPut
	EventBinPut
	EventLongBinPut
	EventMemoize

	// Object construction
	EventGlobal
	EventStackGlobal
	EventReduce
	EventBuild
	EventInst
	EventObj
	EventNewObj
	EventNewObjEx

	// Persistent ids
	EventPersID
	EventBinPersID

	// Extension registry
	EventExt1
	EventExt2
	EventExt4

	// Out-of-band buffers (protocol 5)
	EventNextBuffer
	EventReadOnlyBuffer

	numEventTypes = iota + 1
)

var eventTypeNames = [...]string{
	EventProto:           "Proto",
	EventFrame:           "Frame",
	EventMark:            "Mark",
	EventStop:            "Stop",
	EventPop:             "Pop",
	EventPopMark:         "PopMark",
	EventDup:             "Dup",
	EventNone:            "None",
	EventBool:            "Bool",
	EventInt:             "Int",
	EventBinInt:          "BinInt",
	EventBinInt1:         "BinInt1",
	EventBinInt2:         "BinInt2",
	EventLong:            "Long",
	EventFloat:           "Float",
	EventString:          "String",
	EventBinString:       "BinString",
	EventShortBinString:  "ShortBinString",
	EventUnicode:         "Unicode",
	EventBinUnicode:      "BinUnicode",
	EventShortBinUnicode: "ShortBinUnicode",
	EventBinUnicode8:     "BinUnicode8",
	EventBinBytes:        "BinBytes",
	EventShortBinBytes:   "ShortBinBytes",
	EventBinBytes8:       "BinBytes8",
	EventByteArray8:      "ByteArray8",
	EventEmptyTuple:      "EmptyTuple",
	EventTuple:           "Tuple",
	EventTuple1:          "Tuple1",
	EventTuple2:          "Tuple2",
	EventTuple3:          "Tuple3",
	EventEmptyList:       "EmptyList",
	EventList:            "List",
	EventAppend:          "Append",
	EventAppends:         "Appends",
	EventEmptyDict:       "EmptyDict",
	EventDict:            "Dict",
	EventSetItem:         "SetItem",
	EventSetItems:        "SetItems",
	EventEmptySet:        "EmptySet",
	EventAddItems:        "AddItems",
	EventFrozenSet:       "FrozenSet",
	EventGet:             "Get",
	EventBinGet:          "BinGet",
	EventLongBinGet:      "LongBinGet",
	EventPut:             "Put",
	EventBinPut:          "BinPut",
	EventLongBinPut:      "LongBinPut",
	EventMemoize:         "Memoize",
	EventGlobal:          "Global",
	EventStackGlobal:     "StackGlobal",
	EventReduce:          "Reduce",
	EventBuild:           "Build",
	EventInst:            "Inst",
	EventObj:             "Obj",
	EventNewObj:          "NewObj",
	EventNewObjEx:        "NewObjEx",
	EventPersID:          "PersID",
	EventBinPersID:       "BinPersID",
	EventExt1:            "Ext1",
	EventExt2:            "Ext2",
	EventExt4:            "Ext4",
	EventNextBuffer:      "NextBuffer",
	EventReadOnlyBuffer:  "ReadOnlyBuffer",
}

func (t EventType) String() string {
	if t <= 0 || int(t) >= len(eventTypeNames) {
		return "Unknown"
	}
	return eventTypeNames[t]
}

// hasPayload tells whether events of type t append bytes to the scratch buffer.
func (t EventType) hasPayload() bool {
	switch t {
	case EventString, EventBinString, EventShortBinString,
		EventUnicode, EventBinUnicode, EventShortBinUnicode, EventBinUnicode8,
		EventBinBytes, EventShortBinBytes, EventBinBytes8, EventByteArray8,
		EventGlobal, EventInst, EventPersID:
		return true
	default:
		return false
	}
}
