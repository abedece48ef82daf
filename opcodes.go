package ogevent

// Opcodes
const (
	// Protocol 0

	opMark    byte = '(' // MARK: push special markobject
	opStop    byte = '.' // STOP: every pickle ends with STOP
	opPop     byte = '0' // POP: discard topmost stack item
	opDup     byte = '2' // DUP: duplicate top stack item
	opFloat   byte = 'F' // FLOAT: decimal string argument
	opInt     byte = 'I' // INT: decimal string argument, or 00/01 for bool
	opLong    byte = 'L' // LONG: decimal string argument with trailing L
	opNone    byte = 'N' // NONE
	opPersid  byte = 'P' // PERSID: id is taken from string arg
	opReduce  byte = 'R' // REDUCE: apply callable to argtuple
	opString  byte = 'S' // STRING: NL-terminated quoted string argument
	opUnicode byte = 'V' // UNICODE: raw-unicode-escaped argument
	opAppend  byte = 'a' // APPEND
	opBuild   byte = 'b' // BUILD
	opGlobal  byte = 'c' // GLOBAL: 2 NL-terminated string args
	opDict    byte = 'd' // DICT
	opGet     byte = 'g' // GET: memo index is string arg
	opInst    byte = 'i' // INST: 2 NL-terminated string args
	opList    byte = 'l' // LIST
	opPut     byte = 'p' // PUT: memo index is string arg
	opSetitem byte = 's' // SETITEM
	opTuple   byte = 't' // TUPLE

	intFalse = "00" // INT argument meaning False; see INT docs in pickletools.py
	intTrue  = "01" // INT argument meaning True

	// Protocol 1

	opPopMark        byte = '1' // POP_MARK: discard stack top through topmost markobject
	opBinint         byte = 'J' // BININT: four-byte signed int
	opBinint1        byte = 'K' // BININT1: 1-byte unsigned int
	opBinint2        byte = 'M' // BININT2: 2-byte unsigned int
	opBinpersid      byte = 'Q' // BINPERSID: id is taken from stack
	opBinstring      byte = 'T' // BINSTRING: counted binary string argument
	opShortBinstring byte = 'U' // SHORT_BINSTRING: "     "      "      " < 256 bytes
	opBinunicode     byte = 'X' // BINUNICODE: counted UTF-8 string argument
	opAppends        byte = 'e' // APPENDS
	opBinget         byte = 'h' // BINGET: memo index is 1-byte arg
	opLongBinget     byte = 'j' // LONG_BINGET: memo index is 4-byte arg
	opEmptyList      byte = ']' // EMPTY_LIST
	opEmptyTuple     byte = ')' // EMPTY_TUPLE
	opEmptyDict      byte = '}' // EMPTY_DICT
	opObj            byte = 'o' // OBJ
	opBinput         byte = 'q' // BINPUT: memo index is 1-byte arg
	opLongBinput     byte = 'r' // LONG_BINPUT: memo index is 4-byte arg
	opSetitems       byte = 'u' // SETITEMS
	opBinfloat       byte = 'G' // BINFLOAT: 8-byte big-endian float

	// Protocol 2

	opProto    byte = '\x80' // PROTO: identify pickle protocol
	opNewobj   byte = '\x81' // NEWOBJ
	opExt1     byte = '\x82' // EXT1: 1-byte extension code
	opExt2     byte = '\x83' // EXT2: 2-byte extension code
	opExt4     byte = '\x84' // EXT4: 4-byte extension code
	opTuple1   byte = '\x85' // TUPLE1
	opTuple2   byte = '\x86' // TUPLE2
	opTuple3   byte = '\x87' // TUPLE3
	opNewtrue  byte = '\x88' // NEWTRUE
	opNewfalse byte = '\x89' // NEWFALSE
	opLong1    byte = '\x8a' // LONG1: 1-byte length + digits
	opLong4    byte = '\x8b' // LONG4: 4-byte length + digits

	// Protocol 3

	opBinbytes      byte = 'B' // BINBYTES: len ule32; [len]data
	opShortBinbytes byte = 'C' // SHORT_BINBYTES: len ule8; [len]data

	// Protocol 4

	opShortBinUnicode byte = '\x8c' // SHORT_BINUNICODE: UTF-8 length < 256 bytes
	opBinunicode8     byte = '\x8d' // BINUNICODE8: len ule64; [len]data
	opBinbytes8       byte = '\x8e' // BINBYTES8: len ule64; [len]data
	opEmptySet        byte = '\x8f' // EMPTY_SET
	opAddItems        byte = '\x90' // ADDITEMS
	opFrozenSet       byte = '\x91' // FROZENSET
	opNewobjEx        byte = '\x92' // NEWOBJ_EX
	opStackGlobal     byte = '\x93' // STACK_GLOBAL
	opMemoize         byte = '\x94' // MEMOIZE
	opFrame           byte = '\x95' // FRAME: len ule64 of the following opcodes

	// Protocol 5

	opBytearray8     byte = '\x96' // BYTEARRAY8: len ule64; [len]data
	opNextBuffer     byte = '\x97' // NEXT_BUFFER
	opReadOnlyBuffer byte = '\x98' // READONLY_BUFFER
)

// HighestProtocol is the highest pickle protocol version ReadHeader accepts.
const HighestProtocol = 5
