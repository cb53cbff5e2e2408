package bytecode

import (
	"fmt"
	"strings"
)

// Opcode is the payload of an Op-tagged operand.
type Opcode byte

const (
	NOP Opcode = 0x00

	// Arithmetic
	ADD Opcode = 0x01
	SUB Opcode = 0x02
	MUL Opcode = 0x03
	DIV Opcode = 0x04
	MOD Opcode = 0x05

	// Bitwise
	AND Opcode = 0x06
	OR  Opcode = 0x07
	XOR Opcode = 0x08
	NOT Opcode = 0x09

	// Comparison
	EQ  Opcode = 0x0A
	NEQ Opcode = 0x0B
	LT  Opcode = 0x0C
	GT  Opcode = 0x0D

	// Stack
	PUSH Opcode = 0x0E
	POP  Opcode = 0x0F
	DUP  Opcode = 0x10
	SWAP Opcode = 0x11
	DROP Opcode = 0x25

	// Control flow
	JMP Opcode = 0x12
	JZ  Opcode = 0x13
	JNZ Opcode = 0x14

	// Memory
	LOAD    Opcode = 0x17
	STORE   Opcode = 0x18
	ALLOC   Opcode = 0x1F
	FREE    Opcode = 0x20
	REALLOC Opcode = 0x21
	SIZEOF  Opcode = 0x24

	// IO
	WRITE Opcode = 0x19
	READ  Opcode = 0x1A
	FLUSH Opcode = 0x1C

	// Registers
	MOV   Opcode = 0x1B
	INC   Opcode = 0x1D
	DEC   Opcode = 0x1E
	WRACC Opcode = 0x22
	REACC Opcode = 0x23

	// Functions
	FUNC Opcode = 0x64
	RET  Opcode = 0x65
	CALL Opcode = 0x66
)

// ArgMode says how one operand of an instruction is fetched.
type ArgMode int

const (
	// ArgTyped reads a full operand and resolves it through its tag.
	ArgTyped ArgMode = iota
	// ArgUntyped reads only the payload; the value is used literally.
	ArgUntyped
	// ArgDest reads the payload as a register index.
	ArgDest
	// ArgFunc reads the payload and resolves it through the jump table.
	ArgFunc
	// ArgTarget names a register when Reg-tagged, otherwise a heap address.
	ArgTarget
)

func (m ArgMode) String() string {
	switch m {
	case ArgTyped:
		return "typed"
	case ArgUntyped:
		return "untyped"
	case ArgDest:
		return "dest"
	case ArgFunc:
		return "func"
	case ArgTarget:
		return "target"
	}
	return "unknown"
}

// Info describes an opcode's mnemonic and operand shape.
type Info struct {
	Name string
	Args []ArgMode
	// Variadic marks instructions whose last fixed operand is a count of
	// further Typed operands (STORE).
	Variadic bool
}

var (
	binaryArgs = []ArgMode{ArgTyped, ArgTyped}
	destArgs   = []ArgMode{ArgDest}
	typedArgs  = []ArgMode{ArgTyped}
	movArgs    = []ArgMode{ArgDest, ArgTyped}
	funcArgs   = []ArgMode{ArgFunc}
	targetArgs = []ArgMode{ArgTarget}
)

var infos = map[Opcode]Info{
	NOP: {Name: "NOP"},

	ADD: {Name: "ADD", Args: binaryArgs},
	SUB: {Name: "SUB", Args: binaryArgs},
	MUL: {Name: "MUL", Args: binaryArgs},
	DIV: {Name: "DIV", Args: binaryArgs},
	MOD: {Name: "MOD", Args: binaryArgs},

	AND: {Name: "AND", Args: binaryArgs},
	OR:  {Name: "OR", Args: binaryArgs},
	XOR: {Name: "XOR", Args: binaryArgs},
	NOT: {Name: "NOT", Args: destArgs},

	EQ:  {Name: "EQ", Args: binaryArgs},
	NEQ: {Name: "NEQ", Args: binaryArgs},
	LT:  {Name: "LT", Args: binaryArgs},
	GT:  {Name: "GT", Args: binaryArgs},

	PUSH: {Name: "PUSH", Args: typedArgs},
	POP:  {Name: "POP", Args: destArgs},
	DUP:  {Name: "DUP"},
	SWAP: {Name: "SWAP"},
	DROP: {Name: "DROP"},

	JMP: {Name: "JMP", Args: typedArgs},
	JZ:  {Name: "JZ", Args: funcArgs},
	JNZ: {Name: "JNZ", Args: funcArgs},

	LOAD:    {Name: "LOAD", Args: movArgs},
	STORE:   {Name: "STORE", Args: binaryArgs, Variadic: true},
	ALLOC:   {Name: "ALLOC", Args: movArgs},
	FREE:    {Name: "FREE", Args: typedArgs},
	REALLOC: {Name: "REALLOC", Args: movArgs},
	SIZEOF:  {Name: "SIZEOF", Args: movArgs},

	WRITE: {Name: "WRITE", Args: binaryArgs},
	READ:  {Name: "READ", Args: binaryArgs},
	FLUSH: {Name: "FLUSH"},

	MOV:   {Name: "MOV", Args: movArgs},
	INC:   {Name: "INC", Args: targetArgs},
	DEC:   {Name: "DEC", Args: targetArgs},
	WRACC: {Name: "WRACC", Args: typedArgs},
	REACC: {Name: "REACC", Args: destArgs},

	FUNC: {Name: "FUNC", Args: []ArgMode{ArgUntyped}},
	RET:  {Name: "RET"},
	CALL: {Name: "CALL", Args: funcArgs},
}

var byName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(infos))
	for op, info := range infos {
		m[info.Name] = op
	}
	return m
}()

// Lookup returns the operand shape of op.
func Lookup(op Opcode) (Info, bool) {
	info, ok := infos[op]
	return info, ok
}

// LookupName resolves a mnemonic, case-insensitively.
func LookupName(name string) (Opcode, bool) {
	op, ok := byName[strings.ToUpper(name)]
	return op, ok
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	_, ok := infos[op]
	return ok
}

func (op Opcode) String() string {
	if info, ok := infos[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("OP(0x%02x)", byte(op))
}
