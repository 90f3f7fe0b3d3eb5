// Package classfile provides a typed AST over class files targeting a
// stack-based object-oriented virtual machine (the JVM class file format).
//
// The AST mirrors what an external bytecode reader/writer library (ASM and
// its Go equivalents) would hand to a transformation framework: a
// ClassNode carrying fields and methods, each method holding a doubly
// linked instruction list, a local-variable table, and try/catch blocks.
// Nothing here performs parsing or writing of the real binary class file
// format — that responsibility belongs to the external dependency named in
// the purpose statement. This package defines the shape of that AST and the
// small set of utilities the transformation core needs: opcode metadata,
// type widths, load/store/return opcode selection, boxing, descriptor
// parsing, free-slot computation, and deep cloning.
package classfile

// Opcode is a single bytecode instruction opcode, numerically compatible
// with the JVM instruction set (JVMS §6.5).
type Opcode int

const (
	OpNop Opcode = 0x00

	// Constant-pushing
	OpAConstNull Opcode = 0x01
	OpIConstM1   Opcode = 0x02
	OpIConst0    Opcode = 0x03
	OpIConst1    Opcode = 0x04
	OpIConst2    Opcode = 0x05
	OpIConst3    Opcode = 0x06
	OpIConst4    Opcode = 0x07
	OpIConst5    Opcode = 0x08
	OpLConst0    Opcode = 0x09
	OpLConst1    Opcode = 0x0a
	OpFConst0    Opcode = 0x0b
	OpDConst0    Opcode = 0x0e
	OpBIPush     Opcode = 0x10
	OpSIPush     Opcode = 0x11
	OpLdc        Opcode = 0x12
	OpLdcW       Opcode = 0x13
	OpLdc2W      Opcode = 0x14

	// Loads
	OpILoad  Opcode = 0x15
	OpLLoad  Opcode = 0x16
	OpFLoad  Opcode = 0x17
	OpDLoad  Opcode = 0x18
	OpALoad  Opcode = 0x19
	OpILoad0 Opcode = 0x1a
	OpALoad0 Opcode = 0x2a

	// Stores
	OpIStore  Opcode = 0x36
	OpLStore  Opcode = 0x37
	OpFStore  Opcode = 0x38
	OpDStore  Opcode = 0x39
	OpAStore  Opcode = 0x3a
	OpIStore0 Opcode = 0x3b
	OpAStore0 Opcode = 0x4b

	// Stack
	OpPop    Opcode = 0x57
	OpPop2   Opcode = 0x58
	OpDup    Opcode = 0x59
	OpDupX1  Opcode = 0x5a
	OpDupX2  Opcode = 0x5b
	OpDup2   Opcode = 0x5c
	OpSwap   Opcode = 0x5f

	// Arithmetic
	OpIAdd Opcode = 0x60

	// Arrays
	OpAALoad  Opcode = 0x32
	OpAAStore Opcode = 0x53

	// Type checks
	OpCheckCast   Opcode = 0xc0
	OpInstanceOf  Opcode = 0xc1

	// Control flow
	OpIfEq Opcode = 0x99
	OpIfNe Opcode = 0x9a
	OpGoto Opcode = 0xa7

	// Field access
	OpGetStatic Opcode = 0xb2
	OpPutStatic Opcode = 0xb3
	OpGetField  Opcode = 0xb4
	OpPutField  Opcode = 0xb5

	// Invocation
	OpInvokeVirtual   Opcode = 0xb6
	OpInvokeSpecial   Opcode = 0xb7
	OpInvokeStatic    Opcode = 0xb8
	OpInvokeInterface Opcode = 0xb9
	OpInvokeDynamic   Opcode = 0xba

	// Object/array creation
	OpNew      Opcode = 0xbb
	OpNewArray Opcode = 0xbc
	OpANewArray Opcode = 0xbd

	// Returns
	OpIReturn   Opcode = 0xac
	OpLReturn   Opcode = 0xad
	OpFReturn   Opcode = 0xae
	OpDReturn   Opcode = 0xaf
	OpAReturn   Opcode = 0xb0
	OpReturn    Opcode = 0xb1

	OpAThrow Opcode = 0xbf

	// Pseudo-opcodes used only inside this AST, never emitted to the
	// binary format directly; they are expanded by the writer the way
	// ASM expands LabelNode/LineNumberNode/FrameNode.
	OpLabel      Opcode = -1
	OpLineNumber Opcode = -2
	OpFrame      Opcode = -3
)

// IsReturn reports whether op is one of IRETURN..RETURN (JVMS return family).
func IsReturn(op Opcode) bool {
	return op >= OpIReturn && op <= OpReturn
}

// LoadOpcodeFor returns the slot-load opcode appropriate for a descriptor's
// first character (its "sort"), mirroring the teacher's opcode-by-category
// tables in pkg/bytecode/opcodes.go.
func LoadOpcodeFor(desc string) Opcode {
	switch sortOf(desc) {
	case sortLong:
		return OpLLoad
	case sortFloat:
		return OpFLoad
	case sortDouble:
		return OpDLoad
	case sortObject, sortArray:
		return OpALoad
	default:
		return OpILoad
	}
}

// StoreOpcodeFor returns the slot-store opcode for a descriptor.
func StoreOpcodeFor(desc string) Opcode {
	switch sortOf(desc) {
	case sortLong:
		return OpLStore
	case sortFloat:
		return OpFStore
	case sortDouble:
		return OpDStore
	case sortObject, sortArray:
		return OpAStore
	default:
		return OpIStore
	}
}

// ReturnOpcodeFor returns the return opcode matching a method's return
// descriptor ("V" for void).
func ReturnOpcodeFor(desc string) Opcode {
	switch sortOf(desc) {
	case sortVoid:
		return OpReturn
	case sortLong:
		return OpLReturn
	case sortFloat:
		return OpFReturn
	case sortDouble:
		return OpDReturn
	case sortObject, sortArray:
		return OpAReturn
	default:
		return OpIReturn
	}
}

// Width returns the local-variable-slot width of a descriptor: 2 for long
// and double, 1 for everything else (including void's argument form, which
// never occurs).
func Width(desc string) int {
	switch sortOf(desc) {
	case sortLong, sortDouble:
		return 2
	default:
		return 1
	}
}

type sort int

const (
	sortVoid sort = iota
	sortBoolean
	sortByte
	sortChar
	sortShort
	sortInt
	sortFloat
	sortLong
	sortDouble
	sortObject
	sortArray
)

func sortOf(desc string) sort {
	if desc == "" {
		return sortVoid
	}
	switch desc[0] {
	case 'V':
		return sortVoid
	case 'Z':
		return sortBoolean
	case 'B':
		return sortByte
	case 'C':
		return sortChar
	case 'S':
		return sortShort
	case 'I':
		return sortInt
	case 'F':
		return sortFloat
	case 'J':
		return sortLong
	case 'D':
		return sortDouble
	case 'L':
		return sortObject
	case '[':
		return sortArray
	default:
		return sortInt
	}
}

// BoxedType returns the wrapper class internal name for a primitive
// descriptor ("I" -> "java/lang/Integer"), or "" if desc is already a
// reference type.
func BoxedType(desc string) string {
	switch desc {
	case "Z":
		return "java/lang/Boolean"
	case "B":
		return "java/lang/Byte"
	case "C":
		return "java/lang/Character"
	case "S":
		return "java/lang/Short"
	case "I":
		return "java/lang/Integer"
	case "F":
		return "java/lang/Float"
	case "J":
		return "java/lang/Long"
	case "D":
		return "java/lang/Double"
	default:
		return ""
	}
}

// BoxedUnboxMethod returns the (name, descriptor) of the instance method
// that unboxes a wrapper back to its primitive, e.g. "intValue", "()I".
func BoxedUnboxMethod(primitiveDesc string) (name, desc string) {
	switch primitiveDesc {
	case "Z":
		return "booleanValue", "()Z"
	case "B":
		return "byteValue", "()B"
	case "C":
		return "charValue", "()C"
	case "S":
		return "shortValue", "()S"
	case "I":
		return "intValue", "()I"
	case "F":
		return "floatValue", "()F"
	case "J":
		return "longValue", "()J"
	case "D":
		return "doubleValue", "()D"
	default:
		return "", ""
	}
}

// BoxedValueOfDesc returns the descriptor of the wrapper's static
// valueOf(primitive) factory method, e.g. "(I)Ljava/lang/Integer;".
func BoxedValueOfDesc(primitiveDesc string) string {
	boxed := BoxedType(primitiveDesc)
	if boxed == "" {
		return ""
	}
	return "(" + primitiveDesc + ")L" + boxed + ";"
}

// IsPrimitive reports whether desc names a primitive type (not an object,
// array, or void).
func IsPrimitive(desc string) bool {
	switch sortOf(desc) {
	case sortBoolean, sortByte, sortChar, sortShort, sortInt, sortFloat, sortLong, sortDouble:
		return true
	default:
		return false
	}
}
