package classfile

import "strings"

var opcodeNames = map[string]Opcode{
	"NOP": OpNop, "ACONST_NULL": OpAConstNull,
	"ICONST_M1": OpIConstM1, "ICONST_0": OpIConst0, "ICONST_1": OpIConst1,
	"ICONST_2": OpIConst2, "ICONST_3": OpIConst3, "ICONST_4": OpIConst4, "ICONST_5": OpIConst5,
	"LCONST_0": OpLConst0, "LCONST_1": OpLConst1,
	"FCONST_0": OpFConst0, "DCONST_0": OpDConst0,
	"BIPUSH": OpBIPush, "SIPUSH": OpSIPush,
	"LDC": OpLdc, "LDC_W": OpLdcW, "LDC2_W": OpLdc2W,
	"ILOAD": OpILoad, "LLOAD": OpLLoad, "FLOAD": OpFLoad, "DLOAD": OpDLoad, "ALOAD": OpALoad,
	"ISTORE": OpIStore, "LSTORE": OpLStore, "FSTORE": OpFStore, "DSTORE": OpDStore, "ASTORE": OpAStore,
	"POP": OpPop, "POP2": OpPop2, "DUP": OpDup, "DUP_X1": OpDupX1, "DUP_X2": OpDupX2, "DUP2": OpDup2, "SWAP": OpSwap,
	"AALOAD": OpAALoad, "AASTORE": OpAAStore,
	"CHECKCAST": OpCheckCast, "INSTANCEOF": OpInstanceOf,
	"IFEQ": OpIfEq, "IFNE": OpIfNe, "GOTO": OpGoto,
	"GETSTATIC": OpGetStatic, "PUTSTATIC": OpPutStatic, "GETFIELD": OpGetField, "PUTFIELD": OpPutField,
	"INVOKEVIRTUAL": OpInvokeVirtual, "INVOKESPECIAL": OpInvokeSpecial,
	"INVOKESTATIC": OpInvokeStatic, "INVOKEINTERFACE": OpInvokeInterface, "INVOKEDYNAMIC": OpInvokeDynamic,
	"NEW": OpNew, "NEWARRAY": OpNewArray, "ANEWARRAY": OpANewArray,
	"IRETURN": OpIReturn, "LRETURN": OpLReturn, "FRETURN": OpFReturn,
	"DRETURN": OpDReturn, "ARETURN": OpAReturn, "RETURN": OpReturn,
	"ATHROW": OpAThrow,
}

// OpcodeByName looks up a symbolic mnemonic (case-insensitive), returning
// ok=false if it is not one of the opcodes this package models.
func OpcodeByName(name string) (Opcode, bool) {
	op, ok := opcodeNames[strings.ToUpper(name)]
	return op, ok
}
