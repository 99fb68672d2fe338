package compiler

import "fmt"

// PrimitiveType is the closed set of types the language recognises.
type PrimitiveType int

const (
	TypeVoid PrimitiveType = iota
	TypeInt
	TypeLong
	TypeByte
	TypeFloat
	TypeDouble
	TypeChar
	TypeString
	TypeBool
)

var primitiveNames = [...]string{
	TypeVoid:   "void",
	TypeInt:    "int",
	TypeLong:   "long",
	TypeByte:   "byte",
	TypeFloat:  "float",
	TypeDouble: "double",
	TypeChar:   "char",
	TypeString: "string",
	TypeBool:   "bool",
}

func (t PrimitiveType) String() string {
	if int(t) >= 0 && int(t) < len(primitiveNames) {
		return primitiveNames[t]
	}
	return fmt.Sprintf("PrimitiveType(%d)", int(t))
}

// SlotSize returns the number of bytes a value of this type occupies on the
// expression-evaluation stack and in a frame slot, per §3.
func (t PrimitiveType) SlotSize() int {
	switch t {
	case TypeLong, TypeDouble, TypeString:
		return 8
	default:
		return 4
	}
}

// IsNumeric reports whether t participates in arithmetic operators.
func (t PrimitiveType) IsNumeric() bool {
	switch t {
	case TypeInt, TypeLong, TypeByte, TypeFloat, TypeDouble:
		return true
	default:
		return false
	}
}

// primitiveFromKeyword maps a type keyword token to its PrimitiveType.
func primitiveFromKeyword(tt TokenType) (PrimitiveType, bool) {
	switch tt {
	case KW_INT:
		return TypeInt, true
	case KW_LONG:
		return TypeLong, true
	case KW_BYTE:
		return TypeByte, true
	case KW_FLOAT:
		return TypeFloat, true
	case KW_DOUBLE:
		return TypeDouble, true
	case KW_CHAR:
		return TypeChar, true
	case KW_STRING:
		return TypeString, true
	case KW_BOOL:
		return TypeBool, true
	case KW_VOID:
		return TypeVoid, true
	default:
		return TypeVoid, false
	}
}
