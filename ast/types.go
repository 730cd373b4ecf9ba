package ast

import "strings"

// Kind identifies the shape of a Type value.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindFloat
	KindString
	KindVoid
	KindSprite
	KindSound
	KindObject
	KindArray
)

// Type is the language's type representation. Object carries a namespace
// chain plus the declaring object's name; Array carries an element type
// and a fixed length.
type Type struct {
	Kind   Kind
	Chain  []string // Object: namespace chain of the declaring namespace
	Name   string   // Object: object type name
	Elem   *Type    // Array: element type
	Length int      // Array: fixed length
}

func Int() Type     { return Type{Kind: KindInt} }
func Bool() Type    { return Type{Kind: KindBool} }
func Float() Type   { return Type{Kind: KindFloat} }
func String() Type  { return Type{Kind: KindString} }
func Void() Type    { return Type{Kind: KindVoid} }
func Sprite() Type  { return Type{Kind: KindSprite} }
func Sound() Type   { return Type{Kind: KindSound} }

// Object constructs an object type qualified by chain and name.
func Object(chain []string, name string) Type {
	return Type{Kind: KindObject, Chain: append([]string(nil), chain...), Name: name}
}

// NoneType is the type of the `none` literal: an object type that widens to
// any object type.
func NoneType() Type { return Object(nil, "none") }

// Array constructs a fixed-length array type.
func Array(elem Type, length int) Type {
	e := elem
	return Type{Kind: KindArray, Elem: &e, Length: length}
}

// IsNone reports whether t is the `none` pseudo-type.
func (t Type) IsNone() bool {
	return t.Kind == KindObject && t.Name == "none"
}

// IsNumeric reports whether t is Int or Float.
func (t Type) IsNumeric() bool {
	return t.Kind == KindInt || t.Kind == KindFloat
}

// Equal reports whether two types denote the same type. Object types compare
// by chain+name; Array types compare element type and length.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindObject:
		return t.Name == o.Name && chainEqual(t.Chain, o.Chain)
	case KindArray:
		if t.Length != o.Length {
			return false
		}
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == o.Elem
		}
		return t.Elem.Equal(*o.Elem)
	default:
		return true
	}
}

func chainEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders the type for diagnostics.
func (t Type) String() string {
	switch t.Kind {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindVoid:
		return "void"
	case KindSprite:
		return "sprite"
	case KindSound:
		return "sound"
	case KindObject:
		if t.Name == "none" && len(t.Chain) == 0 {
			return "none"
		}
		if len(t.Chain) == 0 {
			return t.Name
		}
		return strings.Join(t.Chain, "::") + "::" + t.Name
	case KindArray:
		elem := "?"
		if t.Elem != nil {
			elem = t.Elem.String()
		}
		return elem + "[" + itoa(t.Length) + "]"
	default:
		return "?"
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Requalify prefixes an object type's chain with the given namespace chain
// (always; an existing chain is kept after the prefix). This is used when a
// type mentioned inside object O (or function F in namespace N) escapes into
// a caller's context: the member/formal type must remain meaningful there.
func Requalify(t Type, chain []string) Type {
	if t.Kind != KindObject || t.IsNone() {
		return t
	}
	full := append(append([]string(nil), chain...), t.Chain...)
	return Object(full, t.Name)
}
