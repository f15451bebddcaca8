package interp

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the payload of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindBool
	KindString
	KindObject
	KindHandlers
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindHandlers:
		return "handlers"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a runtime value. Data holds int64, bool, string, *Object or
// []Value according to Kind; it is nil for null.
type Value struct {
	Data any
	Kind Kind
}

// Null is the null value.
var Null = Value{}

// Constructors for the non-null kinds.
func Int(n int64) Value   { return Value{Kind: KindInt, Data: n} }
func Bool(b bool) Value   { return Value{Kind: KindBool, Data: b} }
func Str(s string) Value  { return Value{Kind: KindString, Data: s} }
func Obj(o *Object) Value { return Value{Kind: KindObject, Data: o} }

func handlers(hs []Value) Value { return Value{Kind: KindHandlers, Data: hs} }

// Parse reads a command-line argument: integers, true, false and null keep
// their kind, a double-quoted string is unquoted, anything else is a string.
func Parse(s string) Value {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	switch s {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "null":
		return Null
	}
	if u, err := strconv.Unquote(s); err == nil && strings.HasPrefix(s, `"`) {
		return Str(u)
	}
	return Str(s)
}

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) {
	n, ok := v.Data.(int64)
	return n, ok && v.Kind == KindInt
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	b, ok := v.Data.(bool)
	return b, ok && v.Kind == KindBool
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) {
	s, ok := v.Data.(string)
	return s, ok && v.Kind == KindString
}

// AsObject returns the object payload.
func (v Value) AsObject() (*Object, bool) {
	o, ok := v.Data.(*Object)
	return o, ok && v.Kind == KindObject
}

func (v Value) handlers() []Value {
	hs, _ := v.Data.([]Value)
	return hs
}

// String renders v for diagnostics; strings are quoted.
func (v Value) String() string {
	if v.Kind == KindString {
		return strconv.Quote(v.Data.(string))
	}
	return v.display()
}

// display renders v the way the log builtin prints it.
func (v Value) display() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(v.Data.(int64), 10)
	case KindBool:
		return strconv.FormatBool(v.Data.(bool))
	case KindString:
		return v.Data.(string)
	case KindObject:
		o := v.Data.(*Object)
		return fmt.Sprintf("<%s#%d>", o.Type.Name, o.id)
	case KindHandlers:
		hs := v.handlers()
		parts := make([]string, len(hs))
		for i, h := range hs {
			parts[i] = h.display()
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return "<unknown>"
}

// Equal reports whether a and b are the same value. Objects compare by
// identity.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindHandlers:
		x, y := a.handlers(), b.handlers()
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return a.Data == b.Data
}

// zero returns the default value of a declared type.
func zero(typ string) Value {
	switch typ {
	case "int", "long", "short", "byte":
		return Int(0)
	case "bool":
		return Bool(false)
	}
	return Null
}
