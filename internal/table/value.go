package table

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies which variant of a Value is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single cell read from a source file.
// It is a tagged union: Kind selects which of the remaining fields is meaningful.
// Fields are exported so tables can be gob-encoded by the cache.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Time  time.Time
}

func Null() Value            { return Value{} }
func Int(i int64) Value      { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value  { return Value{Kind: KindFloat, Float: f} }
func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func Time(t time.Time) Value { return Value{Kind: KindTime, Time: t} }
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Key returns the string form used to group rows by category.
// Null values and empty strings return "".
func (v Value) Key() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		return v.Time.UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// String implements fmt.Stringer for diagnostics.
func (v Value) String() string {
	if v.Kind == KindNull {
		return "<null>"
	}
	if v.Kind == KindString {
		return strconv.Quote(v.Str)
	}
	return v.Key()
}
