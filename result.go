package netlogolink

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Result type tags reported by the engine.
const (
	TagBoolean     = "Boolean"
	TagString      = "String"
	TagInteger     = "Integer"
	TagDouble      = "Double"
	TagBoolList    = "BoolList"
	TagStringList  = "StringList"
	TagIntegerList = "IntegerList"
	TagDoubleList  = "DoubleList"
)

// Envelope is a reporter result as the engine returns it: a type tag plus
// one accessor per tag. Only the accessor matching Tag is meaningful.
//
// Booleans are engine-native integers; 1 means true.
type Envelope interface {
	Tag() string
	AsBoolean() (int64, error)
	AsString() (string, error)
	AsInteger() (int64, error)
	AsDouble() (float64, error)
	AsBooleanArray() ([]int64, error)
	AsStringArray() ([]string, error)
	AsIntegerArray() ([]int64, error)
	AsDoubleArray() ([]float64, error)
}

// wireEnvelope is the Envelope decoded from a link response.
type wireEnvelope struct {
	Type  string             `msgpack:"type"`
	Value msgpack.RawMessage `msgpack:"value"`
}

func (w *wireEnvelope) Tag() string { return w.Type }

func (w *wireEnvelope) AsBoolean() (int64, error) {
	var raw interface{}
	if err := msgpack.Unmarshal(w.Value, &raw); err != nil {
		return 0, err
	}
	return engineBool(raw)
}

func (w *wireEnvelope) AsString() (s string, err error) {
	err = msgpack.Unmarshal(w.Value, &s)
	return
}

func (w *wireEnvelope) AsInteger() (int64, error) {
	var raw interface{}
	if err := msgpack.Unmarshal(w.Value, &raw); err != nil {
		return 0, err
	}
	return engineInt(raw)
}

func (w *wireEnvelope) AsDouble() (f float64, err error) {
	err = msgpack.Unmarshal(w.Value, &f)
	return
}

func (w *wireEnvelope) AsBooleanArray() ([]int64, error) {
	var raw []interface{}
	if err := msgpack.Unmarshal(w.Value, &raw); err != nil {
		return nil, err
	}
	out := make([]int64, len(raw))
	for i, v := range raw {
		n, err := engineBool(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

func (w *wireEnvelope) AsStringArray() (s []string, err error) {
	err = msgpack.Unmarshal(w.Value, &s)
	return
}

func (w *wireEnvelope) AsIntegerArray() ([]int64, error) {
	var raw []interface{}
	if err := msgpack.Unmarshal(w.Value, &raw); err != nil {
		return nil, err
	}
	out := make([]int64, len(raw))
	for i, v := range raw {
		n, err := engineInt(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

func (w *wireEnvelope) AsDoubleArray() (f []float64, err error) {
	err = msgpack.Unmarshal(w.Value, &f)
	return
}

// engineBool accepts the integer encoding and, from newer link builds, a
// plain msgpack bool.
func engineBool(v interface{}) (int64, error) {
	if b, ok := v.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	n, err := engineInt(v)
	if err != nil {
		return 0, fmt.Errorf("not an engine boolean: %w", err)
	}
	return n, nil
}

// engineInt widens any msgpack integer to int64. Unsigned values above
// math.MaxInt64 are rejected rather than wrapped.
func engineInt(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d overflows int64", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("not an integer: %T", v)
}

// Kind identifies the shape of a normalized Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindString
	KindInteger
	KindDouble
	KindBoolList
	KindStringList
	KindIntegerList
	KindDoubleList
)

var kindNames = [...]string{"invalid", "bool", "string", "integer", "double", "bool list", "string list", "integer list", "double list"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Value is a normalized reporter result. Its Kind is fully determined by the
// envelope tag it was built from. The zero Value has KindInvalid.
type Value struct {
	kind Kind
	v    interface{}
}

// Kind reports which accessor holds the value.
func (v Value) Kind() Kind { return v.kind }

// Interface returns the Go-native value: bool, string, int64, float64 or a
// slice of one of those.
func (v Value) Interface() interface{} { return v.v }

// Bool returns the value and true when Kind is KindBool.
func (v Value) Bool() (bool, bool) {
	x, ok := v.v.(bool)
	return x, ok
}

// Text returns the value and true when Kind is KindString.
func (v Value) Text() (string, bool) {
	x, ok := v.v.(string)
	return x, ok
}

// Int returns the value and true when Kind is KindInteger.
func (v Value) Int() (int64, bool) {
	x, ok := v.v.(int64)
	return x, ok
}

// Float returns the value and true when Kind is KindDouble.
func (v Value) Float() (float64, bool) {
	x, ok := v.v.(float64)
	return x, ok
}

// Bools returns the value and true when Kind is KindBoolList.
func (v Value) Bools() ([]bool, bool) {
	x, ok := v.v.([]bool)
	return x, ok
}

// Texts returns the value and true when Kind is KindStringList.
func (v Value) Texts() ([]string, bool) {
	x, ok := v.v.([]string)
	return x, ok
}

// Ints returns the value and true when Kind is KindIntegerList.
func (v Value) Ints() ([]int64, bool) {
	x, ok := v.v.([]int64)
	return x, ok
}

// Floats returns the value and true when Kind is KindDoubleList.
func (v Value) Floats() ([]float64, bool) {
	x, ok := v.v.([]float64)
	return x, ok
}

// String formats the value the way the engine prints it: lists in square
// brackets, strings quoted.
func (v Value) String() string {
	switch x := v.v.(type) {
	case nil:
		return "<invalid>"
	case string:
		return strconv.Quote(x)
	case []string:
		parts := make([]string, len(x))
		for i, s := range x {
			parts[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprint(x)
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.v)
}

// Normalize reads the envelope's tag and invokes the matching accessor.
// A tag outside the eight supported ones is an UnsupportedResultTypeError;
// no value is ever guessed.
func Normalize(env Envelope) (Value, error) {
	tag := env.Tag()
	switch tag {
	case TagBoolean:
		n, err := env.AsBoolean()
		if err != nil {
			return Value{}, accessorError(tag, err)
		}
		return Value{KindBool, n == 1}, nil
	case TagString:
		s, err := env.AsString()
		if err != nil {
			return Value{}, accessorError(tag, err)
		}
		return Value{KindString, s}, nil
	case TagInteger:
		n, err := env.AsInteger()
		if err != nil {
			return Value{}, accessorError(tag, err)
		}
		return Value{KindInteger, n}, nil
	case TagDouble:
		f, err := env.AsDouble()
		if err != nil {
			return Value{}, accessorError(tag, err)
		}
		return Value{KindDouble, f}, nil
	case TagBoolList:
		ns, err := env.AsBooleanArray()
		if err != nil {
			return Value{}, accessorError(tag, err)
		}
		bs := make([]bool, len(ns))
		for i, n := range ns {
			bs[i] = n == 1
		}
		return Value{KindBoolList, bs}, nil
	case TagStringList:
		ss, err := env.AsStringArray()
		if err != nil {
			return Value{}, accessorError(tag, err)
		}
		if ss == nil {
			ss = []string{}
		}
		return Value{KindStringList, ss}, nil
	case TagIntegerList:
		ns, err := env.AsIntegerArray()
		if err != nil {
			return Value{}, accessorError(tag, err)
		}
		if ns == nil {
			ns = []int64{}
		}
		return Value{KindIntegerList, ns}, nil
	case TagDoubleList:
		fs, err := env.AsDoubleArray()
		if err != nil {
			return Value{}, accessorError(tag, err)
		}
		if fs == nil {
			fs = []float64{}
		}
		return Value{KindDoubleList, fs}, nil
	default:
		return Value{}, &UnsupportedResultTypeError{Tag: tag}
	}
}

func accessorError(tag string, err error) error {
	return fmt.Errorf("decoding %s result: %w", tag, err)
}
