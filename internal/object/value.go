package object

import "fmt"

// Kind is the type tag of a Value.
type Kind uint8

const (
	// KindString is a binary-safe byte string.
	KindString Kind = iota
	// KindList is an ordered list of values. Reserved; no command creates one yet.
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Encoding is the internal representation of a Value's payload.
type Encoding uint8

const (
	// EncodingRaw stores the payload as plain bytes.
	EncodingRaw Encoding = iota
	// EncodingInt is reserved for compact integer strings.
	EncodingInt
)

// Value is a tagged, reference-counted unit of data.
//
// A Value is created with a refcount of 1. Every holder that keeps a
// reference (database entry, argument vector, reply queue, scheduled task)
// must call IncrRef, and DecrRef when it lets go. The payload is released
// exactly when the count reaches zero.
//
// Values are not safe for concurrent use; they are only touched from the
// event loop goroutine.
type Value struct {
	kind     Kind
	encoding Encoding
	refcount int

	str  []byte
	list []*Value
}

// NewString returns a string Value owning b. The caller must not modify b
// afterwards.
func NewString(b []byte) *Value {
	if b == nil {
		b = []byte{}
	}
	return &Value{kind: KindString, encoding: EncodingRaw, refcount: 1, str: b}
}

// NewStringFrom returns a string Value holding s.
func NewStringFrom(s string) *Value {
	return NewString([]byte(s))
}

// NewList returns a list Value. It takes ownership of one reference to
// each element.
func NewList(elems ...*Value) *Value {
	return &Value{kind: KindList, encoding: EncodingRaw, refcount: 1, list: elems}
}

// Kind returns the type tag.
func (v *Value) Kind() Kind { return v.kind }

// Encoding returns the payload representation.
func (v *Value) Encoding() Encoding { return v.encoding }

// RefCount returns the current number of holders.
func (v *Value) RefCount() int { return v.refcount }

// Freed reports whether the value has been released by its last holder.
func (v *Value) Freed() bool { return v.refcount <= 0 }

// Bytes returns the string payload. It returns nil for non-string values.
// The returned slice must be treated as read-only.
func (v *Value) Bytes() []byte {
	if v.kind != KindString {
		return nil
	}
	return v.str
}

// String returns the string payload as a Go string.
func (v *Value) String() string {
	return string(v.Bytes())
}

// Len returns the byte length of a string value or the element count of a list.
func (v *Value) Len() int {
	switch v.kind {
	case KindString:
		return len(v.str)
	case KindList:
		return len(v.list)
	default:
		return 0
	}
}

// Elements returns the list elements. It returns nil for non-list values.
func (v *Value) Elements() []*Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// IncrRef registers one more holder.
func (v *Value) IncrRef() {
	if v.refcount <= 0 {
		panic("object: IncrRef on a released value")
	}
	v.refcount++
}

// DecrRef drops one holder and releases the payload when none remain.
func (v *Value) DecrRef() {
	if v.refcount <= 0 {
		panic("object: DecrRef against refcount <= 0")
	}
	v.refcount--
	if v.refcount > 0 {
		return
	}
	switch v.kind {
	case KindString:
		v.str = nil
	case KindList:
		for _, e := range v.list {
			e.DecrRef()
		}
		v.list = nil
	}
}
