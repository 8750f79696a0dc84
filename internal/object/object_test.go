package object

import (
	"fmt"
	"testing"
)

func TestNewString(t *testing.T) {
	v := NewStringFrom("hello")

	if v.Kind() != KindString {
		t.Errorf("Kind() = %v, want %v", v.Kind(), KindString)
	}
	if v.Encoding() != EncodingRaw {
		t.Errorf("Encoding() = %v, want %v", v.Encoding(), EncodingRaw)
	}
	if v.RefCount() != 1 {
		t.Errorf("RefCount() = %d, want 1", v.RefCount())
	}
	if v.String() != "hello" {
		t.Errorf("String() = %q, want %q", v.String(), "hello")
	}
	if v.Len() != 5 {
		t.Errorf("Len() = %d, want 5", v.Len())
	}
}

func TestNewString_Nil(t *testing.T) {
	v := NewString(nil)
	if v.Bytes() == nil {
		t.Error("Bytes() should not be nil for an empty string")
	}
	if v.Len() != 0 {
		t.Errorf("Len() = %d, want 0", v.Len())
	}
}

func TestValue_RefCounting(t *testing.T) {
	v := NewStringFrom("payload")
	v.IncrRef()
	v.IncrRef()

	if v.RefCount() != 3 {
		t.Fatalf("RefCount() = %d, want 3", v.RefCount())
	}

	v.DecrRef()
	v.DecrRef()
	if v.Freed() {
		t.Fatal("value released while a holder remains")
	}
	if v.String() != "payload" {
		t.Errorf("payload changed before release: %q", v.String())
	}

	v.DecrRef()
	if !v.Freed() {
		t.Error("value should be released after the last DecrRef")
	}
	if v.Bytes() != nil {
		t.Error("payload should be dropped on release")
	}
}

func TestValue_DecrRefPanicsOnDoubleRelease(t *testing.T) {
	v := NewStringFrom("x")
	v.DecrRef()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on double release")
		}
	}()
	v.DecrRef()
}

func TestValue_IncrRefPanicsAfterRelease(t *testing.T) {
	v := NewStringFrom("x")
	v.DecrRef()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on IncrRef of released value")
		}
	}()
	v.IncrRef()
}

func TestList_ReleasesElements(t *testing.T) {
	a := NewStringFrom("a")
	b := NewStringFrom("b")
	b.IncrRef() // held elsewhere too

	l := NewList(a, b)
	if l.Kind() != KindList {
		t.Errorf("Kind() = %v, want %v", l.Kind(), KindList)
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
	if l.Bytes() != nil {
		t.Error("Bytes() of a list should be nil")
	}

	l.DecrRef()

	if !a.Freed() {
		t.Error("element a should be released with the list")
	}
	if b.Freed() {
		t.Error("element b is still referenced and must survive")
	}
	if b.RefCount() != 1 {
		t.Errorf("b.RefCount() = %d, want 1", b.RefCount())
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindString, "string"},
		{KindList, "list"},
		{Kind(9), "kind(9)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

// ============================================================
// DB Tests
// ============================================================

func TestDB_SetLookup(t *testing.T) {
	db := NewDB()

	key := NewStringFrom("k")
	val := NewStringFrom("v")
	db.Set(key, val)

	// A different key object with the same content must match.
	probe := NewStringFrom("k")
	got, ok := db.Lookup(probe)
	if !ok {
		t.Fatal("Lookup() found nothing")
	}
	if got != val {
		t.Error("Lookup() should return the stored value without copying")
	}
	if db.Len() != 1 {
		t.Errorf("Len() = %d, want 1", db.Len())
	}
}

func TestDB_LookupMissing(t *testing.T) {
	db := NewDB()
	if _, ok := db.Lookup(NewStringFrom("absent")); ok {
		t.Error("Lookup() of absent key should report not found")
	}
}

func TestDB_SetCopiesKey(t *testing.T) {
	db := NewDB()

	key := NewStringFrom("k")
	db.Set(key, NewStringFrom("v"))
	key.DecrRef()

	if _, ok := db.Lookup(NewStringFrom("k")); !ok {
		t.Error("entry must survive release of the caller's key")
	}
}

func TestDB_OverwriteReleasesOld(t *testing.T) {
	db := NewDB()

	old := NewStringFrom("old")
	db.Set(NewStringFrom("k"), old)

	nv := NewStringFrom("new")
	db.Set(NewStringFrom("k"), nv)

	if !old.Freed() {
		t.Error("previous value should be released on overwrite")
	}
	got, _ := db.Lookup(NewStringFrom("k"))
	if got.String() != "new" {
		t.Errorf("Lookup() = %q, want %q", got.String(), "new")
	}
	if db.Len() != 1 {
		t.Errorf("Len() = %d, want 1", db.Len())
	}
}

func TestDB_OverwriteKeepsSharedValue(t *testing.T) {
	db := NewDB()

	old := NewStringFrom("old")
	old.IncrRef() // still held by a reply queue
	db.Set(NewStringFrom("k"), old)
	db.Set(NewStringFrom("k"), NewStringFrom("new"))

	if old.Freed() {
		t.Fatal("value still queued for reply must not be released")
	}
	if old.String() != "old" {
		t.Errorf("queued value changed: %q", old.String())
	}
}

func TestDB_Delete(t *testing.T) {
	db := NewDB()
	val := NewStringFrom("v")
	db.Set(NewStringFrom("k"), val)

	if !db.Delete(NewStringFrom("k")) {
		t.Fatal("Delete() = false, want true")
	}
	if !val.Freed() {
		t.Error("deleted value should be released")
	}
	if db.Delete(NewStringFrom("k")) {
		t.Error("second Delete() should report false")
	}
	if db.Len() != 0 {
		t.Errorf("Len() = %d, want 0", db.Len())
	}
}

func TestDB_ManyKeys(t *testing.T) {
	db := NewDB()
	for i := 0; i < 1000; i++ {
		db.Set(NewStringFrom(fmt.Sprintf("key-%d", i)), NewStringFrom(fmt.Sprintf("val-%d", i)))
	}
	if db.Len() != 1000 {
		t.Fatalf("Len() = %d, want 1000", db.Len())
	}
	for i := 0; i < 1000; i++ {
		got, ok := db.Lookup(NewStringFrom(fmt.Sprintf("key-%d", i)))
		if !ok || got.String() != fmt.Sprintf("val-%d", i) {
			t.Fatalf("Lookup(key-%d) = %v, %v", i, got, ok)
		}
	}
}

func TestDB_BinaryKeys(t *testing.T) {
	db := NewDB()
	db.Set(NewString([]byte{0, 1, 2}), NewStringFrom("a"))
	db.Set(NewString([]byte{0, 1, 3}), NewStringFrom("b"))

	got, ok := db.Lookup(NewString([]byte{0, 1, 3}))
	if !ok || got.String() != "b" {
		t.Errorf("Lookup(binary) = %v, %v", got, ok)
	}
}

func TestDB_Flush(t *testing.T) {
	db := NewDB()
	vals := make([]*Value, 0, 10)
	for i := 0; i < 10; i++ {
		v := NewStringFrom("v")
		vals = append(vals, v)
		db.Set(NewStringFrom(fmt.Sprintf("k%d", i)), v)
	}

	db.Flush()

	if db.Len() != 0 {
		t.Errorf("Len() = %d after Flush, want 0", db.Len())
	}
	for i, v := range vals {
		if !v.Freed() {
			t.Errorf("value %d not released by Flush", i)
		}
	}
}

func TestNewShared(t *testing.T) {
	s := NewShared()

	tests := []struct {
		name string
		v    *Value
		want string
	}{
		{"CRLF", s.CRLF, "\r\n"},
		{"NullBulk", s.NullBulk, "$-1\r\n"},
		{"OK", s.OK, "+OK\r\n"},
	}
	for _, tt := range tests {
		if tt.v.String() != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.v.String(), tt.want)
		}
	}
}
