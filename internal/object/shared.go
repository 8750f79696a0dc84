package object

// Shared holds the constant reply values that every connection of one
// server references instead of allocating a fresh value per reply.
// The struct itself owns one reference to each, so they are never released
// while the server is alive.
type Shared struct {
	CRLF         *Value
	NullBulk     *Value
	OK           *Value
	WrongTypeErr *Value
}

// NewShared creates the shared reply values.
func NewShared() *Shared {
	return &Shared{
		CRLF:         NewStringFrom("\r\n"),
		NullBulk:     NewStringFrom("$-1\r\n"),
		OK:           NewStringFrom("+OK\r\n"),
		WrongTypeErr: NewStringFrom("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n"),
	}
}
