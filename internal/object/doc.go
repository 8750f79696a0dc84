// Package object provides the value model of timerelay.
//
// Values are tagged, reference-counted units of data. The database, the
// per-connection argument vectors, the reply queues and the scheduled
// tasks all hold references to the same Value instead of copying payload
// bytes. A Value releases its payload exactly when the last holder calls
// DecrRef.
//
// Everything in this package is owned by the server's event loop and is
// therefore not synchronized.
package object
