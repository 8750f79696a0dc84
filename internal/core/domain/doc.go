// Package domain defines the error model of timerelay.
//
// Command handlers report failures as *DomainError values carrying a
// stable code (TR-<AREA>-<NNNN>) and a client-facing message. The
// protocol layer turns them into "-ERR <message>" replies; the code is
// used for logs and metrics.
package domain
