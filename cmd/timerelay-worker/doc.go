// Command timerelay-worker accepts payloads forwarded by timerelay-server
// and prints them to stdout.
//
// Usage:
//
//	timerelay-worker --listen 127.0.0.1:8001
package main
