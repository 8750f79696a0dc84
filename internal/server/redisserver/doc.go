// Package redisserver implements the timerelay request server.
//
// Clients speak the Redis multibulk request format. All parsing, command
// execution and reply bookkeeping run on a single reactor loop; each
// connection has a reader goroutine that posts received bytes to the loop
// and a writer goroutine that performs the socket writes the loop asks for.
//
// Supported commands: GET, SET, RPC, DEL and QUIT.
package redisserver
