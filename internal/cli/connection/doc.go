// Package connection provides the timerelay-cli connection to a server.
//
//   - client.go: RESP client, request encoding and reply decoding
//
// One Client holds one TCP connection and issues requests sequentially.
package connection
