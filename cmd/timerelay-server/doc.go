// Command timerelay-server runs the request server.
//
// Clients store values with GET/SET/DEL and schedule payload forwards with
// RPC; due payloads are written to worker addresses as RESP bulk strings.
//
// Usage:
//
//	timerelay-server [flags]
//	timerelay-server --config /etc/timerelay/timerelay.yaml
//	timerelay-server -p 6380 --log-level debug --daemonize
//
// Configuration is read from defaults, the YAML file, TIMERELAY_*
// environment variables and flags, in increasing priority. Changing
// log.level in the file takes effect without a restart.
package main
