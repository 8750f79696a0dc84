// Package output renders server replies for timerelay-cli.
//
//   - formatter.go: Formatter interface, factory and the text format
//   - json.go: JSON output
//   - yaml.go: YAML output
//
// The text format follows redis-cli conventions; json and yaml emit a
// {type, value} document for scripting.
package output
