// Package redisserver serves the blueis list commands over RESP2.
//
// The codec (resp.go) reads arrays of bulk strings and inline commands
// and writes RESP2 replies. CommandHandler validates each command against
// a static table before it reaches storage; Server runs one goroutine per
// connection, parks blocked clients without holding locks and streams
// MONITOR output.
package redisserver
