// Package connection provides the RESP client blueis-cli talks to the
// server with.
//
// A Client sends commands as RESP arrays of bulk strings and parses RESP2
// replies into Reply values. Plain TCP and TLS are supported.
package connection
