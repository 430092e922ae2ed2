// Package localserver provides the Unix domain socket listener for local
// clients.
//
// The socket speaks the same RESP protocol as the TCP listener. Access is
// controlled by file system permissions on the socket file:
//
//   - A stale socket left by a crashed process is removed on start
//   - A socket still served by another process is an error
//   - The socket file is removed when the listener closes
package localserver
