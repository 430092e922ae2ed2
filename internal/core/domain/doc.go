// Package domain defines the core domain types for blueis.
//
// Domain types are pure values without IO dependencies. This package contains:
//
//   - Side: the end of a list a push, pop or move operates on
//   - PopResult: the key/value pair delivered to a blocking pop
//   - MonitorRecord: a copy of one executed command for MONITOR clients
//   - Errors: error kinds shared by the storage engine, services and dispatcher
package domain
