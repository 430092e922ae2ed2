// Package service provides domain services for blueis.
//
// Services orchestrate the list storage engine. They define interfaces for
// storage dependencies, allowing for dependency injection and testability.
//
// This package contains:
//
//   - ListService: list operations under per-key locks, blocking pops and
//     push-to-waiter hand-off
//   - Coordinator: the registry of clients blocked on empty lists
//   - Broadcaster: fan-out of executed commands to MONITOR clients
//   - RateLimiterRegistry: per-client command rate limiters
//
// Services are thread-safe and shared by every client connection.
package service
