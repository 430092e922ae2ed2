// Package storage provides the list storage engine for blueis.
//
// Lists live in a single SQLite file. Each element is one row in the
// list_items table carrying a sparse signed position; order within a list is
// defined by position alone, so pushes, pops and trims never renumber
// siblings.
//
// Architecture:
//
//   - Writer pool: one connection, one transaction per mutation
//   - Reader pool: read-only transactions that run beside the writer (WAL mode)
//   - KeyLocks: striped per-key mutexes callers hold across check-then-act
//     sequences such as blocking pop registration
//
// The file layout is compatible with earlier blueis releases. A schema
// version row in the blueis table is checked on Open.
package storage
