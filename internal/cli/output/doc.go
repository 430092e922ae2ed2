// Package output renders server replies for blueis-cli.
//
// Three formats are supported:
//
//   - raw: the redis-cli layout, e.g. `1) "a"` and `(integer) 3`
//   - json: replies as JSON values, errors as {"error": "..."}
//   - yaml: the same values as YAML documents
package output
