// Package tests provides end-to-end tests for blueis.
//
// The tests start a real server on a temporary SQLite database and drive it
// with the blueis-cli client library. Skip them with -short.
package tests
