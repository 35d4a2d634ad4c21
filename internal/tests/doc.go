// Package tests provides end-to-end tests that run the storage engine,
// the protocol server and the client together.
package tests
