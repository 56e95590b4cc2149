// Package store persists test runs in sqlite and discovered flows as JSON
// files in the cache directory.
package store
