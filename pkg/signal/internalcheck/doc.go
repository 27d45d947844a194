// Package internalcheck provides internal validation and testing utilities.
//
// This package contains policy tests run over the signal wrapper's own
// source: secret byte slices must be compared in constant time, and key
// material must never be hex-formatted into errors or logs. It is not
// intended for external use and the API may change without notice.
package internalcheck
