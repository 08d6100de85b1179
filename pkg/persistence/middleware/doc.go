// Package middleware provides RecordStore decorators. NewCompressionMiddleware
// stores large session payloads as zstd frames.
package middleware
