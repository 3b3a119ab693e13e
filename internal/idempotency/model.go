// Package idempotency provides replay protection for mutating requests and
// durable checkpoints for the serie schedule cascade.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Status values for stored records. A record is only written once its
// response has been fully produced, so StatusCompleted is the only status the
// middleware currently stores; StatusProcessing is reserved for in-flight
// duplicate suppression.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

var (
	// ErrKeyNotFound is returned when an idempotency key is not found.
	ErrKeyNotFound = errors.New("idempotency key not found")

	// ErrKeyExists is returned when attempting to store a duplicate key.
	ErrKeyExists = errors.New("idempotency key already exists")

	// ErrInvalidKey is returned when the key is empty.
	ErrInvalidKey = errors.New("invalid idempotency key")

	// ErrKeyTooLong is returned when the key exceeds MaxKeyLength.
	ErrKeyTooLong = errors.New("idempotency key exceeds maximum length of 64 characters")
)

// MaxKeyLength is the maximum allowed length for an idempotency key.
const MaxKeyLength = 64

// Record is a stored idempotency key with its cached response. Records are
// CBOR-encoded in the Redis store, so field changes must stay
// backward-decodable.
type Record struct {
	Key                string    `json:"key" cbor:"1,keyasint"`
	Method             string    `json:"method" cbor:"2,keyasint"`
	Route              string    `json:"route" cbor:"3,keyasint"`
	CreatedAt          time.Time `json:"created_at" cbor:"4,keyasint"`
	ResponseHash       string    `json:"response_hash" cbor:"5,keyasint"`
	Status             string    `json:"status" cbor:"6,keyasint"`
	ResponseBody       string    `json:"response_body" cbor:"7,keyasint"`
	ResponseStatusCode int       `json:"response_status_code" cbor:"8,keyasint"`
}

// ValidateKey checks an idempotency key: non-empty and at most MaxKeyLength.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	return nil
}

// ComputeResponseHash computes a SHA256 hash of the response body, used to
// verify integrity of replayed responses.
func ComputeResponseHash(responseBody string) string {
	hash := sha256.Sum256([]byte(responseBody))
	return hex.EncodeToString(hash[:])
}

// Repository defines idempotency record persistence.
type Repository interface {
	// Get retrieves a record by key. Returns ErrKeyNotFound if absent.
	Get(ctx context.Context, key string) (*Record, error)

	// Store saves a new record. Returns ErrKeyExists on duplicates.
	Store(ctx context.Context, record *Record) error

	// DeleteOlderThan removes records older than the given duration and
	// returns how many were removed. Stores with native expiry may report 0.
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}
