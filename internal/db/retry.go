package db

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

const DefaultMaxRetries = 3

// Try executes an operation, retrying on duplicate key errors with
// DefaultMaxRetries attempts. Callers regenerate any random identity
// inside the operation so each attempt gets a fresh one.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries)
}

// WithRetries executes an operation up to maxRetries+1 times, retrying
// only when Mongo reports a duplicate key. Any other error is returned
// immediately.
func WithRetries(op Operation, maxRetries int) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		if !IsMongoDuplicateKeyError(err) {
			return err
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsMongoDuplicateKeyError checks if an error from MongoDB is a duplicate key error (code 11000).
func IsMongoDuplicateKeyError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, writeErr := range we.WriteErrors {
			if writeErr.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, writeErr := range bwe.WriteErrors {
			if writeErr.Code == 11000 {
				return true
			}
		}
	}
	return false
}
