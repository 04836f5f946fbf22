// internal/app/system/txn/txn.go

// Package txn wraps multi-document MongoDB transactions with a graceful
// fallback for deployments that cannot run them (standalone servers,
// DocumentDB variants). Callers pass a function that performs all writes with
// the supplied context; on unsupported deployments the function runs once
// outside a transaction.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction runs fn inside a MongoDB transaction when the deployment
// supports them. If the server reports that transactions are unavailable, fn
// is re-run once without a transaction. supported reports which path ran.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) (supported bool, err error) {
	session, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return false, fn(ctx)
		}
		return false, err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return false, fn(ctx)
	}
	return true, err
}

// IsNotSupported reports whether err indicates the deployment cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		// 20: IllegalOperation (standalone), 51: transactions disabled,
		// 263: OperationNotSupportedInTransaction
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "transaction") && strings.Contains(s, "replica set") {
		return true
	}
	if strings.Contains(s, "session") && strings.Contains(s, "not supported") {
		return true
	}
	if strings.Contains(s, "transaction") && strings.Contains(s, "session") {
		return true
	}
	if strings.Contains(s, "illegal operation") && strings.Contains(s, "transaction") {
		return true
	}
	return false
}
