package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs a function inside a MongoDB multi-document transaction.
// Requires a replica set or sharded cluster.
type Transactor struct {
	client *mongo.Client
}

func NewTransactor(client *mongo.Client) *Transactor {
	return &Transactor{client: client}
}

// WithinTransaction commits when fn returns nil and aborts otherwise.
// Repository calls made with the ctx passed to fn join the transaction.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
