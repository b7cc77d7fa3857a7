package application

import "context"

// Command represents a request that modifies router state.
type Command interface {
	CommandName() string
}

// Query represents a read-only request.
type Query interface {
	QueryName() string
}

// CommandHandler handles a specific command type and returns its result.
type CommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// QueryHandler handles a specific query type.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
