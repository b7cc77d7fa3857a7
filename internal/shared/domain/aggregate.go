package domain

// AggregateRoot is a product, subscription or payment: something keyed by a
// hash that collects events until the transaction that changed it commits.
type AggregateRoot interface {
	Key() Hash
	DomainEvents() []DomainEvent
	PullDomainEvents() []DomainEvent
	Version() int
}

// BaseAggregateRoot is embedded by aggregates for event collection and the
// optimistic-lock version. The zero value is ready to use.
type BaseAggregateRoot struct {
	pending []DomainEvent
	version int
}

func NewBaseAggregateRoot() BaseAggregateRoot { return BaseAggregateRoot{} }

// RehydrateBaseAggregateRoot restores a stored version with no pending events.
func RehydrateBaseAggregateRoot(version int) BaseAggregateRoot {
	return BaseAggregateRoot{version: version}
}

// DomainEvents returns the pending events without consuming them.
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent {
	return append([]DomainEvent(nil), a.pending...)
}

// PullDomainEvents returns the pending events and forgets them.
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.pending
	a.pending = nil
	return events
}

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

func (a *BaseAggregateRoot) Version() int { return a.version }

func (a *BaseAggregateRoot) IncrementVersion() { a.version++ }
