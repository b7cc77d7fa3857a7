package app

import (
	assetsDomain "github.com/felixgeelhaar/beaver/internal/assets/domain"
	assetsPersistence "github.com/felixgeelhaar/beaver/internal/assets/infrastructure/persistence"
	catalogDomain "github.com/felixgeelhaar/beaver/internal/catalog/domain"
	catalogPersistence "github.com/felixgeelhaar/beaver/internal/catalog/infrastructure/persistence"
	paymentsDomain "github.com/felixgeelhaar/beaver/internal/payments/domain"
	paymentsPersistence "github.com/felixgeelhaar/beaver/internal/payments/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/beaver/internal/shared/application"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/outbox"
	subscriptionsDomain "github.com/felixgeelhaar/beaver/internal/subscriptions/domain"
	subscriptionsPersistence "github.com/felixgeelhaar/beaver/internal/subscriptions/infrastructure/persistence"
)

// RepositoryFactory creates repositories for one storage substrate. Every
// repository it returns joins the transactions of the factory's UnitOfWork.
type RepositoryFactory struct {
	conn  database.Connection
	store *memstore.Store
}

// NewRepositoryFactory creates a factory over a SQL connection.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// NewMemoryRepositoryFactory creates a factory over an in-memory store.
func NewMemoryRepositoryFactory(store *memstore.Store) *RepositoryFactory {
	return &RepositoryFactory{store: store}
}

// Backend names the substrate: "memory", "sqlite" or "postgres".
func (f *RepositoryFactory) Backend() string {
	if f.store != nil {
		return "memory"
	}
	return f.conn.Driver().String()
}

// UnitOfWork creates the unit of work for the substrate.
func (f *RepositoryFactory) UnitOfWork() sharedApplication.UnitOfWork {
	if f.store != nil {
		return memstore.NewUnitOfWork(f.store)
	}
	return database.NewUnitOfWork(f.conn)
}

// ProductRepository creates the uncached product repository.
func (f *RepositoryFactory) ProductRepository() catalogDomain.Repository {
	if f.store != nil {
		return catalogPersistence.NewMemoryProductRepository(f.store)
	}
	return catalogPersistence.NewSQLProductRepository(f.conn)
}

// SubscriptionRepository creates the subscription repository.
func (f *RepositoryFactory) SubscriptionRepository() subscriptionsDomain.Repository {
	if f.store != nil {
		return subscriptionsPersistence.NewMemorySubscriptionRepository(f.store)
	}
	return subscriptionsPersistence.NewSQLSubscriptionRepository(f.conn)
}

// PaymentRepository creates the payment receipt repository.
func (f *RepositoryFactory) PaymentRepository() paymentsDomain.Repository {
	if f.store != nil {
		return paymentsPersistence.NewMemoryPaymentRepository(f.store)
	}
	return paymentsPersistence.NewSQLPaymentRepository(f.conn)
}

// BalanceStore creates the token balance store backing the local ledger.
func (f *RepositoryFactory) BalanceStore() assetsDomain.BalanceStore {
	if f.store != nil {
		return assetsPersistence.NewMemoryBalanceStore(f.store)
	}
	return assetsPersistence.NewSQLBalanceStore(f.conn)
}

// OutboxRepository creates the outbox repository.
func (f *RepositoryFactory) OutboxRepository() outbox.Repository {
	if f.store != nil {
		return outbox.NewMemoryRepository(f.store)
	}
	return outbox.NewSQLRepository(f.conn)
}
