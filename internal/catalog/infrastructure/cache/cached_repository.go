// Package cache wraps the product repository with an in-process LRU and an
// optional shared Redis layer. Products never change once registered, so
// entries are never invalidated; the Redis TTL only bounds memory.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/beaver/internal/catalog/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/beaver/internal/shared/infrastructure/memstore"
	"github.com/felixgeelhaar/beaver/pkg/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultSize = 1024
	defaultTTL  = 24 * time.Hour
)

// RemoteStore is a shared byte cache. Get returns nil, nil on a miss.
type RemoteStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config configures CachedRepository.
type Config struct {
	// Size is the number of products kept in process.
	Size int
	// TTL is the expiry set on Redis entries.
	TTL time.Duration
}

// CachedRepository is a read-through domain.Repository.
type CachedRepository struct {
	next    domain.Repository
	local   *lru.Cache[sharedDomain.Hash, productRecord]
	remote  RemoteStore
	ttl     time.Duration
	metrics observability.Metrics
	logger  *slog.Logger
}

// Option configures a CachedRepository.
type Option func(*CachedRepository)

// WithRemote adds a shared cache layer behind the LRU.
func WithRemote(remote RemoteStore) Option {
	return func(r *CachedRepository) { r.remote = remote }
}

// WithMetrics records hits and misses per layer.
func WithMetrics(m observability.Metrics) Option {
	return func(r *CachedRepository) { r.metrics = m }
}

// WithLogger sets the logger used for remote cache failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *CachedRepository) { r.logger = l }
}

// NewCachedRepository wraps next.
func NewCachedRepository(next domain.Repository, cfg Config, opts ...Option) *CachedRepository {
	if cfg.Size <= 0 {
		cfg.Size = defaultSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	local, err := lru.New[sharedDomain.Hash, productRecord](cfg.Size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	r := &CachedRepository{
		next:    next,
		local:   local,
		ttl:     cfg.TTL,
		metrics: observability.NoopMetrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save writes through to the underlying repository. The cache is filled on
// the first committed read.
func (r *CachedRepository) Save(ctx context.Context, product *domain.Product) error {
	return r.next.Save(ctx, product)
}

// FindByHash serves from the LRU, then Redis, then the repository.
func (r *CachedRepository) FindByHash(ctx context.Context, hash sharedDomain.Hash) (*domain.Product, error) {
	if rec, ok := r.local.Get(hash); ok {
		r.hit("lru")
		return rec.toDomain(), nil
	}
	r.miss("lru")

	if r.remote != nil {
		if rec, ok := r.getRemote(ctx, hash); ok {
			r.hit("redis")
			r.local.Add(hash, rec)
			return rec.toDomain(), nil
		}
		r.miss("redis")
	}

	product, err := r.next.FindByHash(ctx, hash)
	if err != nil || product == nil {
		return product, err
	}
	// A product read inside a transaction may have been created by it and
	// vanish on rollback.
	if !inTransaction(ctx) {
		rec := recordOf(product)
		r.local.Add(hash, rec)
		r.setRemote(ctx, hash, rec)
	}
	return product, nil
}

// FindByMerchant is not cached.
func (r *CachedRepository) FindByMerchant(ctx context.Context, merchant sharedDomain.Address) ([]*domain.Product, error) {
	return r.next.FindByMerchant(ctx, merchant)
}

// Len returns the number of products held in process.
func (r *CachedRepository) Len() int {
	return r.local.Len()
}

func (r *CachedRepository) getRemote(ctx context.Context, hash sharedDomain.Hash) (productRecord, bool) {
	data, err := r.remote.Get(ctx, remoteKey(hash))
	if err != nil {
		r.logger.WarnContext(ctx, "product cache read failed", "product_hash", hash.String(), "error", err)
		return productRecord{}, false
	}
	if data == nil {
		return productRecord{}, false
	}
	var rec productRecord
	if err := json.Unmarshal(data, &rec); err != nil || sharedDomain.ProductHash(rec.terms()) != hash {
		r.logger.WarnContext(ctx, "discarding corrupt product cache entry", "product_hash", hash.String())
		return productRecord{}, false
	}
	return rec, true
}

func (r *CachedRepository) setRemote(ctx context.Context, hash sharedDomain.Hash, rec productRecord) {
	if r.remote == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := r.remote.Set(ctx, remoteKey(hash), data, r.ttl); err != nil {
		r.logger.WarnContext(ctx, "product cache write failed", "product_hash", hash.String(), "error", err)
	}
}

func (r *CachedRepository) hit(layer string) {
	r.metrics.Counter(observability.MetricCacheHits, 1, observability.T("cache", "product"), observability.T("layer", layer))
}

func (r *CachedRepository) miss(layer string) {
	r.metrics.Counter(observability.MetricCacheMisses, 1, observability.T("cache", "product"), observability.T("layer", layer))
}

func remoteKey(hash sharedDomain.Hash) string {
	return "beaver:product:" + hash.String()
}

func inTransaction(ctx context.Context) bool {
	return memstore.TxFromContext(ctx) != nil || database.TxFromContext(ctx) != nil
}

type productRecord struct {
	Merchant     sharedDomain.Address `json:"merchant"`
	MetadataHash sharedDomain.Hash    `json:"metadata_hash"`
	Token        sharedDomain.Address `json:"token"`
	Amount       sharedDomain.Amount  `json:"amount"`
	Period       uint64               `json:"period"`
	FreeTrial    uint64               `json:"free_trial"`
	Grace        uint64               `json:"grace"`
	CreatedAt    int64                `json:"created_at"`
}

func recordOf(p *domain.Product) productRecord {
	t := p.Terms()
	return productRecord{
		Merchant:     t.Merchant,
		MetadataHash: t.MetadataHash,
		Token:        t.Token,
		Amount:       t.Amount,
		Period:       t.Period,
		FreeTrial:    t.FreeTrial,
		Grace:        t.Grace,
		CreatedAt:    p.CreatedAt().Unix(),
	}
}

func (rec productRecord) terms() sharedDomain.ProductTerms {
	return sharedDomain.ProductTerms{
		Merchant:     rec.Merchant,
		MetadataHash: rec.MetadataHash,
		Token:        rec.Token,
		Amount:       rec.Amount,
		Period:       rec.Period,
		FreeTrial:    rec.FreeTrial,
		Grace:        rec.Grace,
	}
}

func (rec productRecord) toDomain() *domain.Product {
	return domain.RehydrateProduct(rec.terms(), time.Unix(rec.CreatedAt, 0).UTC())
}

var _ domain.Repository = (*CachedRepository)(nil)
