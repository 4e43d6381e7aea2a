package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerd/backend/internal/domain/billing"
	"github.com/ledgerd/backend/internal/domain/shared/valueobject"
)

// DefaultSettingsTTL bounds how stale a cached setting can get.
const DefaultSettingsTTL = 5 * time.Minute

// CachedSettingsProvider decorates a billing.CompanySettingsProvider
// with a read-through cache. Cache failures are logged and treated as
// misses; the source of truth always answers.
type CachedSettingsProvider struct {
	inner  billing.CompanySettingsProvider
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// CachedSettingsProviderOption is a functional option for the provider
type CachedSettingsProviderOption func(*CachedSettingsProvider)

// WithSettingsTTL overrides the entry TTL
func WithSettingsTTL(ttl time.Duration) CachedSettingsProviderOption {
	return func(p *CachedSettingsProvider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithSettingsLogger sets the logger
func WithSettingsLogger(logger *zap.Logger) CachedSettingsProviderOption {
	return func(p *CachedSettingsProvider) {
		p.logger = logger
	}
}

// NewCachedSettingsProvider wraps inner with the given store
func NewCachedSettingsProvider(inner billing.CompanySettingsProvider, store Store, opts ...CachedSettingsProviderOption) *CachedSettingsProvider {
	p := &CachedSettingsProvider{
		inner:  inner,
		store:  store,
		ttl:    DefaultSettingsTTL,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

var _ billing.CompanySettingsProvider = (*CachedSettingsProvider)(nil)

// BaseCurrency returns the company's base currency, from cache when warm
func (p *CachedSettingsProvider) BaseCurrency(ctx context.Context, companyID uuid.UUID) (valueobject.Currency, error) {
	key := "currency:" + companyID.String()

	if value, ok, err := p.store.Get(ctx, key); err != nil {
		p.logger.Warn("settings cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return valueobject.Currency(value), nil
	}

	currency, err := p.inner.BaseCurrency(ctx, companyID)
	if err != nil {
		return "", err
	}

	if err := p.store.Set(ctx, key, string(currency), p.ttl); err != nil {
		p.logger.Warn("settings cache write failed", zap.String("key", key), zap.Error(err))
	}
	return currency, nil
}

// SerialFormat returns the company's numbering format for a document
// kind, from cache when warm
func (p *CachedSettingsProvider) SerialFormat(ctx context.Context, companyID uuid.UUID, kind billing.DocumentKind) (billing.SerialFormat, error) {
	key := "format:" + kind.String() + ":" + companyID.String()

	if value, ok, err := p.store.Get(ctx, key); err != nil {
		p.logger.Warn("settings cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var format billing.SerialFormat
		if unmarshalErr := json.Unmarshal([]byte(value), &format); unmarshalErr == nil {
			return format, nil
		}
		// Corrupt entry, drop it and reload from the source
		if delErr := p.store.Delete(ctx, key); delErr != nil {
			p.logger.Warn("settings cache delete failed", zap.String("key", key), zap.Error(delErr))
		}
	}

	format, err := p.inner.SerialFormat(ctx, companyID, kind)
	if err != nil {
		return billing.SerialFormat{}, err
	}

	if encoded, marshalErr := json.Marshal(format); marshalErr == nil {
		if err := p.store.Set(ctx, key, string(encoded), p.ttl); err != nil {
			p.logger.Warn("settings cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return format, nil
}

// Invalidate drops every cached entry for a company. Called after a
// settings update so the next read sees the new values.
func (p *CachedSettingsProvider) Invalidate(ctx context.Context, companyID uuid.UUID) {
	keys := []string{"currency:" + companyID.String()}
	for _, kind := range []billing.DocumentKind{billing.KindInvoice, billing.KindPayment, billing.KindEstimate} {
		keys = append(keys, "format:"+kind.String()+":"+companyID.String())
	}
	for _, key := range keys {
		if err := p.store.Delete(ctx, key); err != nil {
			p.logger.Warn("settings cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
}
