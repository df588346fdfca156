package prefs

import (
	"context"

	"github.com/IDAN2468D/NovaNews/internal/cache"
)

// MetaKV stores preferences in the cache database's meta table.
type MetaKV struct {
	db *cache.Cache
}

func NewMetaKV(db *cache.Cache) *MetaKV {
	return &MetaKV{db: db}
}

func (m *MetaKV) Get(_ context.Context, key string) (string, bool, error) {
	return m.db.GetMeta(key)
}

func (m *MetaKV) Set(_ context.Context, key, value string) error {
	return m.db.SetMeta(key, value)
}
