package main

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/config/builders"
	"github.com/rushteam/shoprec/copurchase"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/shop"
	"github.com/rushteam/shoprec/store"
)

// app 持有一次命令执行期间的客户端句柄，结束时统一关闭。
type app struct {
	cfg         Config
	store       core.RankedStore
	catalog     *catalog.SQLiteCatalog
	recommender *copurchase.Recommender
	closers     []func() error
}

func newApp(ctx context.Context, cfg Config) (*app, error) {
	a := &app{cfg: cfg}

	rs, err := store.NewRedisStoreWithOptions(&redis.Options{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rs.Close)
	a.store = store.NewBreakerStore(rs, store.BreakerConfig{
		Name:             "redis",
		FailureThreshold: cfg.BreakerFailures,
		OpenTimeout:      cfg.BreakerOpenTimeout,
	})

	var cat core.Catalog
	if cfg.CatalogDSN != "" {
		sc, err := catalog.OpenSQLite(ctx, cfg.CatalogDSN)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, sc.Close)
		a.catalog = sc
		cat = sc
	}

	a.recommender = copurchase.New(a.store, cat,
		copurchase.WithKeyPrefix(cfg.KeyPrefix),
		copurchase.WithMaxResults(cfg.MaxResults),
		copurchase.WithTimeout(cfg.Timeout),
	)
	return a, nil
}

// shop 构建店面推荐位；配置了 SHOPREC_PIPELINE 时两个推荐位都使用该链路。
func (a *app) shop() (*shop.Service, error) {
	if a.catalog == nil {
		return nil, errors.New("SHOPREC_CATALOG_DSN is required to resolve products")
	}
	if a.cfg.Pipeline == "" {
		return shop.New(a.recommender, a.catalog), nil
	}

	builders.Register(builders.Deps{Recommender: a.recommender, Catalog: a.catalog, Store: a.store})
	pc, err := pipeline.LoadFromYAML(a.cfg.Pipeline)
	if err != nil {
		return nil, err
	}
	p, err := config.Build(pc)
	if err != nil {
		return nil, err
	}
	return shop.New(a.recommender, a.catalog, shop.WithPipelines(p, p)), nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
