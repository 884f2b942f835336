package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
)

// readProducts 读取 JSON 商品数组：[{"id":1,"name":"Green tea","available":true}, ...]
func readProducts(path string) ([]core.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var products []core.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, p := range products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("product #%d: id must be positive", i)
		}
	}
	return products, nil
}

func newImportCatalogCmd(cfg func() Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import-catalog <products.json>",
		Short: "Upsert products from a JSON array into the SQLite catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if c.CatalogDSN == "" {
				return errors.New("SHOPREC_CATALOG_DSN is required")
			}
			products, err := readProducts(args[0])
			if err != nil {
				return err
			}
			sc, err := catalog.OpenSQLite(cmd.Context(), c.CatalogDSN)
			if err != nil {
				return err
			}
			defer sc.Close()
			if err := sc.Upsert(cmd.Context(), products...); err != nil {
				return err
			}
			logging.Info().Int("products", len(products)).Str("dsn", c.CatalogDSN).Msg("catalog imported")
			return nil
		},
	}
}
