// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/teradata-labs/strata/pkg/cache"
	"github.com/teradata-labs/strata/pkg/config"
	"github.com/teradata-labs/strata/pkg/db"
	"github.com/teradata-labs/strata/pkg/intent"
	"github.com/teradata-labs/strata/pkg/llm/factory"
	"github.com/teradata-labs/strata/pkg/sqlgen"
)

// Bootstrap builds a ready-to-serve engine from configuration: it opens
// the database, snapshots the schema, constructs the providers and wires
// the cache tiers. Composition happens here, once; the engine holds
// capabilities, not configuration.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	database, err := db.Open(ctx, db.Config{
		Driver: db.Driver(cfg.Database.Driver),
		DSN:    cfg.Database.DSN,
		Logger: logger.Named("db"),
	})
	if err != nil {
		return nil, err
	}
	closers := []io.Closer{database}

	generator, err := factory.NewGenerator(factory.ProviderConfig{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
		Logger:    logger.Named("llm"),
	})
	if err != nil {
		database.Close()
		return nil, err
	}

	parser, err := intent.NewParser(intent.ParserConfig{
		Generator:         generator,
		SchemaDescription: database.DescribeSchema(),
		Tables:            database.Tables(),
		MaxQueryLength:    cfg.Limits.MaxQueryLength,
		Logger:            logger.Named("intent"),
	})
	if err != nil {
		database.Close()
		return nil, err
	}

	sqlGen, err := sqlgen.NewGenerator(sqlgen.GeneratorConfig{
		Generator: generator,
		Executor:  database,
		Logger:    logger.Named("sqlgen"),
	})
	if err != nil {
		database.Close()
		return nil, err
	}

	var l1 cache.Store
	if cfg.Cache.L1.Enabled {
		if cfg.Cache.L1.RedisURL != "" {
			redisStore, err := cache.NewRedisStore(ctx, cache.RedisStoreConfig{
				URL:    cfg.Cache.L1.RedisURL,
				TTL:    cfg.Cache.L1.TTL,
				Logger: logger.Named("cache.l1"),
			})
			if err != nil {
				database.Close()
				return nil, err
			}
			l1 = redisStore
		} else {
			l1 = cache.NewMemoryStore(cache.MemoryStoreConfig{
				MaxSize: cfg.Cache.L1.MaxSize,
				Logger:  logger.Named("cache.l1"),
			})
		}
	}

	var l2 *cache.SemanticStore
	if cfg.Cache.L2.Enabled {
		apiKey := cfg.Cache.L2.APIKey
		if apiKey == "" && cfg.Cache.L2.Provider == cfg.LLM.Provider {
			apiKey = cfg.LLM.APIKey
		}
		embedder, err := factory.NewEmbedder(factory.ProviderConfig{
			Provider: cfg.Cache.L2.Provider,
			Model:    cfg.Cache.L2.Model,
			APIKey:   apiKey,
			Logger:   logger.Named("llm.embed"),
		})
		if err != nil {
			database.Close()
			return nil, err
		}
		l2, err = cache.NewSemanticStore(cache.SemanticStoreConfig{
			Embedder:  embedder,
			Threshold: cfg.Cache.L2.Threshold,
			MaxSize:   cfg.Cache.L2.MaxSize,
			Logger:    logger.Named("cache.l2"),
		})
		if err != nil {
			database.Close()
			return nil, err
		}
	}

	return New(Config{
		Parser:    parser,
		Executor:  database,
		Generator: sqlGen,
		L1:        l1,
		L2:        l2,
		Costs: cache.CostConfig{
			L1Hit:    cfg.Costs.L1Hit,
			Embed:    cfg.Costs.Embed,
			Generate: cfg.Costs.Generate,
		},
		Closers: closers,
		Logger:  logger.Named("engine"),
	})
}
