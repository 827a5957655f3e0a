// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.



package vecdocs

import (
	"context"

	"github.com/poiesic/vecdocs/ai"
	"github.com/poiesic/vecdocs/ingestion"
	"github.com/poiesic/vecdocs/search"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// Bound is an Index bound to a single key configuration.
type Bound struct {
	idx *Index
	cfg *ai.KeyConfiguration
}

var (
	_ ingestion.Saver    = (*Bound)(nil)
	_ ingestion.Deleter  = (*Bound)(nil)
	_ search.StoreOpener = (*Bound)(nil)
)

// Bind returns a view of idx that uses cfg for every operation.
func (idx *Index) Bind(cfg *ai.KeyConfiguration) *Bound {
	return &Bound{idx: idx, cfg: cfg}
}

// Save calls SaveEmbeddings with the bound configuration.
func (b *Bound) Save(ctx context.Context, docs []schema.Document) error {
	return b.idx.SaveEmbeddings(ctx, b.cfg, docs)
}

// DeleteFile removes every row of fileName.
func (b *Bound) DeleteFile(ctx context.Context, fileName string) (int64, error) {
	return b.idx.DeleteFile(ctx, fileName)
}

// OpenStore calls GetExistingVectorStore with the bound configuration.
func (b *Bound) OpenStore(ctx context.Context, fileName string) (vectorstores.VectorStore, error) {
	store, err := b.idx.GetExistingVectorStore(ctx, b.cfg, fileName)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewIngestionPipeline creates a pipeline that saves through idx with cfg.
func (idx *Index) NewIngestionPipeline(cfg *ai.KeyConfiguration, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	if cfg == nil {
		return nil, ErrKeyConfigurationRequired
	}
	return ingestion.NewPipeline(idx.Bind(cfg), opts...)
}

// NewSearcher creates a searcher over idx using cfg to embed queries.
func (idx *Index) NewSearcher(cfg *ai.KeyConfiguration, opts ...search.Option) (*search.Searcher, error) {
	if cfg == nil {
		return nil, ErrKeyConfigurationRequired
	}
	return search.NewSearcher(idx.Bind(cfg), opts...)
}
