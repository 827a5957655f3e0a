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


// Package ai provides abstractions for the embeddings providers used by vecdocs.
//
// A KeyConfiguration names the provider variant (standard OpenAI-compatible or
// Azure OpenAI) and its credentials. Implementation packages turn it into an
// AIProvider, which exposes:
//
//   - Embedder: Generates vector embeddings from text
//   - AddDocuments: Writes documents to a vector store in the batch shape the
//     provider tolerates
//
// # Implementation Packages
//
//   - ai/openai: langchaingo-backed providers for OpenAI and Azure OpenAI
//   - ai/cached: Embedder decorator that consults a persistent embedding cache
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return interface
// types. Mock constructors return concrete types so tests can inspect calls.
//
// # Usage Example
//
//	cfg := ai.NewKeyConfiguration(ai.WithAPIKey(key))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
package ai
