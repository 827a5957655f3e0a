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


// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// This package implements the ai.AIProvider interface using the langchaingo
// library to communicate with OpenAI, OpenAI-compatible services (such as
// Ollama, LocalAI, or vLLM) or Azure OpenAI deployments.
//
// The provider variant follows the configuration's APIType. The standard
// provider writes all documents to the vector store in one call; the Azure
// provider writes them one at a time, in order.
//
// # Usage
//
//	cfg := ai.NewKeyConfiguration(
//	    ai.WithAPIKey(os.Getenv("AZURE_OPENAI_API_KEY")),
//	    ai.WithAzure("my-resource", "embeddings", ""),
//	)
//
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedTexts(ctx, []string{"sample text"})
package openai
