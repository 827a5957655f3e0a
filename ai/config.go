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


package ai

import (
	"errors"
	"fmt"
	"strings"
)

// APIType identifies which embeddings provider a KeyConfiguration targets.
type APIType string

const (
	// APITypeOpenAI targets OpenAI or any OpenAI-compatible endpoint.
	APITypeOpenAI APIType = "openai"

	// APITypeAzureOpenAI targets an Azure-hosted OpenAI deployment.
	APITypeAzureOpenAI APIType = "azure"
)

// DefaultAzureAPIVersion is used when an Azure configuration does not name one.
const DefaultAzureAPIVersion = "2023-05-15"

// ParseAPIType converts a user-supplied provider name to an APIType.
func ParseAPIType(s string) (APIType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "openai":
		return APITypeOpenAI, nil
	case "azure", "azure-openai", "azure_openai":
		return APITypeAzureOpenAI, nil
	default:
		return "", fmt.Errorf("unknown api type %q: must be one of openai, azure", s)
	}
}

// KeyConfiguration identifies an embeddings provider and the credentials used to reach it.
type KeyConfiguration struct {
	// APIType selects the provider variant. Default: APITypeOpenAI.
	APIType APIType

	// APIKey is the bearer token (OpenAI) or api-key (Azure).
	// Local OpenAI-compatible servers accept any value.
	APIKey string

	// Host is the base URL of an OpenAI-compatible API.
	// Example: "https://api.openai.com/v1", "http://localhost:11434/v1"
	// Ignored for Azure.
	Host string

	// EmbeddingModel is the model identifier for text embeddings.
	// Example: "text-embedding-3-small", "embeddinggemma"
	EmbeddingModel string

	// AzureInstanceName is the Azure OpenAI resource name, as in
	// https://<instance>.openai.azure.com.
	AzureInstanceName string

	// AzureAPIVersion is the Azure REST api-version. Default: DefaultAzureAPIVersion.
	AzureAPIVersion string

	// AzureEmbeddingDeployment is the deployment serving embeddings.
	AzureEmbeddingDeployment string

	// AzureEndpoint overrides the https://<instance>.openai.azure.com endpoint,
	// for custom domains and private endpoints.
	AzureEndpoint string
}

// KeyOption is a functional option for configuring a KeyConfiguration.
type KeyOption func(*KeyConfiguration)

// WithAPIType sets the provider variant.
func WithAPIType(apiType APIType) KeyOption {
	return func(c *KeyConfiguration) {
		c.APIType = apiType
	}
}

// WithAPIKey sets the provider credential.
func WithAPIKey(key string) KeyOption {
	return func(c *KeyConfiguration) {
		c.APIKey = key
	}
}

// WithHost sets the OpenAI-compatible base URL.
func WithHost(host string) KeyOption {
	return func(c *KeyConfiguration) {
		c.Host = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) KeyOption {
	return func(c *KeyConfiguration) {
		c.EmbeddingModel = model
	}
}

// WithAzure configures an Azure OpenAI deployment and switches the API type to Azure.
func WithAzure(instanceName, embeddingDeployment, apiVersion string) KeyOption {
	return func(c *KeyConfiguration) {
		c.APIType = APITypeAzureOpenAI
		c.AzureInstanceName = instanceName
		c.AzureEmbeddingDeployment = embeddingDeployment
		c.AzureAPIVersion = apiVersion
	}
}

// WithAzureEndpoint sets a custom Azure OpenAI endpoint.
func WithAzureEndpoint(endpoint string) KeyOption {
	return func(c *KeyConfiguration) {
		c.AzureEndpoint = endpoint
	}
}

// DefaultKeyConfiguration returns a configuration for the public OpenAI API.
func DefaultKeyConfiguration() *KeyConfiguration {
	return &KeyConfiguration{
		APIType:         APITypeOpenAI,
		Host:            "https://api.openai.com/v1",
		EmbeddingModel:  "text-embedding-ada-002",
		AzureAPIVersion: DefaultAzureAPIVersion,
	}
}

// NewKeyConfiguration creates a KeyConfiguration with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewKeyConfiguration(
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	)
//
// Example for Azure:
//
//	cfg := NewKeyConfiguration(
//	    WithAPIKey(os.Getenv("AZURE_OPENAI_API_KEY")),
//	    WithAzure("my-resource", "embeddings", "2023-05-15"),
//	)
func NewKeyConfiguration(opts ...KeyOption) *KeyConfiguration {
	cfg := DefaultKeyConfiguration()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// IsAzure reports whether the configuration targets Azure OpenAI.
func (c *KeyConfiguration) IsAzure() bool {
	return c.APIType == APITypeAzureOpenAI
}

// AzureBaseURL returns the endpoint of the configured Azure resource.
func (c *KeyConfiguration) AzureBaseURL() string {
	if c.AzureEndpoint != "" {
		return strings.TrimSuffix(c.AzureEndpoint, "/")
	}
	return "https://" + c.AzureInstanceName + ".openai.azure.com"
}

// ModelID identifies the embedding model the configuration resolves to.
// Vectors produced under different ModelIDs are not comparable.
func (c *KeyConfiguration) ModelID() string {
	if c.IsAzure() {
		return "azure:" + c.AzureBaseURL() + "/" + c.AzureEmbeddingDeployment
	}
	return c.EmbeddingModel
}

// Normalize ensures the configuration is in a canonical form.
// An empty APIType becomes APITypeOpenAI, standard hosts gain the /v1 suffix
// expected by OpenAI-compatible APIs, and Azure gets a default api-version.
func (c *KeyConfiguration) Normalize() {
	if c.APIType == "" {
		c.APIType = APITypeOpenAI
	}
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
	if c.IsAzure() && c.AzureAPIVersion == "" {
		c.AzureAPIVersion = DefaultAzureAPIVersion
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *KeyConfiguration) Validate() error {
	c.Normalize()

	switch c.APIType {
	case APITypeOpenAI:
		if c.Host == "" {
			return errors.New("key configuration: Host is required")
		}
		if c.EmbeddingModel == "" {
			return errors.New("key configuration: EmbeddingModel is required")
		}
	case APITypeAzureOpenAI:
		if c.APIKey == "" {
			return errors.New("key configuration: APIKey is required for azure")
		}
		if c.AzureInstanceName == "" && c.AzureEndpoint == "" {
			return errors.New("key configuration: AzureInstanceName or AzureEndpoint is required for azure")
		}
		if c.AzureEmbeddingDeployment == "" {
			return errors.New("key configuration: AzureEmbeddingDeployment is required for azure")
		}
	default:
		return fmt.Errorf("key configuration: unknown APIType %q", c.APIType)
	}
	return nil
}
