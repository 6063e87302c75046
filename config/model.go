package config

import "fmt"

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// Model represents a model provider configuration
type Model struct {
	Name      string   `hcl:"name,label"`
	Provider  Provider `hcl:"provider"`
	ModelName string   `hcl:"model_name"`
	APIKey    string   `hcl:"api_key"`
}

func (m *Model) Validate() error {
	switch m.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported provider '%s'", m.Provider)
	}

	if m.ModelName == "" {
		return fmt.Errorf("model_name is required")
	}
	if m.APIKey == "" {
		return fmt.Errorf("api_key is not set")
	}
	return nil
}
