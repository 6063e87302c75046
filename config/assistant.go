package config

import "fmt"

// AssistantConfig tunes the conversation engine
type AssistantConfig struct {
	Model            string `hcl:"model"`                      // Label of a model block
	TurnTimeoutSecs  int    `hcl:"turn_timeout,optional"`      // Wall-clock budget per turn, seconds
	MaxToolRounds    int    `hcl:"max_tool_rounds,optional"`   // Cap on function-call rounds per turn
	SystemPrompt     string `hcl:"system_prompt,optional"`     // Extra system instructions
}

// Defaults fills in default values for unset fields
func (a *AssistantConfig) Defaults() {
	if a.TurnTimeoutSecs == 0 {
		a.TurnTimeoutSecs = 30
	}
	if a.MaxToolRounds == 0 {
		a.MaxToolRounds = 8
	}
}

func (a *AssistantConfig) Validate() error {
	if a.Model == "" {
		return fmt.Errorf("model is required")
	}
	if a.TurnTimeoutSecs < 0 {
		return fmt.Errorf("turn_timeout must be positive")
	}
	if a.MaxToolRounds < 0 {
		return fmt.Errorf("max_tool_rounds must be positive")
	}
	return nil
}
