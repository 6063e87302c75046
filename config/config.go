package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Config holds all configuration
type Config struct {
	Models    []Model          `hcl:"model,block"`
	Storage   *StorageConfig   `hcl:"storage,block"`
	Assistant *AssistantConfig `hcl:"assistant,block"`
	Server    *ServerConfig    `hcl:"server,block"`
}

func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadAndValidate loads the config and validates all components
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func LoadFile(filename string) (*Config, error) {
	return loadFromFiles([]string{filename})
}

func LoadDir(dir string) (*Config, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.hcl"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files in %s", dir)
	}
	return loadFromFiles(files)
}

func loadFromFiles(files []string) (*Config, error) {
	parser := hclparse.NewParser()
	evalCtx := buildEvalContext()

	cfg := &Config{}
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parse %s: %w", file, diags)
		}

		var partial Config
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &partial); diags.HasErrors() {
			return nil, fmt.Errorf("decode %s: %w", file, diags)
		}

		cfg.Models = append(cfg.Models, partial.Models...)
		if partial.Storage != nil {
			cfg.Storage = partial.Storage
		}
		if partial.Assistant != nil {
			cfg.Assistant = partial.Assistant
		}
		if partial.Server != nil {
			cfg.Server = partial.Server
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

// buildEvalContext exposes process environment variables to HCL expressions
// as env.VAR_NAME, so API keys never have to live in config files.
func buildEvalContext() *hcl.EvalContext {
	envVals := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 && parts[0] != "" {
			envVals[parts[0]] = cty.StringVal(parts[1])
		}
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(envVals),
		},
	}
}

func (c *Config) applyDefaults() {
	if c.Storage != nil {
		c.Storage.Defaults()
	}
	if c.Assistant != nil {
		c.Assistant.Defaults()
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	c.Server.Defaults()
}

// Validate checks that all config components are valid
func (c *Config) Validate() error {
	for _, m := range c.Models {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("model '%s': %w", m.Name, err)
		}
	}

	if c.Assistant == nil {
		return fmt.Errorf("missing assistant block")
	}
	if err := c.Assistant.Validate(); err != nil {
		return fmt.Errorf("assistant: %w", err)
	}

	if _, err := c.ResolveModel(c.Assistant.Model); err != nil {
		return fmt.Errorf("assistant: %w", err)
	}

	return nil
}

// ResolveModel finds the model block with the given label
func (c *Config) ResolveModel(name string) (*Model, error) {
	for i := range c.Models {
		if c.Models[i].Name == name {
			return &c.Models[i], nil
		}
	}
	return nil, fmt.Errorf("model '%s' not found", name)
}
