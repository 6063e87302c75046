package config

// ServerConfig defines the HTTP boundary
type ServerConfig struct {
	Listen string `hcl:"listen,optional"` // Address for the HTTP server
}

// Defaults fills in default values for unset fields
func (s *ServerConfig) Defaults() {
	if s.Listen == "" {
		s.Listen = ":8080"
	}
}
