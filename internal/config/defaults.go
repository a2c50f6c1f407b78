package config

// Default configuration values.
const (
	DefaultDriver   = "sqlite"
	DefaultDSN      = ".backoffice/backoffice.db"
	DefaultPort     = 8080
	DefaultLogLevel = "info"
	DefaultOutput   = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultPerPage  = 25
	MaxPerPage      = 200
	DefaultTimeout  = "10s"
)

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{"auto", "text", "markdown", "json"}

// defaults is the lowest-priority configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"database.driver":       DefaultDriver,
		"database.dsn":          DefaultDSN,
		"server.port":           DefaultPort,
		"server.session_secret": "",
		"server.watch":          true,
		"api.timeout":           DefaultTimeout,
		"log_level":             DefaultLogLevel,
		"output":                DefaultOutput,
		"dev":                   false,
	}
}
