package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and dotenv files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Catalog connection
	Host      string
	AccessKey string
	SecretKey string

	// Listing filters
	RuleStatus  string
	RuleType    string
	Tag         string
	AssemblyIDs string

	// Run behavior
	OverrideLabels bool
	LedgerDir      string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (bound by cobra with these values as defaults)
//  2. Environment variables
//  3. config.env / .env files
//  4. Config file (stablemark.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	// Load dotenv files first (before Viper env binding)
	loadEnvFiles()

	// Set up Viper for environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Bind the deployment keys, which are flat names without a prefix
	bindDeploymentKeys()

	// Try to read config file if it exists
	configFile := os.Getenv("STABLEMARK_CONFIG")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Search for config in standard locations
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "stablemark"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("stablemark")
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	// Build config from viper
	config := &Config{
		// Global flags (may be overridden by cobra flags later)
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),
		Format:  viper.GetString("format"),

		// Config file
		ConfigFile: viper.ConfigFileUsed(),

		// Catalog connection
		Host:      viper.GetString("host"),
		AccessKey: viper.GetString("access_key"),
		SecretKey: viper.GetString("secret_key"),

		// Listing filters
		RuleStatus:  viper.GetString("rule_status"),
		RuleType:    viper.GetString("rule_type"),
		Tag:         viper.GetString("tag"),
		AssemblyIDs: viper.GetString("assembly_ids"),

		// Run behavior
		OverrideLabels: viper.GetBool("override_labels"),
		LedgerDir:      viper.GetString("ledger_dir"),

		// Logging configuration
		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

// loadEnvFiles loads environment variables from dotenv files.
// config.env is the deployment convention, .env the local one.
// Variables already set in the environment are never overridden,
// so earlier files win.
func loadEnvFiles() {
	envFiles := []string{
		"config.env",
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// bindDeploymentKeys explicitly binds the flat environment variable names
// used by catalog deployments to Viper. AutomaticEnv resolves dotted keys,
// but these keys are also read from config files under their snake_case
// names, so they need an explicit binding.
func bindDeploymentKeys() {
	keys := []string{
		"HOST",
		"ACCESS_KEY",
		"SECRET_KEY",
		"RULE_STATUS",
		"RULE_TYPE",
		"TAG",
		"ASSEMBLY_IDS",
		"OVERRIDE_LABELS",
		"LEDGER_DIR",
	}

	for _, key := range keys {
		if err := viper.BindEnv(key); err != nil {
			// Log warning but continue - this isn't critical
			fmt.Fprintf(os.Stderr, "Warning: failed to bind environment variable %s: %v\n", key, err)
		}
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
