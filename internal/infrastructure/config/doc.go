// Package config handles loading and validating the eWeLink daemon configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (account password, app secret, tokens) should be set
//     via environment variables rather than the config file
//   - The config file should have restricted permissions (0600)
//   - The local API JWT secret must be set before enabling api.auth
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Cloud.Region)
package config
