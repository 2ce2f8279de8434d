// Package config handles loading and validating PlevenLab Core configuration.
//
// This package manages:
//   - Loading configuration from a YAML file
//   - Overriding values with PLEVENLAB_* environment variables
//   - Validation of required fields, reported all at once
//
// Security Considerations:
//   - The JWT secret, broker password and InfluxDB token should come from
//     the environment, not the file
//   - The JWT secret must be at least 32 bytes; startup fails otherwise
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Addr())
package config
