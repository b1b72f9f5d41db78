// Package config loads compgraph configuration from YAML files, .env files
// and COMPGRAPH_* environment variables using viper and godotenv.
//
// # Usage
//
//	cfg, err := config.Load(config.WithConfigFile("compgraph.yml"))
//
// Environment variables override file values with underscore-separated
// paths, e.g. COMPGRAPH_ENGINE_SORT_CHUNK_SIZE=50000.
package config
