// Package config loads environment-based configuration structs.
//
// It combines godotenv for local development (.env files) with
// caarlos0/env for struct-tag-driven parsing. Every configurable
// package in the module declares a Config struct with env tags and
// loads it through this package:
//
//	var cfg profile.PostgresConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
//
// The default .env file is loaded at most once per process; a missing
// .env file is not an error.
package config
