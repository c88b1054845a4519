// Package config loads deltacheck settings with koanf.
//
// Layers are merged lowest first: built-in defaults, the user file
// (config.toml under the platform config directory), the project file
// .deltacheck.toml or an explicit --config file, DELTACHECK_* environment
// variables, and finally CLI flags. The result is a plain [Config] value
// that components receive at construction.
package config
