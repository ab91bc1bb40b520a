// Package config holds the inputs of both generators: the YAML washer
// document and the flag-driven holder sweep parameters.
package config
