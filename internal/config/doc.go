// Package config holds the pdflinker configuration, its defaults and the
// YAML file loader.
//
// Configuration is resolved in this order: built-in defaults, then the
// first configuration file found (explicit path, ./.pdflinker.yaml, then
// the XDG config directory), then command line flags.
package config
