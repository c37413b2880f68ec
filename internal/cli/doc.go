// Package cli defines the vocalens command line: the cobra root command and
// its flags, viper configuration read from .vocalens.yaml and VOCALENS_*
// environment variables, and API key lookup.
package cli
