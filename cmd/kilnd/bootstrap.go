package main

import (
	"flag"

	"kiln/internal/daemonrun"
)

// parseFlags reads kilnd's command line. The standalone binary shares its
// runtime with `kiln daemon`; only config selection and the log level vary
// per invocation.
func parseFlags(args []string) (daemonrun.Options, string) {
	fs := flag.NewFlagSet("kilnd", flag.ExitOnError)
	configPath := fs.String("config", "", "Configuration file path")
	logLevel := fs.String("log-level", "", "Override the configured log level")
	_ = fs.Parse(args)
	return daemonrun.Options{LogLevel: *logLevel}, *configPath
}
