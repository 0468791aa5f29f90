// Package confloader loads the server configuration.
//
// Sources, lowest priority first:
//
//  1. Default values (config.Default)
//  2. YAML configuration file
//  3. Environment variables (FOXY_SECTION_KEY)
//  4. Command-line flag overrides
//
// A Watcher reports writes to the configuration file so that settings
// which can change at runtime, such as the log level, are re-applied.
package confloader
