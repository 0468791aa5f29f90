// Package output renders command results for foxy-server.
//
// Results can be printed as an aligned table (default), JSON or YAML.
// Table columns come from the json tags of the rendered structs; a field
// tagged `table:"-"` is never shown and `table:"wide"` only with --wide.
package output
