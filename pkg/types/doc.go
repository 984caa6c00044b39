// Package types defines the configuration, domain entities, and standard
// error types shared by the runfixer commands and internal packages.
package types
