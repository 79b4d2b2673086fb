// Package cmd implements the dirhash command line: a scan of a directory
// tree into a manifest (the root command), verification of a manifest
// against the files on disk, and version reporting.
package cmd
