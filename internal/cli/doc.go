// Package cli provides the recordkeeper command-line interface.
//
// NewRootCommand builds a cobra command tree whose subcommands each run one
// operation against the stores: load and save snapshots, add, change and
// delete entities, manage the trash, read and export the audit trail, and
// report statistics and store health. The shell subcommand starts an
// interactive loop that keeps probing the primary store in the background
// and shows whether saves currently reach it.
//
// Configuration comes from defaults, an optional file, RECORDKEEPER_*
// environment variables and flags, in increasing order of precedence.
package cli
