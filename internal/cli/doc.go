// Package cli wires together the Cobra command tree for the commitgen binary.
//
// The root command generates a message for the staged diff, in direct mode
// (-t) or through an interactive menu. Subcommands manage the config file,
// the message cache and the prepare-commit-msg hook. Every failure maps to
// exit code 1.
package cli
