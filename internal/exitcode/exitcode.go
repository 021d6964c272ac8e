// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion, including business outcomes
	// such as "no issue found" that are reported as Markdown.
	Success = 0

	// UserError indicates a user error (bad args, missing title, unknown command).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a tracker/API/network error or a store failure.
	BackendError = 3
)
