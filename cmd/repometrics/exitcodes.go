package main

// Exit codes
const (
	ExitSuccess     = 0 // Success, including runs with skipped rows
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable config, invalid values)
	ExitDataError   = 3 // Data error (unreadable report, unknown report kind)
)
