package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable config, invalid values)
	ExitDataError   = 3 // Pass aborted (unreadable citation data, strict collision)
	ExitUnresolved  = 4 // Pass finished with problems and the document was not saved
)
