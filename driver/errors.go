package driver

import "errors"

// Predefined errors
var (
	// ErrNoPathsProvided is returned when the data source name is empty
	ErrNoPathsProvided = errors.New("sheetquery driver: no path provided")

	// ErrPathNotFound is returned when the source path does not exist
	ErrPathNotFound = errors.New("sheetquery driver: path does not exist")

	// ErrNoFilesLoaded is returned when a directory holds no supported files
	ErrNoFilesLoaded = errors.New("sheetquery driver: no supported files found")

	// ErrStmtExecContextNotSupported is returned when statement does not support ExecContext
	ErrStmtExecContextNotSupported = errors.New("sheetquery driver: statement does not support ExecContext")

	// ErrPrepareContextNotSupported is returned when underlying connection does not support PrepareContext
	ErrPrepareContextNotSupported = errors.New("sheetquery driver: underlying connection does not support PrepareContext")

	// ErrTransactionsNotSupported is returned by Begin
	ErrTransactionsNotSupported = errors.New("sheetquery driver: transactions are not supported")

	// ErrDuplicateWorksheet is returned when two files of a directory provide the same worksheet name
	ErrDuplicateWorksheet = errors.New("sheetquery driver: duplicate worksheet name")
)
