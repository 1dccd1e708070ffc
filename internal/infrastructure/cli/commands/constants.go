package commands

// CLI-specific constants
const (
	// DefaultEditorCommand is the default editor command
	DefaultEditorCommand = "vi"
	envKeyEditor         = "EDITOR"

	// logFileName receives debug logs while the dialog owns the terminal.
	logFileName = "askpage.log"
)

// Error messages
const (
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrSettingsUnavailable      = "settings service unavailable"
	ErrQuestionRequired         = "a question is required"
	ErrDialogNeedsTerminal      = "the dialog reads keys from stdin; use ask to pipe a page in"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoHistoryRecorded        = "No questions recorded yet."
	MsgHistoryCleared           = "Prompt history cleared."
	MsgNoCustomCommands         = "No custom commands."
	MsgSettingsResetCancelled   = "Reset cancelled."
)
