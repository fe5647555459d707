package core

// error_messages.go turns technical errors into messages an operator can
// act on. Each message carries a code to quote when asking for help.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - An import is already running for this session
//	IMP002 - Too many imports are running
//	IMP003 - Import session not found or expired
//	IMP004 - No target set selected
//	IMP005 - No valid data rows in the file
//	IMP000 - Generic import failure; check the logs for the cause
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Not a CSV file
//	FILE004 - No file selected
//	FILE005 - Empty file
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Form input failed validation
//	VAL004 - Required CSV column missing
//
// # Catalog Errors (CAT001-CAT099)
//
//	CAT001 - Set or card not found
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key
//	DB003 - Foreign key violation
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Deadlock
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default (ERR000)
//
//	ERR000 - Anything else. The technical error is logged, never shown.
//
// Known sentinel errors are matched with errors.Is first. Everything else
// is matched case-insensitively against errorPatterns and the first match
// wins.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/cardadmin/internal/cardcsv"
	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/importer"
)

// GenericImportMessage is shown when an import fails for a reason the
// operator cannot fix.
const GenericImportMessage = "An error occurred during import. Please try again."

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{importer.ErrImportInProgress, UserMessage{
		Message: "An import is already running",
		Action:  "Wait for it to finish before changing the file or set",
		Code:    "IMP001",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP002",
	}},
	{ErrImportNotFound, UserMessage{
		Message: "Import session not found",
		Action:  "The session may have expired. Please start a new import",
		Code:    "IMP003",
	}},
	{importer.ErrNoSet, UserMessage{
		Message: "Please select a set and upload a CSV file",
		Action:  "Choose the set the cards belong to",
		Code:    "IMP004",
	}},
	{importer.ErrNoRows, UserMessage{
		Message: "No valid data found in CSV file",
		Action:  "Check that every row has as many columns as the header",
		Code:    "IMP005",
	}},
	{cardcsv.ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller files",
		Code:    "FILE001",
	}},
	{cardcsv.ErrNotCSV, UserMessage{
		Message: "Please select a CSV file",
		Action:  "Export the spreadsheet as comma-separated values (.csv)",
		Code:    "FILE002",
	}},
	{importer.ErrNoFile, UserMessage{
		Message: "Please select a set and upload a CSV file",
		Action:  "Choose a .csv file to import",
		Code:    "FILE004",
	}},
	{cardcsv.ErrEmptyFile, UserMessage{
		Message: "No valid data found in CSV file",
		Action:  "Upload a CSV file with a header and data rows",
		Code:    "FILE005",
	}},
	{importer.ErrMissingHeaders, UserMessage{
		Message: "Required column is missing from CSV",
		Action:  "Include Set Name, Card Name, Card Number, Rarity and Image URL columns",
		Code:    "VAL004",
	}},
	{catalog.ErrInvalidInput, UserMessage{
		Message: "Some fields are invalid",
		Action:  "Correct the highlighted fields and submit again",
		Code:    "VAL001",
	}},
	{catalog.ErrNotFound, UserMessage{
		Message: "Record not found",
		Action:  "It may have been deleted. Refresh the page",
		Code:    "CAT001",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers driver errors that carry no sentinel. Order matters.
var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Check the file for cards that were already imported",
		Code:    "DB001",
	}},
	{"unique constraint", UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Check the file for cards that were already imported",
		Code:    "DB001",
	}},
	{"foreign key", UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Make sure the set still exists",
		Code:    "DB003",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"deadline exceeded", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB006",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB006",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. A nil
// error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
