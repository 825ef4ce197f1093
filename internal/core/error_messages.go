// Package core implements the B2B CSV normalization engine.
//
// # Error Codes Reference
//
// User-facing failures carry a code that support staff can look up here.
// Row-level problems are never errors: they are reported as warnings and the
// row is still converted. Codes are grouped by category:
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate value: a stored product conflicts with the upload
//	        Patterns: "duplicate key", "violates unique"
//	DB002 - Connection refused: unable to reach the product database
//	        Patterns: "connection refused"
//	DB003 - Connection reset: database connection was interrupted
//	        Patterns: "connection reset"
//	DB004 - Deadlock: database was busy with conflicting imports
//	        Patterns: "deadlock"
//	DB005 - Store unavailable: the server runs without a product database
//	        Patterns: "product store is not configured"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Unknown layout: the requested output layout does not exist
//	         Patterns: "unknown layout"
//	VAL002 - Invalid request: a form field failed validation
//	         Patterns: "invalid request"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload exceeds the size limit
//	          Patterns: "file too large", "request body too large"
//	FILE002 - Unreadable workbook: the .xlsx file could not be opened
//	          Patterns: "unreadable workbook", "workbook has no sheets"
//	FILE003 - Invalid CSV: the file is not delimited text
//	          Patterns: "invalid csv"
//	FILE004 - No file: the request carried no upload
//	          Patterns: "no file provided"
//	FILE005 - Empty file: the upload has no bytes
//	          Patterns: "empty file"
//	FILE006 - Missing header: the upload has no non-blank row
//	          Patterns: "missing header"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: too many conversions in progress
//	         Patterns: "too many uploads"
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//	UPL005 - Request timeout: conversion exceeded its deadline
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: too many requests from this client
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the application log for the
// technical error, keyed by request_id.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Order matters: the first matching pattern wins.
var errorPatterns = []errorPattern{
	// Database (DB001-DB005)
	{"duplicate key", UserMessage{"A product in this file conflicts with a stored product", "Check the file for repeated SKUs and try again", "DB001"}},
	{"violates unique", UserMessage{"A product in this file conflicts with a stored product", "Check the file for repeated SKUs and try again", "DB001"}},
	{"connection refused", UserMessage{"Unable to connect to the product database", "Please try again in a few moments", "DB002"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB003"}},
	{"deadlock", UserMessage{"Database was busy with another import", "Please try again", "DB004"}},
	{"product store is not configured", UserMessage{"Importing is not available on this server", "Use Convert to download the B2B file instead", "DB005"}},

	// Validation (VAL001-VAL002)
	{"unknown layout", UserMessage{"Unknown output layout", "Use layout=canonical or layout=extended", "VAL001"}},
	{"invalid request", UserMessage{"The request contains an invalid field", "Check the manufacturer and layout fields", "VAL002"}},

	// File (FILE001-FILE006)
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller files", "FILE001"}},
	{"request body too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller files", "FILE001"}},
	{"unreadable workbook", UserMessage{"The Excel workbook could not be opened", "Save the sheet as .xlsx or CSV and upload again", "FILE002"}},
	{"workbook has no sheets", UserMessage{"The Excel workbook has no sheets", "Save the sheet as .xlsx or CSV and upload again", "FILE002"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Export the price list as CSV (comma, semicolon or tab separated)", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV or Excel file to upload", "FILE004"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Please upload a file with a header row and data rows", "FILE005"}},
	{"missing header", UserMessage{"No header row was found", "Make sure the first rows of the file contain column names", "FILE006"}},

	// Upload (UPL002-UPL005)
	{"too many uploads", UserMessage{"System is busy converting other files", "Please wait a moment and try again", "UPL002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"context deadline exceeded", UserMessage{"Conversion timed out", "Try a smaller file or try again later", "UPL005"}},

	// Rate limiting (RATE001)
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	msg := MapError(ErrEmptyFile)
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "The uploaded file is empty (Code: FILE005). Please upload a file with a header row and data rows"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
// Use this to decide whether to show the raw error or the mapped user message.
//
// Example:
//
//	if IsUserFacing(err) {
//	    showToUser(FormatUserError(err))
//	} else {
//	    log.Error(err) // Log technical error
//	    showToUser("An error occurred. Please try again.")
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// The returned UserError preserves the original technical error for logging via Unwrap(),
// while providing a clean user message via Error().
//
// Returns nil if err is nil.
//
// Example:
//
//	ue := NewUserError(parseErr)
//	slog.Error("convert failed", "error", ue.Technical)
//	fmt.Println(ue.Error())   // "File is not a valid CSV"
//	fmt.Println(ue.User.Code) // "FILE003"
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
