// Package handlers provides HTTP handlers for the grantcue API.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"
)

// handleDBError handles database errors and writes appropriate HTTP responses.
// Returns true if error was handled, false otherwise.
func handleDBError(w http.ResponseWriter, err error, resource string, resourceID string) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	slog.Error("Database error", "error", err, "resource", resource, "resource_id", resourceID)

	// Handle specific error cases
	if strings.Contains(errStr, "not found") {
		http.Error(w, titleCase(resource)+" not found", http.StatusNotFound)
		return true
	}
	if strings.Contains(errStr, "already exists") {
		http.Error(w, titleCase(resource)+" already exists", http.StatusConflict)
		return true
	}

	// Generic error
	http.Error(w, "Failed to "+strings.ToLower(resource)+": "+errStr, http.StatusBadRequest)
	return true
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
