package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

// SearchQuery holds parameters for a permission-filtered document search.
// Term is matched case-insensitively as a substring of the filename and of
// metadata values. UserID scopes results to documents the user can read.
type SearchQuery struct {
	Term   string
	UserID string
}
