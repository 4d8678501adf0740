package models

import (
	"strings"
	"time"
)

// Student is enrolled in exactly one program.
type Student struct {
	ID         string    `db:"id" json:"id"`
	ProgramID  string    `db:"program_id" json:"program_id"`
	RollNumber string    `db:"roll_number" json:"roll_number"`
	FullName   string    `db:"full_name" json:"full_name"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter scopes student listings.
type StudentFilter struct {
	Search    string
	ProgramID string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

var studentSorts = map[string]bool{"full_name": true, "roll_number": true, "created_at": true}

// Normalize clamps paging and replaces unknown sort keys with roll_number ASC.
func (f StudentFilter) Normalize() StudentFilter {
	f.Page, f.PageSize = clampPage(f.Page, f.PageSize)
	if !studentSorts[f.SortBy] {
		f.SortBy = "roll_number"
	}
	f.SortOrder = strings.ToUpper(f.SortOrder)
	if f.SortOrder != "DESC" {
		f.SortOrder = "ASC"
	}
	return f
}
