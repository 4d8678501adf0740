package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStudentFilterNormalize(t *testing.T) {
	f := StudentFilter{Page: -3, PageSize: 1000, SortBy: "password", SortOrder: "sideways"}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.PageSize)
	assert.Equal(t, "roll_number", f.SortBy)
	assert.Equal(t, "ASC", f.SortOrder)

	f = StudentFilter{Page: 2, PageSize: 50, SortBy: "full_name", SortOrder: "desc"}.Normalize()
	assert.Equal(t, 2, f.Page)
	assert.Equal(t, 50, f.PageSize)
	assert.Equal(t, "full_name", f.SortBy)
	assert.Equal(t, "DESC", f.SortOrder)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, 3, NewPagination(1, 20, 41).TotalPages)
	assert.Equal(t, 0, NewPagination(1, 20, 0).TotalPages)
	assert.Equal(t, 0, NewPagination(1, 0, 10).TotalPages)
}

func TestUserRoleValid(t *testing.T) {
	assert.True(t, RoleTeacher.Valid())
	assert.False(t, UserRole("STUDENT").Valid())
}
