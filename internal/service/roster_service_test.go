package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-grading-api/internal/dto"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
)

func newRosterFixture(t *testing.T) (*RosterService, *gradeFixture, *memoryCache) {
	t.Helper()
	fx := newGradeFixture(t, 2)
	fx.enterAllMarks()
	store := newMemoryCache()
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	svc := NewRosterService(RosterServiceDeps{
		Students:       fx.students,
		Semesters:      fx.svc.semesters,
		Courses:        fx.svc.courses,
		Marks:          fx.marks,
		CourseGrades:   fx.courseGrades,
		SemesterGrades: fx.semesterGrades,
		Cache:          cache,
		CacheTTL:       time.Minute,
	}, zap.NewNop())
	fx.svc.cache = cache
	return svc, fx, store
}

func TestRosterServiceBuildsEntries(t *testing.T) {
	svc, fx, _ := newRosterFixture(t)
	ctx := context.Background()
	_, err := fx.svc.UploadAll(ctx, dto.BatchGradeRequest{ProgramID: "prog-1", SemesterID: "sem-1"})
	require.NoError(t, err)

	roster, hit, err := svc.Get(ctx, "prog-1", "sem-1")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, roster.Entries, 2)

	entry := roster.Entries[0]
	require.NotNil(t, entry.SemesterGrade)
	assert.Equal(t, 57.0, entry.SemesterGrade.GradePoints)
	require.Len(t, entry.Courses, 2)
	assert.Equal(t, "MA101", entry.Courses[0].CourseCode)
	assert.Equal(t, 85.0, entry.Courses[0].TotalMarks)
	assert.Equal(t, 25.0, entry.Courses[0].Marks["Internal"])
	require.NotNil(t, entry.Courses[0].Grade)
	assert.Equal(t, "A+", entry.Courses[0].Grade.Grade)
}

func TestRosterServiceServesFromCacheUntilInvalidated(t *testing.T) {
	svc, fx, store := newRosterFixture(t)
	ctx := context.Background()

	_, hit, err := svc.Get(ctx, "prog-1", "sem-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Contains(t, store.entries, rosterKey("prog-1", "sem-1"))

	roster, hit, err := svc.Get(ctx, "prog-1", "sem-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Nil(t, roster.Entries[0].SemesterGrade)

	_, err = fx.svc.UploadAll(ctx, dto.BatchGradeRequest{ProgramID: "prog-1", SemesterID: "sem-1"})
	require.NoError(t, err)
	assert.NotContains(t, store.entries, rosterKey("prog-1", "sem-1"))

	roster, hit, err = svc.Get(ctx, "prog-1", "sem-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, roster.Entries[0].SemesterGrade)
}

func TestRosterServiceRejectsForeignSemester(t *testing.T) {
	svc, _, _ := newRosterFixture(t)

	_, _, err := svc.Get(context.Background(), "prog-2", "sem-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Get(context.Background(), "prog-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
