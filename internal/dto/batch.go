package dto

import "github.com/noah-isme/academic-grading-api/pkg/grading"

// BatchOperation names the roster-wide grading operations.
type BatchOperation string

const (
	BatchCheck  BatchOperation = "check"
	BatchUpload BatchOperation = "upload"
	BatchUpdate BatchOperation = "update"
)

// BatchItemStatus is the outcome of one student within a batch.
type BatchItemStatus string

const (
	BatchItemDone   BatchItemStatus = "done"
	BatchItemFailed BatchItemStatus = "failed"
)

// BatchGradeRequest captures POST /grades/batch/:operation payloads.
type BatchGradeRequest struct {
	ProgramID  string `json:"programId" validate:"required"`
	SemesterID string `json:"semesterId" validate:"required"`
	CourseID   string `json:"courseId,omitempty"`
}

// BatchGradeItem reports one student's result.
type BatchGradeItem struct {
	StudentID string                  `json:"studentId"`
	Status    BatchItemStatus         `json:"status"`
	Error     string                  `json:"error,omitempty"`
	Courses   []grading.CourseResult  `json:"courses,omitempty"`
	Semester  *grading.SemesterResult `json:"semester,omitempty"`
}

// BatchGradeResponse summarises a batch run.
type BatchGradeResponse struct {
	Operation BatchOperation   `json:"operation"`
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Items     []BatchGradeItem `json:"items"`
}
