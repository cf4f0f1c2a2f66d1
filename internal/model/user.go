package model

import "time"

// UserRole separates students from instructors. There is no finer-grained
// permission model: the engine only needs to know who takes exams and who
// reads reports.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleTeacher UserRole = "TEACHER"
)

// User is a directory entry. Credentials never travel past the auth service.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the payload for both student and teacher login.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// Cohort is a named group of students that a windowed exam targets.
type Cohort struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CreateCohortRequest is the teacher payload for a new cohort.
type CreateCohortRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// AddCohortMemberRequest enrolls one student into a cohort.
type AddCohortMemberRequest struct {
	StudentID int `json:"student_id" binding:"required,min=1"`
}
