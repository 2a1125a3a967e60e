package model

import (
	"slices"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "profesor"
	RoleStudent Role = "estudiante"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleStudent
}

type User struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"display_name"`
	Email          string    `json:"email"`
	DocumentID     string    `json:"document_id,omitempty"`
	Role           Role      `json:"role"`
	TeacherID      string    `json:"teacher_id,omitempty"`
	SolvedProblems []string  `json:"solved_problems"`
	Students       []string  `json:"students,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) HasSolved(problemID string) bool {
	return slices.Contains(u.SolvedProblems, problemID)
}

// IsStaff reports whether the user can manage problems, courses and students.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleTeacher
}
