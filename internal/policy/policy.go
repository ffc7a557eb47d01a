// Package policy is the authorization gate. It is stateless: every decision is a pure
// function of the resolved session actor, the declared capability and, for club
// management, the club's owner.
package policy

import (
	"time"

	apperrors "github.com/KilloQ/StudentsClubs/pkg/errors"
)

// Actor is the identity resolved from a session token.
type Actor struct {
	UserID    uint
	IsTeacher bool
	TokenID   string
	ExpiresAt time.Time
}

// Capability is what an operation requires of its caller.
type Capability int

const (
	AnyAuthenticated Capability = iota
	Teacher
	Student
	Owner
)

func (c Capability) String() string {
	switch c {
	case Teacher:
		return "teacher"
	case Student:
		return "student"
	case Owner:
		return "owner"
	default:
		return "any-authenticated"
	}
}

var (
	ErrUnauthenticated = apperrors.New(apperrors.KindUnauthenticated, 10002, "not authenticated")
	ErrTeacherOnly     = apperrors.New(apperrors.KindForbidden, 10003, "only teachers can perform this action")
	ErrStudentOnly     = apperrors.New(apperrors.KindForbidden, 10004, "only students can perform this action")
	ErrNotOwner        = apperrors.New(apperrors.KindForbidden, 10005, "you are not the owner of this club")
)

// Check evaluates a capability. ownerID is only consulted for Owner.
func Check(actor *Actor, capability Capability, ownerID uint) error {
	if actor == nil || actor.UserID == 0 {
		return ErrUnauthenticated
	}

	switch capability {
	case Teacher:
		if !actor.IsTeacher {
			return ErrTeacherOnly
		}
	case Student:
		if actor.IsTeacher {
			return ErrStudentOnly
		}
	case Owner:
		if !actor.IsTeacher {
			return ErrTeacherOnly
		}
		if actor.UserID != ownerID {
			return ErrNotOwner
		}
	}
	return nil
}

// IsStudent reports whether a (possibly anonymous) actor is a student.
func (a *Actor) IsStudent() bool {
	return a != nil && a.UserID != 0 && !a.IsTeacher
}
