package authkit

import (
	"github.com/skillforge/authkit/identity"
)

// Domain model aliases, so callers work against one package.

// UserProfile is the cached, authoritative representation of the signed-in
// user.
type UserProfile = identity.UserProfile

// EnrolledCourse is one entry of the profile's enrollment sequence.
type EnrolledCourse = identity.EnrolledCourse

// Session is the backend-issued bearer credential pair.
type Session = identity.Session

// CourseID identifies a course in canonical string form.
type CourseID = identity.CourseID

// LectureID identifies a lecture in canonical string form.
type LectureID = identity.LectureID

// Primary roles known to the platform.
const (
	RoleLearner       = identity.RoleLearner
	RoleInstructor    = identity.RoleInstructor
	RoleVendor        = identity.RoleVendor
	RoleArtist        = identity.RoleArtist
	RoleEditor        = identity.RoleEditor
	RoleGaushalaOwner = identity.RoleGaushalaOwner
	RoleAdmin         = identity.RoleAdmin
)
