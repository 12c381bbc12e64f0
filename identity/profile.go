package identity

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Primary roles known to the learning platform. A profile carries exactly
// one of them.
const (
	RoleLearner       = "Learner"
	RoleInstructor    = "Instructor"
	RoleVendor        = "Vendor"
	RoleArtist        = "Artist"
	RoleEditor        = "Editor"
	RoleGaushalaOwner = "GaushalaOwner"
	RoleAdmin         = "Admin"
)

// CourseID identifies a course. The backend is inconsistent about whether it
// serializes course identifiers as JSON numbers or strings; decoding folds
// both into one canonical string form so lookups never need loose equality.
type CourseID string

// UnmarshalJSON accepts both "42" and 42 on the wire.
func (c *CourseID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = CourseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = CourseID(n.String())
	return nil
}

// LectureID identifies a lecture within a course. Same wire inconsistency as
// CourseID.
type LectureID string

// UnmarshalJSON accepts both string and numeric forms.
func (l *LectureID) UnmarshalJSON(data []byte) error {
	var c CourseID
	if err := c.UnmarshalJSON(data); err != nil {
		return err
	}
	*l = LectureID(c)
	return nil
}

// ParseCourseID canonicalizes an int-typed course identifier.
func ParseCourseID(n int64) CourseID {
	return CourseID(strconv.FormatInt(n, 10))
}

// EnrolledCourse is one entry of a profile's enrollment sequence. Order is
// backend-defined and preserved.
type EnrolledCourse struct {
	CourseID          CourseID    `json:"courseId"`
	CompletedLectures []LectureID `json:"completedLectures"`
	ProgressPercent   float64     `json:"progressPercent"`
}

// Completed reports whether the lecture is already marked complete.
func (e *EnrolledCourse) Completed(lecture LectureID) bool {
	for _, l := range e.CompletedLectures {
		if l == lecture {
			return true
		}
	}
	return false
}

// UserProfile is the authoritative identity record as known to this client.
// Detail is an opaque JSON blob holding role-specific settings; it is carried
// through untouched.
type UserProfile struct {
	ID              string           `json:"id"`
	Email           string           `json:"email"`
	DisplayName     string           `json:"displayName"`
	Role            string           `json:"role"`
	PhotoURL        string           `json:"photoURL,omitempty"`
	Detail          json.RawMessage  `json:"detail,omitempty"`
	EnrolledCourses []EnrolledCourse `json:"enrolledCourses,omitempty"`
}

// Clone returns a deep copy so that callers can never mutate the cached
// profile through a returned reference.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Detail != nil {
		cp.Detail = append(json.RawMessage(nil), p.Detail...)
	}
	if p.EnrolledCourses != nil {
		cp.EnrolledCourses = make([]EnrolledCourse, len(p.EnrolledCourses))
		for i, ec := range p.EnrolledCourses {
			cp.EnrolledCourses[i] = ec
			if ec.CompletedLectures != nil {
				cp.EnrolledCourses[i].CompletedLectures = append([]LectureID(nil), ec.CompletedLectures...)
			}
		}
	}
	return &cp
}

// Enrollment returns the enrollment entry for the course, or nil.
func (p *UserProfile) Enrollment(courseID CourseID) *EnrolledCourse {
	if p == nil {
		return nil
	}
	for i := range p.EnrolledCourses {
		if p.EnrolledCourses[i].CourseID == courseID {
			return &p.EnrolledCourses[i]
		}
	}
	return nil
}
