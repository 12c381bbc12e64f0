package authkit

import (
	"context"
	"time"

	"github.com/skillforge/authkit/identity"
	internalmetrics "github.com/skillforge/authkit/internal/metrics"
	"github.com/skillforge/authkit/store"
)

// Enroll enrolls the current user in a course. The backend's response is
// authoritative: the returned enrollment sequence replaces the cached one
// wholesale. No local state changes on failure.
func (m *Manager) Enroll(ctx context.Context, courseID CourseID) ([]EnrolledCourse, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	sess := m.session
	user := m.user
	m.mu.RUnlock()
	if user == nil {
		return nil, opErr("enroll", ErrNotAuthenticated)
	}

	start := time.Now()
	courses, err := m.client.Enroll(ctx, sess.AccessToken, courseID)
	m.observeExchange(start)
	if err != nil {
		m.metrics.Inc(internalmetrics.MetricEnrollFailure)
		m.emit(ctx, AuditEvent{EventType: EventEnroll, UserID: user.ID, CourseID: string(courseID), Error: err.Error()})
		return nil, opErr("enroll", err)
	}

	m.replaceEnrollments(ctx, courses)
	m.metrics.Inc(internalmetrics.MetricEnrollSuccess)
	m.emit(ctx, AuditEvent{EventType: EventEnroll, UserID: user.ID, CourseID: string(courseID), Success: true})
	return cloneEnrollments(courses), nil
}

// IsEnrolled is a pure lookup into the cached enrollment sequence. Course
// identifiers are canonicalized at the exchange boundary, so this is plain
// equality.
func (m *Manager) IsEnrolled(courseID CourseID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Enrollment(courseID) != nil
}

// UpdateProgress marks a lecture complete, optimistically then durably:
// the local merge is applied and persisted first, the backend is called,
// and on backend failure the optimistic state is rolled back. On success
// the backend's enrollment sequence replaces local state wholesale —
// server truth wins over the optimistic guess.
func (m *Manager) UpdateProgress(ctx context.Context, courseID CourseID, lectureID LectureID, totalLectures int) ([]EnrolledCourse, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	sess := m.session
	user := m.user
	m.mu.RUnlock()
	if user == nil {
		return nil, opErr("progress update", ErrNotAuthenticated)
	}

	previous := cloneEnrollments(user.EnrolledCourses)
	if optimistic, changed := mergeProgress(previous, courseID, lectureID, totalLectures); changed {
		m.replaceEnrollments(ctx, optimistic)
	}

	start := time.Now()
	courses, err := m.client.UpdateProgress(ctx, sess.AccessToken, courseID, lectureID, totalLectures)
	m.observeExchange(start)
	if err != nil {
		// Roll back the optimistic merge rather than diverging from
		// server truth.
		m.replaceEnrollments(ctx, previous)
		m.metrics.Inc(internalmetrics.MetricProgressUpdateFailure)
		m.emit(ctx, AuditEvent{EventType: EventProgressUpdate, UserID: user.ID, CourseID: string(courseID), Error: err.Error()})
		return nil, opErr("progress update", err)
	}

	m.replaceEnrollments(ctx, courses)
	m.metrics.Inc(internalmetrics.MetricProgressUpdateSuccess)
	m.emit(ctx, AuditEvent{EventType: EventProgressUpdate, UserID: user.ID, CourseID: string(courseID), Success: true})
	return cloneEnrollments(courses), nil
}

// mergeProgress returns a copy of courses with the lecture marked complete
// and the percentage recomputed. changed is false when the user is not
// enrolled or the lecture was already complete.
func mergeProgress(courses []EnrolledCourse, courseID CourseID, lectureID LectureID, totalLectures int) ([]EnrolledCourse, bool) {
	out := cloneEnrollments(courses)
	for i := range out {
		if out[i].CourseID != courseID {
			continue
		}
		if out[i].Completed(lectureID) {
			return out, false
		}
		out[i].CompletedLectures = append(out[i].CompletedLectures, lectureID)
		if totalLectures > 0 {
			out[i].ProgressPercent = float64(len(out[i].CompletedLectures)) / float64(totalLectures) * 100
		}
		return out, true
	}
	return out, false
}

// replaceEnrollments swaps the cached enrollment sequence and persists the
// updated profile. Persistence failures are logged and counted; the
// in-memory state still advances.
func (m *Manager) replaceEnrollments(ctx context.Context, courses []EnrolledCourse) {
	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return
	}
	m.user.EnrolledCourses = cloneEnrollments(courses)
	snap := store.Snapshot{Session: m.session, Profile: m.user}
	m.mu.Unlock()

	if err := m.store.Save(ctx, snap); err != nil {
		m.metrics.Inc(internalmetrics.MetricStoreError)
		m.log.Warn("enrollment persistence failed", "error", err)
	}
}

func cloneEnrollments(courses []EnrolledCourse) []EnrolledCourse {
	if courses == nil {
		return nil
	}
	out := make([]EnrolledCourse, len(courses))
	for i, c := range courses {
		out[i] = c
		if c.CompletedLectures != nil {
			out[i].CompletedLectures = append([]identity.LectureID(nil), c.CompletedLectures...)
		}
	}
	return out
}
