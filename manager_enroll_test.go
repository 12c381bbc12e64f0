package authkit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/authkit/exchange"
	"github.com/skillforge/authkit/identity"
)

func loginWithEnrollments(t *testing.T, env *managerEnv, courses []identity.EnrolledCourse) {
	t.Helper()
	env.client.loginFn = func(context.Context, string, string) (identity.Session, *identity.UserProfile, error) {
		p := testProfile()
		p.EnrolledCourses = courses
		return testSession(), p, nil
	}
	_, err := env.manager.Login(context.Background(), "a", "b")
	require.NoError(t, err)
}

func TestEnrollRequiresAuth(t *testing.T) {
	env := newTestManager(t, nil)

	_, err := env.manager.Enroll(context.Background(), "7")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestEnrollReplacesEnrollmentsWholesale(t *testing.T) {
	env := newTestManager(t, nil)
	loginWithEnrollments(t, env, []identity.EnrolledCourse{{CourseID: "7"}})

	env.client.enrollFn = func(_ context.Context, accessToken string, courseID identity.CourseID) ([]identity.EnrolledCourse, error) {
		require.Equal(t, "tok-1", accessToken)
		require.Equal(t, identity.CourseID("12"), courseID)
		return []identity.EnrolledCourse{{CourseID: "7"}, {CourseID: "12"}}, nil
	}

	courses, err := env.manager.Enroll(context.Background(), "12")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.True(t, env.manager.IsEnrolled("12"))
	assert.True(t, env.manager.IsEnrolled("7"))
	assert.False(t, env.manager.IsEnrolled("99"))
}

func TestEnrollFailureLeavesStateUnchanged(t *testing.T) {
	env := newTestManager(t, nil)
	loginWithEnrollments(t, env, []identity.EnrolledCourse{{CourseID: "7"}})

	env.client.enrollFn = func(context.Context, string, identity.CourseID) ([]identity.EnrolledCourse, error) {
		return nil, exchange.ErrAlreadyEnrolled
	}

	_, err := env.manager.Enroll(context.Background(), "7")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Equal(t, ErrAlreadyEnrolled, Reason(err))

	user := env.manager.CurrentUser()
	require.Len(t, user.EnrolledCourses, 1)
	assert.True(t, env.manager.IsEnrolled("7"))
}

func TestIsEnrolledLoggedOut(t *testing.T) {
	env := newTestManager(t, nil)
	assert.False(t, env.manager.IsEnrolled("7"))
}

func TestUpdateProgressOptimisticThenConfirmed(t *testing.T) {
	env := newTestManager(t, nil)
	loginWithEnrollments(t, env, []identity.EnrolledCourse{
		{CourseID: "7", CompletedLectures: []identity.LectureID{"l1"}, ProgressPercent: 100.0 / 3},
	})

	env.client.progressFn = func(_ context.Context, _ string, courseID identity.CourseID, lectureID identity.LectureID, total int) ([]identity.EnrolledCourse, error) {
		// The optimistic merge is visible before the backend confirms.
		mid := env.manager.CurrentUser().Enrollment("7")
		require.NotNil(t, mid)
		assert.True(t, mid.Completed("l2"))

		require.Equal(t, identity.CourseID("7"), courseID)
		require.Equal(t, identity.LectureID("l2"), lectureID)
		require.Equal(t, 3, total)
		return []identity.EnrolledCourse{
			{CourseID: "7", CompletedLectures: []identity.LectureID{"l1", "l2"}, ProgressPercent: 200.0 / 3},
		}, nil
	}

	courses, err := env.manager.UpdateProgress(context.Background(), "7", "l2", 3)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.InDelta(t, 200.0/3, courses[0].ProgressPercent, 1e-9)

	final := env.manager.CurrentUser().Enrollment("7")
	require.NotNil(t, final)
	assert.True(t, final.Completed("l1"))
	assert.True(t, final.Completed("l2"))
}

func TestUpdateProgressRollsBackOnFailure(t *testing.T) {
	env := newTestManager(t, nil)
	loginWithEnrollments(t, env, []identity.EnrolledCourse{
		{CourseID: "7", CompletedLectures: []identity.LectureID{"l1"}, ProgressPercent: 100.0 / 3},
		{CourseID: "9"},
	})

	env.client.progressFn = func(context.Context, string, identity.CourseID, identity.LectureID, int) ([]identity.EnrolledCourse, error) {
		return nil, exchange.ErrNetwork
	}

	_, err := env.manager.UpdateProgress(context.Background(), "7", "l2", 3)
	assert.ErrorIs(t, err, ErrNetwork)

	course := env.manager.CurrentUser().Enrollment("7")
	require.NotNil(t, course)
	assert.False(t, course.Completed("l2"))
	assert.InDelta(t, 100.0/3, course.ProgressPercent, 1e-9)

	// The sibling enrollment is untouched.
	assert.True(t, env.manager.IsEnrolled("9"))
}

func TestUpdateProgressRequiresAuth(t *testing.T) {
	env := newTestManager(t, nil)

	_, err := env.manager.UpdateProgress(context.Background(), "7", "l1", 3)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestConcurrentProgressUpdatesSerializeInRequestOrder(t *testing.T) {
	env := newTestManager(t, nil)
	loginWithEnrollments(t, env, []identity.EnrolledCourse{{CourseID: "7"}})

	// The backend replies with everything it has confirmed so far, and the
	// first request's response is made much slower than the second's. With
	// response-latency ordering the slow first reply would land last and
	// erase l2; request-order serialization must keep both.
	var (
		inFlight     atomic.Int32
		overlapped   atomic.Bool
		firstStarted = make(chan struct{})
		confirmed    []identity.LectureID
	)
	env.client.progressFn = func(_ context.Context, _ string, _ identity.CourseID, lectureID identity.LectureID, _ int) ([]identity.EnrolledCourse, error) {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		defer inFlight.Add(-1)

		confirmed = append(confirmed, lectureID)
		if lectureID == "l1" {
			close(firstStarted)
			time.Sleep(75 * time.Millisecond)
		}
		return []identity.EnrolledCourse{{
			CourseID:          "7",
			CompletedLectures: append([]identity.LectureID(nil), confirmed...),
		}}, nil
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := env.manager.UpdateProgress(context.Background(), "7", "l1", 2)
		assert.NoError(t, err)
	}()
	<-firstStarted
	go func() {
		defer wg.Done()
		_, err := env.manager.UpdateProgress(context.Background(), "7", "l2", 2)
		assert.NoError(t, err)
	}()
	wg.Wait()

	assert.False(t, overlapped.Load(), "mutating operations must never run concurrently")
	require.Equal(t, []identity.LectureID{"l1", "l2"}, confirmed, "backend must see requests in submission order")

	final := env.manager.CurrentUser().Enrollment("7")
	require.NotNil(t, final)
	assert.True(t, final.Completed("l1"))
	assert.True(t, final.Completed("l2"), "the later request must be the last writer")
}

func TestMergeProgress(t *testing.T) {
	base := []EnrolledCourse{
		{CourseID: "7", CompletedLectures: []identity.LectureID{"l1"}},
		{CourseID: "9"},
	}

	t.Run("marks lecture and recomputes percent", func(t *testing.T) {
		out, changed := mergeProgress(base, "7", "l2", 4)
		require.True(t, changed)
		assert.True(t, out[0].Completed("l2"))
		assert.InDelta(t, 50.0, out[0].ProgressPercent, 1e-9)
		// Input is never mutated.
		assert.False(t, base[0].Completed("l2"))
	})

	t.Run("already complete is a no-op", func(t *testing.T) {
		out, changed := mergeProgress(base, "7", "l1", 4)
		assert.False(t, changed)
		assert.Len(t, out[0].CompletedLectures, 1)
	})

	t.Run("not enrolled is a no-op", func(t *testing.T) {
		_, changed := mergeProgress(base, "99", "l1", 4)
		assert.False(t, changed)
	})

	t.Run("zero total skips percent", func(t *testing.T) {
		out, changed := mergeProgress(base, "9", "l1", 0)
		require.True(t, changed)
		assert.Zero(t, out[1].ProgressPercent)
	})
}
