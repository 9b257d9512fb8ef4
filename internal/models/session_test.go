package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionLoginAndLogout(t *testing.T) {
	session := NewSession("abc", time.Now())
	require.Equal(t, RoleGuest, session.Role)

	require.ErrorIs(t, session.Login(RoleGuest), ErrInvalidRole)
	require.NoError(t, session.Login(RoleTeacher))
	require.Equal(t, 1, session.Epoch)
	require.NotNil(t, session.Teacher)
	require.NotNil(t, session.Grading)
	require.Nil(t, session.Student)

	require.ErrorIs(t, session.Login(RoleStudent), ErrAlreadyLoggedIn)

	session.Overlay = Overlay{State: OverlayError, Message: "x"}
	session.Logout()
	require.Equal(t, RoleGuest, session.Role)
	require.Equal(t, 2, session.Epoch)
	require.Equal(t, OverlayIdle, session.Overlay.State)
	require.Nil(t, session.Teacher)
	require.Nil(t, session.Grading)
}

func TestSessionOverlayGate(t *testing.T) {
	session := NewSession("abc", time.Now())
	require.NoError(t, session.Login(RoleStudent))
	session.Student.Subject = "Cloud Computing"
	require.NoError(t, session.RequireIdle())

	require.NoError(t, session.BeginSubmit())
	require.ErrorIs(t, session.RequireIdle(), ErrSubmissionInProgress)
	require.ErrorIs(t, session.BeginSubmit(), ErrSubmissionInProgress)
	require.ErrorIs(t, session.Acknowledge(), ErrSubmissionInProgress)

	session.CompleteSubmit(false, "failed")
	require.Equal(t, Overlay{State: OverlayError, Message: "failed"}, session.Overlay)
	require.Equal(t, "Cloud Computing", session.Student.Subject)
	require.ErrorIs(t, session.BeginSubmit(), ErrOverlayPending)
	require.ErrorIs(t, session.RequireIdle(), ErrOverlayPending)

	require.NoError(t, session.Acknowledge())
	require.NoError(t, session.BeginSubmit())
	session.CompleteSubmit(true, "ok")
	require.Equal(t, OverlaySuccess, session.Overlay.State)
	require.Empty(t, session.Student.Subject)
	require.NotNil(t, session.Student.Members)
}
