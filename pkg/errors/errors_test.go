package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithInternalKeepsSentinelIdentity(t *testing.T) {
	wrapped := ErrInvalidStateTransition.WithInternal(errors.New("boom"))

	require.True(t, errors.Is(wrapped, ErrInvalidStateTransition))
	require.Equal(t, http.StatusConflict, wrapped.StatusCode)
	require.EqualError(t, wrapped.Internal, "boom")
}

func TestWithMessageKeepsCode(t *testing.T) {
	specific := ErrInvalidStateTransition.WithMessage("cannot unmark: qualifying documents still present")

	require.True(t, errors.Is(specific, ErrInvalidStateTransition))
	require.Equal(t, "cannot unmark: qualifying documents still present", specific.Message)
}

func TestFromErrorPassthrough(t *testing.T) {
	appErr := FromError(ErrPermissionDenied)
	require.Equal(t, ErrPermissionDenied.Code, appErr.Code)

	wrapped := FromError(fmt.Errorf("load socio: %w", ErrNotFound))
	require.Equal(t, ErrNotFound.Code, wrapped.Code)

	generic := FromError(errors.New("plain"))
	require.Equal(t, ErrInternalServer.Code, generic.Code)
	require.EqualError(t, generic.Internal, "plain")
}

func TestFromErrorNil(t *testing.T) {
	require.Nil(t, FromError(nil))
}
