package guidance

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Abraxas-365/compass/pkg/errx"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    *errx.Error
		status int
		typ    errx.ErrorType
	}{
		{"plan not found", ErrPlanNotFound(), http.StatusNotFound, errx.TypeNotFound},
		{"invalid input", ErrInvalidInput(), http.StatusBadRequest, errx.TypeValidation},
		{"empty resume", ErrEmptyResume(), http.StatusBadRequest, errx.TypeValidation},
		{"stage failed", ErrStageFailed(), http.StatusBadGateway, errx.TypeExternal},
		{"pdf not available", ErrPDFNotAvailable(), http.StatusUnprocessableEntity, errx.TypeBusiness},
		{"access denied", ErrPlanAccessDenied(), http.StatusForbidden, errx.TypeAuthorization},
		{"job not found", ErrJobNotFound(), http.StatusNotFound, errx.TypeNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.status, tc.err.HTTPStatus)
			require.Equal(t, tc.typ, tc.err.Type)
		})
	}
}

func TestPlanStorageFailureIsInternal(t *testing.T) {
	// A broken storage backend must surface as a 500, never as a 404
	cause := errors.New("connection reset")
	err := ErrRegistry.NewWithCause(CodePlanStorageFailed, cause)

	require.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	require.Equal(t, errx.TypeInternal, err.Type)
	require.NotEqual(t, CodePlanNotFound, err.Code)
	require.ErrorIs(t, err, cause)
}
