package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
)

// respondError maps an error from the workspace to an HTTP response.
func respondError(c *gin.Context, err error) {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		apierrors.InternalError(c, "")
		return
	}

	switch apiErr.Code {
	case apierrors.ErrCodeInvalidInput:
		apierrors.RespondWithError(c, http.StatusBadRequest, apiErr)
	case apierrors.ErrCodeUnauthorized, apierrors.ErrCodeInvalidCredentials:
		apierrors.RespondWithError(c, http.StatusUnauthorized, apiErr)
	case apierrors.ErrCodeForbidden:
		apierrors.RespondWithError(c, http.StatusForbidden, apiErr)
	case apierrors.ErrCodeNotFound:
		apierrors.RespondWithError(c, http.StatusNotFound, apiErr)
	case apierrors.ErrCodeNotConfigured, apierrors.ErrCodeServiceUnavailable:
		apierrors.RespondWithError(c, http.StatusServiceUnavailable, apiErr)
	case apierrors.ErrCodeNetworkTimeout:
		apierrors.GatewayTimeout(c, apiErr)
	case apierrors.ErrCodeAuthRejected,
		apierrors.ErrCodeLockTimeout,
		apierrors.ErrCodeRemote,
		apierrors.ErrCodeNetworkFailure,
		apierrors.ErrCodeHTTPStatus:
		apierrors.BadGateway(c, apiErr)
	case apierrors.ErrCodeRateLimited:
		apierrors.RespondWithError(c, http.StatusTooManyRequests, apiErr)
	default:
		apierrors.RespondWithError(c, http.StatusInternalServerError, apiErr)
	}
}
