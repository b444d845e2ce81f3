package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"casino-monitor/src/helpers"
)

// -----------------------------------------------------------------------------

func statusFor(err error) int {
	var validation *helpers.ValidationError
	switch {
	case errors.Is(err, helpers.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &validation), errors.Is(err, helpers.ErrUnknownGame):
		return http.StatusBadRequest
	case errors.Is(err, helpers.ErrSubscriptionClosed):
		return http.StatusGone
	default:
		var transport *helpers.TransportError
		if errors.As(err, &transport) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}
}

// -----------------------------------------------------------------------------

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("expected a positive integer, got %q", s)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
