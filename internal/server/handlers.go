// File: internal/server/handlers.go
package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rfalmeida/detranbridge/internal/portal"
)

// heartbeat mirrors the legacy service banner so existing monitors keep
// working against the root path.
func (s *Server) heartbeat(c echo.Context) error {
	now := time.Now()
	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("© %d, Scrapping - %s",
			now.UTC().Year(), now.Format("02/01/2006 15:04:05")),
	})
}

func (s *Server) getChassis(c echo.Context) error {
	chassis := c.QueryParam("q")
	if chassis == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query `q` is required")
	}

	rec, err := s.client.LookupChassisStatus(c.Request().Context(), chassis)
	switch {
	case errors.Is(err, portal.ErrInvalidInput):
		s.metrics.observe("chassis", outcomeInvalid)
		return echo.NewHTTPError(http.StatusBadRequest, "INVALID_CHASSIS")
	case err != nil:
		s.metrics.observe("chassis", outcomeError)
		return echo.NewHTTPError(http.StatusInternalServerError, "INTERNAL_ERROR").SetInternal(err)
	case rec == nil:
		// No matching vehicle. The legacy contract folds this into the same
		// rejection as a malformed chassis.
		s.metrics.observe("chassis", outcomeNoData)
		return echo.NewHTTPError(http.StatusBadRequest, "INVALID_CHASSIS")
	}

	s.metrics.observe("chassis", outcomeOK)
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) getBin(c echo.Context) error {
	key := c.QueryParam("key")
	if key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query `key` is required")
	}

	keyType := portal.BinKeyType(c.QueryParam("type"))
	switch keyType {
	case portal.BinKeyChassis, portal.BinKeyPlate, portal.BinKeyRenavam:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "INVALID_QUERY_TYPE")
	}

	rec, err := s.client.LookupBin(c.Request().Context(), key, keyType)
	switch {
	case errors.Is(err, portal.ErrInvalidInput):
		s.metrics.observe("bin", outcomeInvalid)
		return echo.NewHTTPError(http.StatusBadRequest, "INVALID_REQUEST")
	case errors.Is(err, portal.ErrNoData):
		s.metrics.observe("bin", outcomeNoData)
		return echo.NewHTTPError(http.StatusBadRequest, "INVALID_REQUEST")
	case err != nil:
		s.metrics.observe("bin", outcomeError)
		return echo.NewHTTPError(http.StatusInternalServerError, "INTERNAL_ERROR").SetInternal(err)
	case rec == nil:
		s.metrics.observe("bin", outcomeNoData)
		return echo.NewHTTPError(http.StatusBadRequest, "INVALID_REQUEST")
	}

	s.metrics.observe("bin", outcomeOK)
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) getVehicles(c echo.Context) error {
	document := c.QueryParam("document")
	if document == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query `document` is required")
	}

	recs, err := s.client.LookupVehiclesByDocument(c.Request().Context(), document)
	switch {
	case errors.Is(err, portal.ErrInvalidInput):
		s.metrics.observe("vehicles", outcomeInvalid)
		return echo.NewHTTPError(http.StatusBadRequest, "INVALID_REQUEST")
	case err != nil:
		s.metrics.observe("vehicles", outcomeError)
		return echo.NewHTTPError(http.StatusInternalServerError, "INTERNAL_ERROR").SetInternal(err)
	}

	if recs == nil {
		recs = []portal.Record{}
	}
	s.metrics.observe("vehicles", outcomeOK)
	return c.JSON(http.StatusOK, recs)
}
