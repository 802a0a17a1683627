package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wroclaw-bike-stats/bikestats/services/internal/db"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/stats"
)

// dayQuery is the validated date and the rides of its comparison window.
type dayQuery struct {
	date  time.Time
	start time.Time
	end   time.Time
	rides []ride.RideEvent
}

// handleV1LatestDay returns the most recent date with rides and the selectable range
// GET /api/v1/days/latest
func (s *Server) handleV1LatestDay(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.QueryTimeout)
	defer cancel()

	latest, ok := s.latestDate(ctx, c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"date":     ride.DayKey(latest),
			"min_date": ride.DayKey(s.cfg.MinDate),
			"max_date": ride.DayKey(latest),
		},
	})
}

// handleV1Day returns every dashboard section for one date
// GET /api/v1/days/:date
func (s *Server) handleV1Day(c *gin.Context) {
	q, ok := s.loadDay(c)
	if !ok {
		return
	}

	m := stats.ComputeMetrics(q.rides, q.date, s.policy)
	activity := stats.ComputeStationActivity(stats.DayRides(q.rides, q.date))

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"metrics":       m,
			"cards":         stats.FormatMetrics(m),
			"summary_lines": stats.FormatSummary(m.Summary, s.cfg.Currency),
			"activity":      nonNil(activity),
		},
		"meta": s.dayMeta(q),
	})
}

// handleV1DayMetrics returns the headline cards
// GET /api/v1/days/:date/metrics
func (s *Server) handleV1DayMetrics(c *gin.Context) {
	q, ok := s.loadDay(c)
	if !ok {
		return
	}

	m := stats.ComputeMetrics(q.rides, q.date, s.policy)
	c.JSON(http.StatusOK, gin.H{
		"data": stats.FormatMetrics(m),
		"meta": s.dayMeta(q),
	})
}

// handleV1DayHourly returns rentals per hour of day
// GET /api/v1/days/:date/hourly
func (s *Server) handleV1DayHourly(c *gin.Context) {
	q, ok := s.loadDay(c)
	if !ok {
		return
	}

	hourly := nonNil(stats.HourlyRentals(stats.DayRides(q.rides, q.date)))
	meta := s.dayMeta(q)
	meta["count"] = len(hourly)
	c.JSON(http.StatusOK, gin.H{"data": hourly, "meta": meta})
}

// handleV1DayStations returns the per-station rental and return table
// GET /api/v1/days/:date/stations
func (s *Server) handleV1DayStations(c *gin.Context) {
	q, ok := s.loadDay(c)
	if !ok {
		return
	}

	rows := nonNil(stats.StationTable(stats.DayRides(q.rides, q.date)))
	meta := s.dayMeta(q)
	meta["count"] = len(rows)
	c.JSON(http.StatusOK, gin.H{"data": rows, "meta": meta})
}

// handleV1DaySummary returns the summary figures and their rendered lines
// GET /api/v1/days/:date/summary
func (s *Server) handleV1DaySummary(c *gin.Context) {
	q, ok := s.loadDay(c)
	if !ok {
		return
	}

	summary := stats.ComputeSummary(stats.DayRides(q.rides, q.date), s.policy)
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"values": summary,
			"lines":  stats.FormatSummary(summary, s.cfg.Currency),
		},
		"meta": s.dayMeta(q),
	})
}

// handleV1DayActivity returns rentals per station and hour for the map view
// GET /api/v1/days/:date/activity
func (s *Server) handleV1DayActivity(c *gin.Context) {
	q, ok := s.loadDay(c)
	if !ok {
		return
	}

	activity := nonNil(stats.ComputeStationActivity(stats.DayRides(q.rides, q.date)))
	meta := s.dayMeta(q)
	meta["count"] = len(activity)
	c.JSON(http.StatusOK, gin.H{"data": activity, "meta": meta})
}

// loadDay validates the :date parameter against the available range and fetches
// its window. On failure the response has been written and ok is false.
func (s *Server) loadDay(c *gin.Context) (q dayQuery, ok bool) {
	date, err := ride.ParseDay(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return q, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.QueryTimeout)
	defer cancel()

	latest, ok := s.latestDate(ctx, c)
	if !ok {
		return q, false
	}

	if date.Before(s.cfg.MinDate) || date.After(latest) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":    "date outside available range",
			"min_date": ride.DayKey(s.cfg.MinDate),
			"max_date": ride.DayKey(latest),
		})
		return q, false
	}

	q.date = date
	q.start, q.end = ride.Window(date)
	q.rides, err = s.store.FetchRides(ctx, q.start, q.end)
	if err != nil {
		s.internalError(c, "fetching rides", err)
		return q, false
	}
	return q, true
}

func (s *Server) latestDate(ctx context.Context, c *gin.Context) (time.Time, bool) {
	latest, err := s.store.LatestAvailableDate(ctx)
	if errors.Is(err, db.ErrNoRides) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no rides available"})
		return time.Time{}, false
	}
	if err != nil {
		s.internalError(c, "querying latest date", err)
		return time.Time{}, false
	}
	return latest, true
}

func (s *Server) internalError(c *gin.Context, action string, err error) {
	logrus.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"path":       c.Request.URL.Path,
	}).WithError(err).Error(action)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) dayMeta(q dayQuery) gin.H {
	return gin.H{
		"date":         ride.DayKey(q.date),
		"window_start": q.start.Format(time.DateTime),
		"window_end":   q.end.Format(time.DateTime),
		"ride_count":   len(q.rides),
		"currency":     s.cfg.Currency,
	}
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
