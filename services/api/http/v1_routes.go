package http

// registerV1Routes sets up the v1 API structure under /api/v1/days.
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware()) // Add X-API-Version: v1 header
	if s.cfg.BearerToken != "" {
		v1.Use(bearerAuthMiddleware(s.cfg.BearerToken))
	}

	days := v1.Group("/days")
	{
		days.GET("/latest", s.handleV1LatestDay)
		days.GET("/:date", s.handleV1Day)
		days.GET("/:date/metrics", s.handleV1DayMetrics)
		days.GET("/:date/hourly", s.handleV1DayHourly)
		days.GET("/:date/stations", s.handleV1DayStations)
		days.GET("/:date/summary", s.handleV1DaySummary)
		days.GET("/:date/activity", s.handleV1DayActivity)
	}
}
