package simserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mir-robotics/actionstates/actionlib"
	"github.com/mir-robotics/actionstates/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ginRoute converts a protocol route into gin's :param form.
func ginRoute(route string) string {
	r := strings.NewReplacer("{endpoint}", ":endpoint", "{id}", ":id")

	return r.Replace(route)
}

// Handler returns the HTTP handler serving the action protocol and /metrics.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET(ginRoute(actionlib.RouteServer), s.handleServer)
	router.POST(ginRoute(actionlib.RouteGoals), s.handleSubmit)
	router.GET(ginRoute(actionlib.RouteGoal), s.handleGoal)
	router.POST(ginRoute(actionlib.RouteCancel), s.handleCancel)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		ctx := c.Request.Context()
		logger.Get(ctx).Log(ctx, slog.LevelDebug, "request served",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

func (s *Server) handleServer(c *gin.Context) {
	endpoint := c.Param("endpoint")

	ready, err := s.Ready(endpoint)
	if err != nil {
		abort(c, err)

		return
	}

	c.JSON(http.StatusOK, actionlib.ServerInfo{Endpoint: endpoint, Ready: ready})
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req actionlib.GoalRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, actionlib.ErrorBody{Error: err.Error()})

		return
	}

	if req.GoalID == "" {
		req.GoalID = uuid.NewString()
	}

	state, err := s.Submit(c.Request.Context(), c.Param("endpoint"), req.GoalID, req.Parameters)
	if err != nil {
		abort(c, err)

		return
	}

	c.JSON(http.StatusAccepted, state)
}

func (s *Server) handleGoal(c *gin.Context) {
	state, err := s.Goal(c.Param("endpoint"), c.Param("id"))
	if err != nil {
		abort(c, err)

		return
	}

	c.JSON(http.StatusOK, state)
}

func (s *Server) handleCancel(c *gin.Context) {
	state, err := s.Cancel(c.Param("endpoint"), c.Param("id"))
	if err != nil {
		abort(c, err)

		return
	}

	c.JSON(http.StatusAccepted, state)
}

func abort(c *gin.Context, err error) {
	code := http.StatusInternalServerError

	switch {
	case errors.Is(err, ErrUnknownEndpoint), errors.Is(err, ErrGoalNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrDuplicateGoal):
		code = http.StatusConflict
	case errors.Is(err, ErrNotReady), errors.Is(err, ErrStopped):
		code = http.StatusServiceUnavailable
	}

	c.AbortWithStatusJSON(code, actionlib.ErrorBody{Error: err.Error()})
}
