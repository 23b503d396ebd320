package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/josephgoksu/geotask/internal/app"
	"github.com/josephgoksu/geotask/internal/geo"
)

func (s *Server) handleHealth(c *gin.Context) {
	monitoring := "active"
	if s.engine.MonitoringError() != nil {
		monitoring = "inactive"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"version":    s.version,
		"uptime":     time.Since(s.startTime).Round(time.Second).String(),
		"monitoring": monitoring,
	})
}

func (s *Server) handleListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, s.withMonitoring(gin.H{"tasks": s.engine.ListTasks()}))
}

func (s *Server) handleAddTask(c *gin.Context) {
	t, err := s.engine.AddTask(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	t, err := s.engine.GetTask(id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	items, err := s.engine.ListItems(id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskResponse{Task: t, Items: items})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	if err := s.engine.DeleteTask(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListItems(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	items, err := s.engine.ListItems(id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) handleRenameTask(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.engine.RenameTask(id, req.Name); err != nil {
		s.writeError(c, err)
		return
	}
	s.respondTask(c, id)
}

func (s *Server) handleSetGeometry(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	var req geometryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.engine.UpdateTaskGeometry(c.Request.Context(), id, *req.Latitude, *req.Longitude, *req.Radius); err != nil {
		s.writeError(c, err)
		return
	}
	s.respondTask(c, id)
}

func (s *Server) handleClearGeometry(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	if err := s.engine.ClearTaskGeometry(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	s.respondTask(c, id)
}

func (s *Server) handleAddItem(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	it, err := s.engine.AddItem(id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

func (s *Server) handleBeginEditing(c *gin.Context) {
	id, ok := taskParam(c)
	if !ok {
		return
	}
	sid, err := s.engine.BeginEditing(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionId": sid, "taskId": id})
}

// handleEndEditing closes the session and waits for its flush so the client
// learns the ids its temporary items were given.
func (s *Server) handleEndEditing(c *gin.Context) {
	ch, err := s.engine.EndEditing(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	select {
	case res := <-ch:
		status := http.StatusOK
		if res.Err != nil {
			status = http.StatusInternalServerError
		}
		c.JSON(status, s.withMonitoring(gin.H{"flush": newFlushResponse(res)}))
	case <-c.Request.Context().Done():
		c.Status(http.StatusAccepted)
	}
}

func (s *Server) handleUpdateItem(c *gin.Context) {
	id, ok := itemParam(c)
	if !ok {
		return
	}
	var req detailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.engine.UpdateItemDetails(id, req.Details); err != nil {
		s.writeError(c, err)
		return
	}
	s.respondItem(c, id)
}

func (s *Server) handleToggleItem(c *gin.Context) {
	id, ok := itemParam(c)
	if !ok {
		return
	}
	if err := s.engine.ToggleItemDone(id); err != nil {
		s.writeError(c, err)
		return
	}
	s.respondItem(c, id)
}

func (s *Server) handleDeleteItem(c *gin.Context) {
	id, ok := itemParam(c)
	if !ok {
		return
	}
	if err := s.engine.DeleteItem(id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListRegions(c *gin.Context) {
	c.JSON(http.StatusOK, s.withMonitoring(gin.H{"regions": s.engine.ListRegions()}))
}

func (s *Server) handleReconcile(c *gin.Context) {
	out, err := s.engine.Reconcile(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "monitoring": "inactive"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": out.Changed, "regions": out.Regions, "monitoring": "active"})
}

func (s *Server) respondTask(c *gin.Context, id geo.TaskID) {
	t, err := s.engine.GetTask(id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.withMonitoring(gin.H{"task": t}))
}

func (s *Server) respondItem(c *gin.Context, id geo.ItemID) {
	it, err := s.engine.GetItem(id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// withMonitoring adds a monitoring flag when the last reconcile failed.
func (s *Server) withMonitoring(h gin.H) gin.H {
	if err := s.engine.MonitoringError(); err != nil {
		h["monitoring"] = "inactive"
		h["monitoringError"] = err.Error()
	}
	return h
}

// writeError maps engine errors onto status codes. Lookups of unknown ids
// answer with a generic message.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrTaskNotFound), errors.Is(err, app.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "something went wrong"})
	case errors.Is(err, app.ErrNoSession), errors.Is(err, app.ErrSessionActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, geo.ErrInvalidGeometry):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func taskParam(c *gin.Context) (geo.TaskID, bool) {
	id, err := geo.ParseTaskID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return 0, false
	}
	return id, true
}

func itemParam(c *gin.Context) (geo.ItemID, bool) {
	n, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, err)
		return 0, false
	}
	return geo.ItemID(n), true
}
