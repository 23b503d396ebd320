package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleAddTask)
		api.GET("/tasks/:id", s.handleGetTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.GET("/tasks/:id/items", s.handleListItems)
		api.PUT("/tasks/:id/name", s.handleRenameTask)
		api.PUT("/tasks/:id/geometry", s.handleSetGeometry)
		api.DELETE("/tasks/:id/geometry", s.handleClearGeometry)
		api.POST("/tasks/:id/items", s.handleAddItem)
		api.POST("/tasks/:id/session", s.handleBeginEditing)
		api.DELETE("/session", s.handleEndEditing)

		api.PUT("/items/:id/details", s.handleUpdateItem)
		api.POST("/items/:id/toggle", s.handleToggleItem)
		api.DELETE("/items/:id", s.handleDeleteItem)

		api.GET("/regions", s.handleListRegions)
		api.POST("/regions/reconcile", s.handleReconcile)
	}
}
