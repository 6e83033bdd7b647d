package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/langchou/fleetdesk/internal/models"
)

// RegisterRoutes 注册全部路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.HealthCheck)
	r.GET("/ws", h.HandleWebSocket)

	v1 := r.Group("/api/v1")

	// 公开路由
	v1.POST("/register", h.Register)
	v1.POST("/login", h.Login)

	// 认证路由
	authed := v1.Group("")
	authed.Use(h.Authenticate())
	{
		authed.POST("/logout", h.Logout)
		authed.GET("/user", h.Me)

		// 车辆
		authed.GET("/vehicles", h.ListVehicles)
		authed.POST("/vehicles", h.StoreVehicle)
		authed.GET("/vehicles/:id", h.ShowVehicle)
		authed.PUT("/vehicles/:id", h.UpdateVehicle)
		authed.DELETE("/vehicles/:id", h.DestroyVehicle)
		authed.POST("/vehicles/:id/archive", h.ArchiveVehicle)
		authed.POST("/vehicles/:id/restore", h.RestoreVehicle)
		authed.GET("/my-vehicle", RequireRole(models.RoleChauffeur), h.MyVehicle)

		// 车辆证件（嵌套在车辆下）
		authed.GET("/vehicles/:id/documents", h.ListDocuments)
		authed.POST("/vehicles/:id/documents", h.StoreDocument)
		authed.GET("/vehicles/:id/documents/expiring", h.ExpiringDocuments)
		authed.GET("/vehicles/:id/documents/:documentId", h.ShowDocument)
		authed.PUT("/vehicles/:id/documents/:documentId", h.UpdateDocument)
		authed.DELETE("/vehicles/:id/documents/:documentId", h.DestroyDocument)

		// 维保记录（嵌套在车辆下）
		authed.GET("/vehicles/:id/maintenances", h.ListMaintenances)
		authed.POST("/vehicles/:id/maintenances", h.StoreMaintenance)
		authed.GET("/vehicles/:id/maintenances/upcoming", h.UpcomingMaintenances)
		authed.GET("/vehicles/:id/maintenances/:maintenanceId", h.ShowMaintenance)
		authed.PUT("/vehicles/:id/maintenances/:maintenanceId", h.UpdateMaintenance)
		authed.DELETE("/vehicles/:id/maintenances/:maintenanceId", h.DestroyMaintenance)

		// 车辆交接
		authed.GET("/exchanges", h.ListExchanges)
		authed.POST("/exchanges", h.StoreExchange)
		authed.GET("/exchanges/:id", h.ShowExchange)
		authed.PUT("/exchanges/:id", h.UpdateExchange)
		authed.DELETE("/exchanges/:id", h.DestroyExchange)
		authed.POST("/exchanges/:id/approve", h.ApproveExchange)
		authed.POST("/exchanges/:id/reject", h.RejectExchange)
		authed.GET("/my-exchanges", RequireRole(models.RoleChauffeur), h.MyExchanges)

		// 用户管理（仅管理员）
		admin := authed.Group("/users")
		admin.Use(RequireRole(models.RoleAdmin))
		{
			admin.GET("", h.ListUsers)
			admin.POST("", h.StoreUser)
			admin.GET("/:id", h.ShowUser)
			admin.PUT("/:id", h.UpdateUser)
			admin.DELETE("/:id", h.DestroyUser)
			admin.POST("/:id/assign-vehicle", h.AssignVehicle)
		}
	}
}
