package leave

import (
	"leavedesk/internal/authz"
	"leavedesk/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authzService authz.Service,
	rdb *redis.Client,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.POST("",
			middleware.Idempotency(rdb),
			middleware.Authorize(authzService, "leave", "create"),
			handler.Create,
		)
		leaves.GET("/my", middleware.Authorize(authzService, "leave", "read_own"), handler.ListMine)
		leaves.GET("/team", middleware.Authorize(authzService, "leave", "read_team"), handler.ListTeam)
		leaves.GET("/pending", middleware.Authorize(authzService, "leave", "read_pending"), handler.ListPending)
		leaves.GET("/all", middleware.Authorize(authzService, "leave", "read_all"), handler.ListAll)
		leaves.GET("/stats", middleware.Authorize(authzService, "leave", "stats"), handler.Stats)
		leaves.PUT("/:id/approve", middleware.Authorize(authzService, "leave", "decide"), handler.Approve)
		leaves.PUT("/:id/reject", middleware.Authorize(authzService, "leave", "decide"), handler.Reject)
	}
}
