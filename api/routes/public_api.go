package routes

import (
	"downtodine/api/handlers"
	"downtodine/api/middleware"
	"downtodine/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// PublicApi mounts the whole HTTP surface on the engine. Tests call this
// with an in-memory database and their own token service.
func PublicApi(router *gin.Engine, orm *gorm.DB, tokens *services.TokenService) *gin.RouterGroup {
	authHandler := &handlers.AuthHandler{Accounts: services.NewAccountService(orm), Tokens: tokens}
	availabilityHandler := &handlers.AvailabilityHandler{
		Availability: services.NewAvailabilityService(orm),
		Overlap:      services.NewOverlapService(orm),
	}
	friendsHandler := &handlers.FriendsHandler{Relationship: services.NewRelationshipService(orm)}
	requestsHandler := &handlers.FriendRequestsHandler{Relationship: services.NewRelationshipService(orm)}
	usersHandler := &handlers.UsersHandler{Search: services.NewSearchService(orm)}
	groupsHandler := &handlers.GroupsHandler{Groups: services.NewGroupService(orm)}

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		authed := api.Group("")
		authed.Use(middleware.Auth(tokens))

		authed.GET("/auth/me", authHandler.Me)

		authed.GET("/availability/today", availabilityHandler.GetToday)
		authed.POST("/availability/today", availabilityHandler.SetToday)
		authed.DELETE("/availability/today", availabilityHandler.ClearToday)
		authed.GET("/availability/user/:id/today", availabilityHandler.UserToday)
		authed.GET("/availability/friends/today", availabilityHandler.FriendsToday)

		authed.GET("/friend-requests", requestsHandler.List)
		authed.POST("/friend-requests", requestsHandler.Send)
		authed.POST("/friend-requests/:id/accept", requestsHandler.Accept)
		authed.POST("/friend-requests/:id/decline", requestsHandler.Decline)

		authed.GET("/friends", friendsHandler.List)
		authed.POST("/friends", friendsHandler.Add)
		authed.DELETE("/friends/:id", friendsHandler.Remove)

		authed.GET("/users/search", usersHandler.SearchUsers)

		authed.GET("/groups", groupsHandler.List)
		authed.POST("/groups", groupsHandler.Create)
		authed.GET("/groups/:id", groupsHandler.Get)
		authed.POST("/groups/:id/join", groupsHandler.Join)
		authed.POST("/groups/:id/leave", groupsHandler.Leave)

		authed.GET("/ping", handlers.Ping)
	}
	return api
}
