package app

import (
	"github.com/stevearchuleta/javascripteverywhere/internal/auth"
	"github.com/stevearchuleta/javascripteverywhere/internal/cache"
	"github.com/stevearchuleta/javascripteverywhere/internal/config"
	"github.com/stevearchuleta/javascripteverywhere/internal/handlers"
	"github.com/stevearchuleta/javascripteverywhere/internal/repo"
	"github.com/stevearchuleta/javascripteverywhere/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, db *pgxpool.Pool, rdb *redis.Client) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	tokens := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL.Duration())

	// Identity is extracted once here; whether a given operation tolerates an
	// anonymous caller is decided in the services, not per route.
	api := r.Group("/api/v1", auth.WithIdentity(tokens))

	userRepo := repo.NewPGUserRepo(db)
	noteRepo := repo.NewPGNoteRepo(db)
	noteCache := cache.NewNoteCache(rdb, cfg.Redis.DefaultTTL.Duration())

	userSvc := service.NewUserService(userRepo, tokens)
	noteSvc := service.NewNoteService(noteRepo, noteCache)

	authHandler := handlers.NewAuthHandler(userSvc)
	noteHandler := handlers.NewNoteHandler(noteSvc, userSvc)
	userHandler := handlers.NewUserHandler(userSvc, noteSvc)

	registerAuthRoutes(api, authHandler)
	registerNoteRoutes(api, noteHandler)
	registerUserRoutes(api, userHandler)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Notedly API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler) {
	api.POST("/auth/signup", h.SignUp)
	api.POST("/auth/signin", h.SignIn)
}

func registerNoteRoutes(api *gin.RouterGroup, h *handlers.NoteHandler) {
	api.GET("/notes", h.List)
	api.GET("/notes/feed", h.Feed)
	api.GET("/notes/:id", h.GetByID)
	api.GET("/notes/:id/author", h.Author)
	api.GET("/notes/:id/favorited-by", h.FavoritedBy)
	api.POST("/notes", h.Create)
	api.PATCH("/notes/:id", h.Update)
	api.DELETE("/notes/:id", h.Delete)
	api.POST("/notes/:id/favorite", h.ToggleFavorite)
}

func registerUserRoutes(api *gin.RouterGroup, h *handlers.UserHandler) {
	api.GET("/users", h.List)
	api.GET("/users/:username", h.GetByUsername)
	api.GET("/users/:username/notes", h.Notes)
	api.GET("/users/:username/favorites", h.Favorites)
	api.GET("/me", h.Me)
}
