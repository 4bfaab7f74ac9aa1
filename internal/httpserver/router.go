package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"sweetshop/internal/handlers"
	authmw "sweetshop/internal/middleware/auth"
)

type Deps struct {
	AuthHandler  *handlers.AuthHandler
	SweetHandler *handlers.SweetHandler
	JWTSecret    []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)

	sweets := e.Group("/sweets", authmw.Authenticate(d.JWTSecret))

	sweets.GET("", d.SweetHandler.List)
	sweets.GET("/search", d.SweetHandler.Search)
	sweets.PUT("/:id", d.SweetHandler.Update)
	sweets.POST("/:id/purchase", d.SweetHandler.Purchase)

	adminOnly := authmw.RequireRole("admin")
	sweets.POST("", d.SweetHandler.Create, adminOnly)
	sweets.DELETE("/:id", d.SweetHandler.Delete, adminOnly)
	sweets.POST("/:id/restock", d.SweetHandler.Restock, adminOnly)
}
