package server

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mdouchement/skystore/internal/cache"
	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/logger"
	"github.com/mdouchement/skystore/internal/media"
	"github.com/mdouchement/skystore/internal/server/middlewares"
	"github.com/mdouchement/skystore/internal/server/serializer"
	"github.com/mdouchement/skystore/internal/server/service"
	"github.com/mdouchement/skystore/internal/server/session"
	"github.com/sirupsen/logrus"
)

// A Controller is an Iversion Of Control pattern used to init the server package.
type Controller struct {
	Version        string
	Database       database.Client
	Cache          cache.Cache
	Logger         *logrus.Logger
	MediaPath      string
	NoRegistration bool
	// JWT params
	SigningKey []byte
	// Session params
	AccessTokenExpirationTime  time.Duration
	RefreshTokenExpirationTime time.Duration
}

// EchoEngine instantiates the wep server.
func EchoEngine(ctrl Controller) *echo.Echo {
	if ctrl.Cache == nil {
		ctrl.Cache = cache.Nop{}
	}
	if ctrl.Logger == nil {
		ctrl.Logger = logger.Discard()
	}

	engine := echo.New()
	engine.HideBanner = true
	engine.Use(middleware.Recover())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	engine.Use(middleware.Gzip())

	engine.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${status}] ${method} ${uri} (${bytes_in}) ${latency_human}\n",
		Output: ctrl.Logger.Writer(),
	}))
	engine.Binder = middlewares.NewBinder()
	// Error handler
	engine.HTTPErrorHandler = middlewares.HTTPErrorHandler(ctrl.Logger)

	////////////
	// Router //
	////////////

	sessions := session.NewManager(
		ctrl.Database,
		ctrl.SigningKey,
		ctrl.AccessTokenExpirationTime,
		ctrl.RefreshTokenExpirationTime,
	)
	storage := media.NewStorage(ctrl.MediaPath)

	router := engine.Group("")
	router.Use(middlewares.Identify(ctrl.Database, sessions, ctrl.Logger))
	// Restricted is applied per route so unknown paths stay not found.
	restricted := middlewares.Restricted()

	engine.Static(serializer.MediaPrefix, ctrl.MediaPath)

	// generic handlers
	//
	router.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"version": ctrl.Version,
		})
	})

	//
	// catalog handlers
	//
	catalog := &catalog{
		service: service.NewCatalog(ctrl.Database, ctrl.Cache, storage, ctrl.Logger),
	}
	router.GET("/", catalog.List)
	router.GET("/catalog", catalog.List)
	router.GET("/catalog/categories", catalog.Categories)
	router.GET("/catalog/categories/:id/products", catalog.Category)
	router.GET("/catalog/products/:id", catalog.Show)
	router.POST("/catalog/products", catalog.Create, restricted)
	router.PUT("/catalog/products/:id", catalog.Update, restricted)
	router.DELETE("/catalog/products/:id", catalog.Delete, restricted)
	router.POST("/catalog/products/:id/state", catalog.Transition, restricted)
	router.PUT("/catalog/products/:id/image", catalog.Image, restricted)

	//
	// contact handlers
	//
	contact := &contact{
		db:  ctrl.Database,
		log: ctrl.Logger,
	}
	router.GET("/contacts", contact.Show)
	router.POST("/contacts", contact.Feedback)

	//
	// blog handlers
	//
	blog := &blog{
		service: service.NewBlog(ctrl.Database, ctrl.Cache, storage, ctrl.Logger),
	}
	router.GET("/blog", blog.List)
	router.GET("/blog/:id", blog.Show)
	router.POST("/blog", blog.Create, restricted)
	router.PUT("/blog/:id", blog.Update, restricted)
	router.DELETE("/blog/:id", blog.Delete, restricted)
	router.POST("/blog/:id/toggle", blog.Toggle, restricted)
	router.PUT("/blog/:id/preview", blog.Preview, restricted)

	//
	// user handlers
	//
	users := &users{
		service: service.NewUsers(ctrl.Database, sessions, storage, ctrl.Logger),
	}
	if !ctrl.NoRegistration {
		router.POST("/users/register", users.Register)
	}
	router.POST("/users/login", users.Login)
	// Refreshing is done with an expired access token, Identify would reject it.
	engine.POST("/users/refresh", users.Refresh)
	router.POST("/users/logout", users.Logout, restricted)
	router.GET("/users/profile", users.Profile, restricted)
	router.PUT("/users/profile", users.Update, restricted)
	router.PUT("/users/profile/avatar", users.Avatar, restricted)

	return engine
}

// PrintRoutes prints the Echo engin exposed routes.
func PrintRoutes(e *echo.Echo) {
	ignored := map[string]bool{
		"":   true,
		".":  true,
		"/*": true,
	}

	routes := e.Routes()
	sort.Slice(routes, func(i int, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})

	fmt.Println("Routes:")
	for _, route := range routes {
		if ignored[route.Path] {
			continue
		}
		fmt.Printf("%6s %s\n", route.Method, route.Path)
	}
}

func page(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil {
		return 1
	}
	return n
}
