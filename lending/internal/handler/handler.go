package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	md "github.com/Astemirdum/book-lending/pkg/middleware"
	"github.com/Astemirdum/book-lending/pkg/serializer"
	"github.com/Astemirdum/book-lending/pkg/validate"
)

const (
	DefaultCookieName = "sessionId"
	// HeaderUserID names the caller directly when Options.DevHeader is set.
	HeaderUserID = "X-User-Id"
)

type Options struct {
	CookieName   string
	SecureCookie bool
	DevHeader    bool
}

type Handler struct {
	svc  LendingService
	log  *zap.Logger
	opts Options
}

func New(svc LendingService, log *zap.Logger, opts Options) *Handler {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	return &Handler{
		svc:  svc,
		log:  log.Named("handler"),
		opts: opts,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.HideBanner = true
	e.JSONSerializer = serializer.JSONSerializer{}
	e.Validator = validate.NewCustomValidator()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)
	h.register(api)
	return e
}

// register mounts every /api/v1 route on g. Tests use it with a bare group.
func (h *Handler) register(g *echo.Group) {
	auth := g.Group("/auth")
	auth.POST("/signup", h.Signup)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout, h.Authenticate)

	user := g.Group("/user", h.Authenticate)
	user.GET("/me", h.Me)
	user.PUT("/profile", h.UpdateProfile)
	user.DELETE("/account", h.DeleteAccount)

	books := g.Group("/books", h.Authenticate)
	books.POST("", h.CreateBook)
	books.GET("", h.ListOwnedBooks)
	books.GET("/available", h.ListAvailableBooks)
	books.GET("/lent", h.ListLentBooks)
	books.GET("/borrowed", h.ListBorrowedBooks)
	books.GET("/requested", h.ListRequestedBooks)
	books.GET("/owned/pending-approval", h.ListPendingApprovalBooks)
	books.GET("/genres", h.ListGenres)
	books.GET("/genre/:genre", h.ListBooksByGenre)

	books.GET("/:id", h.GetBook)
	books.PUT("/:id", h.UpdateBook)
	books.PATCH("/:id", h.UpdateBook)
	books.PUT("/:id/details", h.UpdateBook)
	books.DELETE("/:id", h.DeleteBook)
	books.POST("/:id/request-borrow", h.RequestBorrow)
	books.POST("/:id/borrow", h.Borrow)
	books.POST("/:id/approve/:requestingUserId", h.Approve)
	books.POST("/:id/reject/:requestingUserId", h.Reject)
	books.POST("/:id/cancel-request", h.CancelRequest)
	books.POST("/:id/return", h.Return)
	books.POST("/:id/reconcile", h.Reconcile)

	books.POST("/:id/reviews", h.UpsertReview)
	books.GET("/:id/reviews", h.ListReviews)
	books.PUT("/:id/reviews/:reviewId", h.UpdateReview)
	books.DELETE("/:id/reviews/:reviewId", h.DeleteReview)
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
