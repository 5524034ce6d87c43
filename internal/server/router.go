// Package server assembles the HTTP API from the feature modules.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"villastay/internal/config"
	"villastay/internal/database"
	"villastay/internal/middleware"
	"villastay/internal/modules/availability"
	"villastay/internal/modules/calendar"
	"villastay/internal/modules/reservation"
	jwtsvc "villastay/internal/pkg/jwt"
	"villastay/internal/repository"
)

// NewRouter wires repositories, services and handlers on top of db.
func NewRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	villaRepo := repository.NewVillaRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	locker := database.NewVillaLocker(db)
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	rangeService := calendar.NewRangeService(calendarRepo, locker)

	calendarHandler := calendar.NewHandler(
		calendar.NewService(calendarRepo, villaRepo),
		rangeService,
		cfg.CalendarStrictRange,
	)
	availabilityHandler := availability.NewHandler(availability.NewService(calendarRepo), villaRepo, cfg.MaxStayNights)
	reservationHandler := reservation.NewHandler(reservation.NewService(
		locker,
		reservationRepo,
		calendarRepo,
		villaRepo,
		rangeService,
		reservation.NewRefGenerator(),
		reservation.Config{
			MaxRefAttempts:    cfg.BookingRefAttempts,
			SplitPaymentDueIn: cfg.SplitPaymentDueIn,
			MaxStayNights:     cfg.MaxStayNights,
		},
	))
	lookupLimiter := middleware.NewIPRateLimiter(cfg.LookupRatePerMinute)

	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger(), middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		admin := v1.Group("")
		admin.Use(middleware.JWTAuth(j), middleware.AdminOnly())

		calendarHandler.RegisterRoutes(v1, admin)
		availabilityHandler.RegisterRoutes(v1)
		reservationHandler.RegisterRoutes(v1, admin, lookupLimiter.Middleware())
	}

	return r
}
