package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"stayhub/internal/cache"
	"stayhub/internal/config"
	"stayhub/internal/database"
	"stayhub/internal/domain"
	"stayhub/internal/middleware"
	"stayhub/internal/modules/auth"
	"stayhub/internal/modules/booking"
	"stayhub/internal/modules/catalog"
	"stayhub/internal/modules/payment"
	jwtsvc "stayhub/internal/pkg/jwt"
	"stayhub/internal/repository"
	"stayhub/internal/sweeper"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Hotel{},
		&domain.Room{},
		&domain.Booking{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	hotelRepo := repository.NewHotelRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	store := cache.NewMemory()
	defer store.Close()

	jwtService := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	authService := auth.NewService(
		userRepo, jwtService, store, auth.LogMailer{},
		cfg.VerificationCodePepper,
		cfg.RefreshTTL, cfg.VerifyCodeTTL, cfg.ResetCodeTTL,
	)
	authHandler := auth.NewHandler(authService)

	catalogService := catalog.NewService(hotelRepo, roomRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	bookingService := booking.NewService(bookingRepo, roomRepo, cfg.PaymentWindow)
	bookingHandler := booking.NewHandler(bookingService)

	gateway := payment.NewGateway(
		cfg.GatewayBaseURL, cfg.GatewayMerchantCode, cfg.GatewaySecret,
		cfg.GatewayReturnURL, cfg.GatewayCurrency, cfg.GatewayLocale, cfg.GatewayOrderType,
	)
	paymentService := payment.NewService(gateway, bookingRepo, roomRepo, log.Printf)
	paymentHandler := payment.NewHandler(paymentService)

	sw := sweeper.New(bookingRepo, roomRepo, cfg.SweepInterval)
	sw.Start()
	defer sw.Stop()

	r := gin.Default()

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.Auth(jwtService))
		admin := protected.Group("/")
		admin.Use(middleware.AdminOnly())

		bookingHandler.RegisterRoutes(protected)
		paymentHandler.RegisterRoutes(protected, v1)
		catalogHandler.RegisterRoutes(v1, admin)
	}

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()
	log.Printf("level=info msg=server started addr=%s env=%s", cfg.ListenAddr, cfg.AppEnv)

	<-ctx.Done()
	log.Println("level=info msg=shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("level=error msg=server shutdown err=%v", err)
	}
}
