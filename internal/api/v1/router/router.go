package router

import (
	"context"
	"database/sql"
	"net/http"

	"coursehub/internal/api/v1/handler"
	"coursehub/internal/config"
	"coursehub/internal/database"
	"coursehub/internal/middleware"
	"coursehub/internal/repository"
	"coursehub/internal/service"
	"coursehub/internal/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the full application: database, S3, services, handlers and
// middleware. The returned *sql.DB belongs to the caller for shutdown.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")

	// 1. Open DB connection (connection pooling) and apply schema
	db, err := database.Open(cfg.DBConnectionString, cfg.Environment)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		return nil, nil, err
	}
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		db.Close()
		logger.Error().Err(err).Msg("Failed to apply database schema")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// 2. Initialize S3 client
	s3Config, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		db.Close()
		logger.Error().Err(err).Msg("Failed to load S3 config")
		return nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		if cfg.S3URL != "" {
			o.BaseEndpoint = aws.String(cfg.S3URL)
			o.UsePathStyle = true
		}
	})
	store := storage.New(s3Client, cfg.S3Bucket, logger)

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(db)
	courseRepo := repository.NewCourseRepo(db, logger)
	materialRepo := repository.NewMaterialRepo(db)
	enrollmentRepo := repository.NewEnrollmentRepo(db)
	paymentRepo := repository.NewPaymentRepo(db, logger)

	authSvc := service.NewAuthService(userRepo, cfg, logger)
	courseSvc := service.NewCourseService(courseRepo, materialRepo, enrollmentRepo, store, logger)
	materialSvc := service.NewMaterialService(materialRepo, store, cfg.S3Bucket, logger)
	paymentSvc := service.NewPaymentService(cfg, paymentRepo, courseRepo, enrollmentRepo, userRepo, logger)

	secureCookie := cfg.Environment != "development"
	authHandler := handler.NewAuthHandler(authSvc, validate, secureCookie, logger)
	courseHandler := handler.NewCourseHandler(courseSvc, materialSvc, validate, logger)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, validate, cfg.StripeWebhookSecret, logger)

	// 5. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.AccessTokenSecret)

	// 6. Create ServeMux router
	mux := http.NewServeMux()

	apiMux := http.NewServeMux()
	authHandler.RegisterRoutes(apiMux, authMiddleware)
	courseHandler.RegisterRoutes(apiMux, authMiddleware)
	paymentHandler.RegisterRoutes(apiMux, authMiddleware)

	mux.Handle("/api/", http.StripPrefix("/api", apiMux))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// 7. Apply CORS middleware. Credentials must be allowed for the
	// refresh-token cookie, so the origin list is explicit.
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux), logger), db, nil
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
