package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/config"
	"github.com/inquiry-desk/api-go/logger"
	"github.com/inquiry-desk/api-go/metrics"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/notify"
	"github.com/inquiry-desk/api-go/repository"
	"github.com/inquiry-desk/api-go/routes"
	"github.com/inquiry-desk/api-go/services"
	"github.com/inquiry-desk/api-go/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const appName = "inquiry-desk"

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Inquiry tracking API",
		Long: `Inquiry Desk records inquiries from military and civil requesters,
tracks them through their lifecycle and notifies requesters by email.

Running without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, log, err := bootstrap()
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			log.Info("schema migrated")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := utils.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	})
	cmd.AddCommand(createAdminCmd())

	return cmd
}

func createAdminCmd() *cobra.Command {
	var admin models.User
	var password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(password) < services.MinPasswordLength {
				return fmt.Errorf("password must be at least %d characters", services.MinPasswordLength)
			}
			_, db, log, err := bootstrap()
			if err != nil {
				return err
			}

			hash, err := utils.HashPassword(password)
			if err != nil {
				return err
			}
			admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
			admin.Password = hash
			admin.Role = models.RoleAdmin

			if err := repository.NewStore(db).Users.Create(cmd.Context(), &admin); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return fmt.Errorf("a user with email %s already exists", admin.Email)
				}
				return err
			}
			log.WithField("user_id", admin.ID).Info("admin created")
			return nil
		},
	}

	cmd.Flags().StringVar(&admin.Email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	cmd.Flags().StringVar(&admin.FirstName, "first-name", "System", "First name")
	cmd.Flags().StringVar(&admin.LastName, "last-name", "Admin", "Last name")
	cmd.Flags().StringVar(&admin.Department, "department", "Administration", "Department")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func bootstrap() (*config.AppConfig, *gorm.DB, *logrus.Entry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(appName)

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, log, nil
}

func serve(ctx context.Context) error {
	cfg, db, log, err := bootstrap()
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	store := repository.NewStore(db)

	files, err := config.NewFileStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}

	var mailer notify.Notifier = notify.Noop{}
	if cfg.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTP)
	} else {
		log.Warn("SMTP_HOST not set, emails are disabled")
	}
	notifier := notify.NewAsync(mailer, log, m)

	limiter, closeLimiter := config.NewPublicLimiter(ctx, cfg, log)
	defer closeLimiter()
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	opts := routes.Options{
		Auth:           services.NewAuthService(store, tokens, notifier, log),
		Users:          services.NewUserService(store),
		Requesters:     services.NewRequesterService(store),
		Inquiries:      services.NewInquiryService(store, notifier, files, m, log),
		Responses:      services.NewResponseService(store),
		Attachments:    services.NewAttachmentService(store, files, log),
		Categories:     services.NewCategoryService(store),
		Ranks:          services.NewRankService(store),
		Establishments: services.NewEstablishmentService(store),
		Ping:           store.Ping,
		PublicLimiter:  limiter,
		Metrics:        m,
		Log:            log,
		CORSOrigins:    cfg.CORSOrigins,
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = 32 << 20
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	routes.SetupRoutes(r, opts)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err.Error()).Error("graceful shutdown failed")
	}
	notifier.Wait()
	return nil
}
