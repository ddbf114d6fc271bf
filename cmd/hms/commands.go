package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/medora/hospital-system/internal/api"
	"github.com/medora/hospital-system/internal/api/handler"
	"github.com/medora/hospital-system/internal/core/service"
	mongodb "github.com/medora/hospital-system/internal/infrastructure/db/mongo"
	redisdb "github.com/medora/hospital-system/internal/infrastructure/db/redis"
	"github.com/medora/hospital-system/internal/infrastructure/queue"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create MongoDB indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer a.close(context.Background())
			return a.migrate(ctx)
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo accounts that are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer a.close(context.Background())
			if err := a.migrate(ctx); err != nil {
				return err
			}

			users := service.NewUserService(mongodb.NewUserRepository(a.db), a.log.With().Str("component", "users").Logger())
			added, err := users.SeedDemoUsers(ctx)
			if err != nil {
				return err
			}
			a.log.Info().Int("added", added).Msg("demo users seeded")
			return nil
		},
	}
}

func runServer(ctx context.Context) error {
	a, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if err := a.migrate(ctx); err != nil {
		return err
	}

	component := func(name string) zerolog.Logger {
		return a.log.With().Str("component", name).Logger()
	}

	// --- Repositories ---
	userRepo := mongodb.NewUserRepository(a.db)
	patientRepo := mongodb.NewPatientRepository(a.db)
	appointmentRepo := mongodb.NewAppointmentRepository(a.db)
	prescriptionRepo := mongodb.NewPrescriptionRepository(a.db)
	billingRepo := mongodb.NewBillingRepository(a.db)
	notificationRepo := mongodb.NewNotificationRepository(a.db)
	sessionStore := redisdb.NewSessionStore(a.redis, a.cfg.Session.IdleTTL)

	// --- Services ---
	notifications := service.NewNotificationService(notificationRepo, component("notifications"))
	dispatcher := queue.NewDispatcher(a.cfg.NotifyWorkers, notifications, component("dispatcher"))
	sessions := service.NewSessionService(userRepo, sessionStore, a.cfg.Session.CSRFMaxAge, component("sessions"))
	users := service.NewUserService(userRepo, component("users"))

	if a.cfg.SeedDemoUsers {
		added, err := users.SeedDemoUsers(ctx)
		if err != nil {
			return err
		}
		a.log.Info().Int("added", added).Msg("demo users seeded")
	}

	e := api.NewRouter(api.Services{
		Sessions:      sessions,
		Policy:        service.NewAccessPolicy(sessions),
		Users:         users,
		Patients:      service.NewPatientService(patientRepo, userRepo, component("patients")),
		Appointments:  service.NewAppointmentService(appointmentRepo, patientRepo, userRepo, dispatcher, component("appointments")),
		Prescriptions: service.NewPrescriptionService(prescriptionRepo, appointmentRepo, patientRepo, dispatcher, component("prescriptions")),
		Billing:       service.NewBillingService(billingRepo, patientRepo, dispatcher, component("billing")),
		Notifications: notifications,
	}, api.Options{
		Session:     a.cfg.Session,
		CORSOrigins: a.cfg.CORSOrigins,
		Health: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error { return a.mongo.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return a.redis.Ping(ctx).Err() },
		},
		Log: component("http"),
	})

	// Workers outlive the HTTP server so in-flight requests can still enqueue.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + a.cfg.Port
		a.log.Info().Str("addr", addr).Str("env", a.cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := e.Shutdown(shutdownCtx)

		stopWorkers()
		dispatcher.Wait()
		a.log.Info().Msg("notification workers drained")
		return err
	})

	if err := g.Wait(); err != nil {
		a.log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	a.log.Info().Msg("server stopped")
	return nil
}
