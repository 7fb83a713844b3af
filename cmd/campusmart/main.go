package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"

	"campusmart/internal/config"
	"campusmart/internal/events"
	"campusmart/internal/http/handlers"
	"campusmart/internal/jobs"
	applog "campusmart/internal/log"
	"campusmart/internal/mailer"
	"campusmart/internal/payments"
	"campusmart/internal/ratelimit"
	"campusmart/internal/realtime"
	"campusmart/internal/repos"
	"campusmart/internal/services"
	"campusmart/internal/storage"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	var logOut io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			logOut = io.MultiWriter(os.Stdout, f)
		}
	}
	log.SetOutput(logOut)
	if err := applog.Setup(cfg.LogLevel, logOut); err != nil {
		log.Printf("[warn] %v, using info", err)
	}
	logger := applog.Logger()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if cfg.SeedDemo {
		if err := repos.SeedDemo(context.Background(), db); err != nil {
			log.Fatalf("[seed] %v", err)
		}
	}

	// Templates: server pages and email bodies
	engine := html.New("./web/templates", ".html")
	if err := engine.Load(); err != nil {
		log.Fatalf("[views] %v", err)
	}

	var mail services.Mailer = mailer.Log{Logger: logger}
	if cfg.SMTPHost != "" {
		smtp, err := mailer.NewSMTP(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
			BaseURL:  cfg.BaseURL,
		}, engine)
		if err != nil {
			log.Fatalf("[mail] %v", err)
		}
		mail = smtp
	} else {
		log.Printf("[mail] SMTP_HOST not set, emails are logged only")
	}

	if cfg.PaystackSecret == "" {
		log.Printf("[payments] PAYSTACK_SECRET_KEY not set, gateway calls will be rejected")
	}
	gateway := payments.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecret)

	var publisher events.Publisher = events.LogPublisher{Logger: logger}
	if cfg.RabbitMQURL != "" {
		p, err := events.NewProducer(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("[events] rabbitmq unavailable, events are logged only: %v", err)
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	var store storage.Store
	if cfg.CloudinaryURL != "" {
		if store, err = storage.NewCloudinary(cfg.CloudinaryURL, "campusmart"); err != nil {
			log.Fatalf("[storage] %v", err)
		}
	} else {
		if store, err = storage.NewDisk(cfg.MediaDir, strings.TrimRight(cfg.BaseURL, "/")+"/media"); err != nil {
			log.Fatalf("[storage] %v", err)
		}
		log.Printf("[static] /media -> %s", cfg.MediaDir)
	}

	var limiterStore fiber.Storage
	if cfg.RedisURL != "" {
		rs, err := ratelimit.NewRedisStorage(cfg.RedisURL, "campusmart:limiter")
		if err != nil {
			log.Printf("[limiter] redis unavailable, counting in memory: %v", err)
		} else {
			defer rs.Close()
			limiterStore = rs
		}
	}

	app, deps, err := handlers.NewApp(db, cfg, handlers.Options{
		Mailer:         mail,
		Gateway:        gateway,
		Events:         publisher,
		Store:          store,
		Hub:            realtime.NewHub(),
		Views:          engine,
		LimiterStorage: limiterStore,
		AccessLog:      logOut,
	})
	if err != nil {
		log.Fatal(err)
	}
	app.Static("/static", "./web/static")

	sweeper := jobs.NewJobs(deps.Orders, deps.Users, logger, cfg.EscrowAutoRelease, cfg.PaymentAbandonAfter)
	sched := jobs.NewScheduler(sweeper, logger, jobs.Schedules{
		Escrow:   cfg.EscrowJobSchedule,
		Payments: cfg.PaymentJobSchedule,
		Cleanup:  cfg.CleanupJobSchedule,
	})
	log.Printf("[jobs] %d scheduled", sched.Start())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("[http] %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Printf("[http] shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("[http] shutdown: %v", err)
	}
	<-sched.Stop().Done()
}
