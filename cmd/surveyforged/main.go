package main

import (
	"context"
	"log"
	"net/http"
	"net/smtp"
	"os"
	"strings"
	"time"

	api "github.com/surveyforge/surveyforge/internal/api/http"
	"github.com/surveyforge/surveyforge/internal/auth"
	"github.com/surveyforge/surveyforge/internal/catalog"
	"github.com/surveyforge/surveyforge/internal/config"
	"github.com/surveyforge/surveyforge/internal/db"
	"github.com/surveyforge/surveyforge/internal/factory"
	"github.com/surveyforge/surveyforge/internal/report"
	"github.com/surveyforge/surveyforge/internal/scoring"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "", log.LstdFlags)

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	catalogStore := catalog.NewSQLStore(dbh, cfg.DBDriver)
	factoryStore := factory.NewSQLStore(dbh)
	blockStore := report.NewSQLBlockStore(dbh)
	files := factory.NewSQLFileDirectory(dbh)

	scoringSvc := scoring.NewService(catalogStore, logger)
	builder := factory.NewBuilder(catalogStore, files, logger)

	// --- Mail (optional) ---
	var sender *report.Sender
	if cfg.SMTPAddr != "" {
		var smtpAuth smtp.Auth
		if cfg.SMTPUser != "" {
			host := cfg.SMTPAddr
			if i := strings.IndexByte(host, ':'); i >= 0 {
				host = host[:i]
			}
			smtpAuth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, host)
		}
		mailer := &report.SMTPMailer{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom, Auth: smtpAuth}
		sender = report.NewSender(mailer, report.NewURLAttachmentStore(files), logger)
	} else {
		logger.Printf("no SMTP_ADDR configured, email delivery disabled")
	}

	pipeline := &api.Pipeline{
		Scoring:     scoringSvc,
		Deployments: factoryStore,
		Responses:   factoryStore,
		Blocks:      blockStore,
		Sender:      sender,
		From:        cfg.SMTPFrom,
		Developer:   cfg.DeveloperEmail,
		Logger:      logger,
	}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.AdminUser, cfg.AdminPassHash)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))

	// Public: submission and the pure scoring endpoint.
	r.Post("/deployments/{deploymentID}/responses", api.SubmitResponseHandler(pipeline))
	r.Post("/score", api.ScoreHandler(scoringSvc))
	r.Get("/deployments/{deploymentID}/form", api.GetDeploymentFormHandler(factoryStore, builder))

	// Operator API.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Post("/catalogs/{testType}/{lang}/questions", api.UploadQuestionsHandler(catalogStore))
		pr.Post("/catalogs/{testType}/{lang}/profiles", api.UploadProfilesHandler(catalogStore))
		pr.Post("/catalogs/{testType}/{lang}/thresholds", api.UploadThresholdsHandler(catalogStore))
		pr.Get("/catalogs/{testType}/{lang}", api.GetCatalogHandler(catalogStore))
		pr.Get("/catalogs/{testType}/languages", api.ListLanguagesHandler(catalogStore))

		pr.Post("/blocks/{lang}", api.UploadBlocksHandler(blockStore))
		pr.Get("/blocks/{lang}", api.GetBlocksHandler(blockStore))
		pr.Post("/files", api.PutFileLinkHandler(files))

		pr.Post("/deployments", api.CreateDeploymentHandler(factoryStore, builder))
		pr.Get("/deployments", api.ListDeploymentsHandler(factoryStore))
		pr.Get("/deployments/{deploymentID}", api.GetDeploymentHandler(factoryStore))

		pr.Get("/responses/{responseID}", api.GetResponseHandler(factoryStore))
		pr.Post("/responses/process", api.ProcessPendingHandler(pipeline))
	})

	logger.Printf("surveyforged listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
