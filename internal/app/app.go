package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/apiclient"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app/server"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/config"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/delivery/api"
	web "github.com/MohamedLahlami/EMSTUDY-sub000/internal/delivery/http"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/delivery/http/controllers"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/quiz"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/service/auth"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/session"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/storage/elastic"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/storage/memory"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/storage/minio_storage"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/storage/postgres"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

// Run serves the browser facing web tier.
func Run(cfg *config.Config) {
	log := logger.New(cfg.Env)
	log.Info("Starting web tier with Env: "+cfg.Env, "api", cfg.API.BaseURL)

	store, closeStore := sessionStore(cfg, log)
	defer closeStore()

	attempts := quiz.NewRegistry(log, cfg.Quiz.TickInterval, quiz.WithRetention(cfg.Quiz.Retention))
	defer attempts.Close()

	if cfg.Session.CookieSecret == "" {
		log.Warn("session.cookie_secret is empty, using a random key")
	}
	cookies, err := web.NewCookieStore(cfg.Session.CookieSecret, cfg.Session.Secure, cfg.Session.TTL)
	if err != nil {
		log.FatalErr("error creating cookie store", err)
	}

	r, err := web.InitRoutes(log, web.Deps{
		API:      apiclient.New(log, cfg.API.BaseURL, cfg.API.Timeout),
		Sessions: session.NewManager(session.NewTokenParser(cfg.API.JWTSecret), store, cfg.Session.TTL),
		Attempts: attempts,
		Cookies:  cookies,
		Options: controllers.Options{
			CookieName: cfg.Session.CookieName,
			Refresh:    cfg.Quiz.RefreshInterval,
		},
	})
	if err != nil {
		log.FatalErr("error loading templates", err)
	}

	serve(log, cfg.HTTPServer.Address, cfg.HTTPServer.Timeout, cfg.HTTPServer.IdleTimeout, r)
}

func sessionStore(cfg *config.Config, log logger.Log) (session.Store, func()) {
	if cfg.Session.Store != config.StoreRedis {
		store := session.NewMemoryStore()
		ctx, cancel := context.WithCancel(context.Background())
		go store.Run(ctx, time.Minute)
		return store, cancel
	}
	client := session.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	store := session.NewRedisStore(client, cfg.Redis.Prefix)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		log.FatalErr("error connecting to redis", err, "address", cfg.Redis.Address)
	}
	log.Info("sessions stored in redis", "address", cfg.Redis.Address)
	return store, func() { _ = client.Close() }
}

// RunDemo serves the stand-in REST API.
func RunDemo(cfg *config.Config) {
	log := logger.New(cfg.Env)
	log.Info("Starting demo API with Env: "+cfg.Env, "storage", cfg.Demo.Storage)
	ctx := context.Background()

	var store service.Store = memory.New()
	if cfg.Demo.Storage == "postgres" {
		pg, err := postgres.NewPostgresPool(cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.DBName)
		if err != nil {
			log.FatalErr("error connecting to database", err)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			log.FatalErr("error migrating database", err)
		}
		store = postgres.NewRepositories(pg.Pool)
	}

	var files service.Files = memory.NewFileStorage()
	if cfg.Minio.Enabled() {
		ms, err := minio_storage.NewMinioStorage(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
		if err != nil {
			log.FatalErr("error connecting to minio", err)
		}
		materials, err := minio_storage.NewMaterialStorage(ctx, ms, cfg.Minio.Bucket, cfg.Minio.PresignTTL)
		if err != nil {
			log.FatalErr("error preparing material bucket", err, "bucket", cfg.Minio.Bucket)
		}
		files = materials
	}

	var search service.Search = memory.NewCourseSearch()
	if cfg.ES.Enabled() {
		client, err := elastic.NewElasticClient(cfg.ES.Password, cfg.ES.Hosts)
		if err != nil {
			log.FatalErr("error connecting to elasticsearch", err)
		}
		repo := elastic.NewCourseSearchRepository(client, cfg.ES.Index)
		if err := repo.CreateIndexIfNotExist(ctx); err != nil {
			log.FatalErr("error creating course index", err)
		}
		search = repo
	}

	secret := cfg.JWT.SecretKey
	if secret == "" {
		log.Warn("jwt.secret_key is empty, tokens will not survive a restart")
		secret = randomSecret()
	}
	jwtManager := auth.NewJWTManager(secret, models.TokenIssuer, cfg.JWT.AccessTTL)
	u := service.New(log, jwtManager, store, files, search, service.Options{
		MaxUpload: cfg.Demo.MaxUpload,
		PublicURL: cfg.Demo.PublicURL,
	})

	if cfg.Demo.Seed {
		if err := u.Seed(ctx); err != nil {
			log.FatalErr("error seeding demo data", err)
		}
		log.Info("demo data ready", "teacher", service.SeedTeacherEmail, "student", service.SeedStudentEmail)
	}

	r := api.InitRoutes(log, u, cfg.Demo.CORSOrigins, cfg.Demo.MaxUpload)
	serve(log, cfg.Demo.Address, cfg.Demo.Timeout, cfg.HTTPServer.IdleTimeout, r)
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func serve(log logger.Log, address string, timeout, idleTimeout time.Duration, r *gin.Engine) {
	srv := server.New(address, timeout, idleTimeout, r)
	srv.Start()
	log.Info("listening", "address", address)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Info("app signal: " + s.String())
	case err := <-srv.Notify():
		log.ErrorErr("server stopped", err)
	}
	if err := srv.Shutdown(); err != nil {
		log.ErrorErr("error shutting down", err)
	}
}
