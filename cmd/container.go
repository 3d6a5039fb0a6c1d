package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Abraxas-365/compass/guidance/guidanceapi"
	"github.com/Abraxas-365/compass/guidance/guidanceauth"
	"github.com/Abraxas-365/compass/guidance/guidanceinfra"
	"github.com/Abraxas-365/compass/guidance/guidancesrv"
	"github.com/Abraxas-365/compass/guidance/worker"
	"github.com/Abraxas-365/compass/internal/ai/embeddings"
	"github.com/Abraxas-365/compass/internal/ai/llm"
	"github.com/Abraxas-365/compass/internal/ai/resumevision"
	"github.com/Abraxas-365/compass/internal/linkedin"
	"github.com/Abraxas-365/compass/pkg/fsx"
	"github.com/Abraxas-365/compass/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/compass/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/compass/pkg/logx"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	// Infrastructure
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	PlanQueue  *guidanceinfra.RedisQueue

	// Services
	TokenService    *guidanceauth.TokenService
	GuidanceService *guidancesrv.Service

	// API Handlers
	GuidanceHandlers *guidanceapi.GuidanceHandlers

	// Background processing
	PlanWorker *worker.PlanWorker
}

// NewContainer initializes the dependency injection container
func NewContainer() *Container {
	c := &Container{}
	c.initInfrastructure()
	c.initServices()
	return c
}

func (c *Container) initInfrastructure() {
	// 1. Database Connection
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASS")
	dbName := os.Getenv("DB_NAME")
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPass, dbName)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	c.DB = db

	// 2. Redis Connection
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPass := os.Getenv("REDIS_PASS")
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPass,
		DB:       0,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Warnf("Failed to connect to Redis: %v", err)
	}

	// 3. File Storage: S3 in production, local directory for development
	switch os.Getenv("STORAGE_DRIVER") {
	case "local":
		root := os.Getenv("STORAGE_LOCAL_ROOT")
		if root == "" {
			root = "./data"
		}
		c.FileSystem = fsxlocal.NewLocalFileSystem(root)
	default:
		awsRegion := os.Getenv("AWS_REGION")
		awsBucket := os.Getenv("AWS_BUCKET")
		cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(awsRegion))
		if err != nil {
			logx.Fatalf("unable to load SDK config, %v", err)
		}
		c.FileSystem = fsxs3.NewS3FileSystem(s3.NewFromConfig(cfg), awsBucket, "compass")
	}
}

func (c *Container) initServices() {
	// --- Repositories ---
	planRepo := guidanceinfra.NewPostgresPlanRepository(c.DB)
	jobRepo := guidanceinfra.NewPostgresJobRepository(c.DB)
	queue := guidanceinfra.NewRedisQueue(c.Redis, "guidance:plan_jobs")
	c.PlanQueue = queue
	chatStore := guidanceinfra.NewRedisChatStore(c.Redis)

	// --- AI Clients ---
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		logx.Warn("OPENAI_API_KEY is not set, plan generation will fail")
	}
	llmModel := os.Getenv("OPENAI_MODEL")
	if llmModel == "" {
		llmModel = llm.DefaultModel
	}
	llmClient := llm.NewClient(openaiKey, llmModel)
	embedder := embeddings.NewGenerator(openaiKey)
	vision := resumevision.NewParser(openaiKey)

	// --- Plan Access Tokens ---
	tokenSecret := os.Getenv("TOKEN_SECRET")
	if tokenSecret == "" {
		logx.Warn("TOKEN_SECRET is not set, using default (unsafe for production)")
		tokenSecret = "super-secret-key-please-change-me-in-production"
	}
	tokens, err := guidanceauth.NewTokenService(tokenSecret, guidanceauth.DefaultTokenTTL)
	if err != nil {
		logx.Fatalf("Failed to create token service: %v", err)
	}
	c.TokenService = tokens

	// --- Domain Service ---
	c.GuidanceService = guidancesrv.NewService(
		planRepo,
		jobRepo,
		queue,
		llmClient,
		embedder,
		linkedin.NewScraper(),
		vision,
		c.FileSystem,
		chatStore,
	)

	// --- Handlers ---
	c.GuidanceHandlers = guidanceapi.NewGuidanceHandlers(c.GuidanceService, c.FileSystem, c.TokenService)

	// --- Worker Pool ---
	workers := 2
	if v := os.Getenv("PLAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}
	c.PlanWorker = worker.NewPlanWorker(c.GuidanceService, queue, workers)
}
