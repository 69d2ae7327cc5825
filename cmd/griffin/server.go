package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/griffin/internal/ai"
	"github.com/xxxsen/griffin/internal/config"
	"github.com/xxxsen/griffin/internal/embedcache"
	"github.com/xxxsen/griffin/internal/filestore"
	"github.com/xxxsen/griffin/internal/handler"
	"github.com/xxxsen/griffin/internal/job"
	"github.com/xxxsen/griffin/internal/middleware"
	"github.com/xxxsen/griffin/internal/repo"
	"github.com/xxxsen/griffin/internal/schedule"
	"github.com/xxxsen/griffin/internal/service"
	"github.com/xxxsen/griffin/internal/worker"
)

func buildManager(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (*ai.Manager, error) {
	providers, err := ai.BuildProviders(cfg.AI)
	if err != nil {
		return nil, err
	}
	chatter, err := ai.BuildChatter(providers, cfg.AI.Chat)
	if err != nil {
		return nil, err
	}
	embedder, err := ai.BuildEmbedder(providers, cfg.AI.Embed)
	if err != nil {
		return nil, err
	}
	cacheTTL := time.Duration(cfg.AI.CacheTTLMinutes) * time.Minute
	embedder = embedcache.WrapStore(embedder, cacheRepo)
	embedder = embedcache.WrapLRU(embedder, cfg.AI.CacheSize, cacheTTL)
	speaker, err := ai.BuildSpeaker(providers, cfg.AI.Speech)
	if err != nil {
		return nil, err
	}
	transcriber, err := ai.BuildTranscriber(providers, cfg.AI.Transcribe)
	if err != nil {
		return nil, err
	}
	return ai.NewManager(chatter, embedder, speaker, transcriber, ai.ManagerConfig{
		Timeout:       cfg.AI.Timeout,
		MaxInputChars: cfg.AI.MaxInputChars,
		Voice:         cfg.AI.Voice,
		CacheSize:     cfg.AI.CacheSize,
		CacheTTL:      cacheTTL,
	}), nil
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.Strings("chat_models", cfg.AI.Chat),
		zap.Strings("embed_models", cfg.AI.Embed),
	)

	userRepo := repo.NewUserRepo(db)
	notebookRepo := repo.NewNotebookRepo(db)
	noteRepo := repo.NewNoteRepo(db)
	tagRepo := repo.NewTagRepo(db)
	noteTagRepo := repo.NewNoteTagRepo(db)
	taskRepo := repo.NewTaskRepo(db)
	taskHistoryRepo := repo.NewTaskHistoryRepo(db)
	questionRepo := repo.NewQuestionRepo(db)
	conversationRepo := repo.NewConversationRepo(db)
	itemRepo := repo.NewConversationItemRepo(db)
	mediaRepo := repo.NewMediaRepo(db)
	embeddingRepo := repo.NewEmbeddingRepo(db)
	embeddingCacheRepo := repo.NewEmbeddingCacheRepo(db)
	searchRepo := repo.NewSearchRepo(db)

	manager, err := buildManager(cfg, embeddingCacheRepo)
	if err != nil {
		return fmt.Errorf("init ai: %w", err)
	}
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	pool := worker.NewPool("conversation", cfg.Conversation.Workers, cfg.Conversation.QueueSize)
	defer pool.Stop()

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours), cfg.DisableSignup)
	notebookService := service.NewNotebookService(notebookRepo, noteRepo)
	tagService := service.NewTagService(tagRepo, noteTagRepo)
	noteService := service.NewNoteService(noteRepo, notebookRepo, noteTagRepo, tagRepo, taskRepo, embeddingRepo, tagService)
	taskService := service.NewTaskService(taskRepo, taskHistoryRepo, noteRepo)
	questionService := service.NewQuestionService(questionRepo, noteRepo, manager)
	searchService := service.NewSearchService(searchRepo, embeddingRepo, manager, cfg.AI.SemanticMinScore)
	conversationService := service.NewConversationService(
		conversationRepo, itemRepo, noteRepo, manager, pool,
		ai.NewTokenCounter(cfg.AI.TokenEncoding),
		service.ConversationConfig{
			ReplyTimeout:     time.Duration(cfg.Conversation.ReplyTimeout) * time.Second,
			MaxHistoryTokens: cfg.Conversation.MaxHistoryTokens,
			SystemPrompt:     cfg.Conversation.SystemPrompt,
		},
	)
	mediaService := service.NewMediaService(mediaRepo, noteRepo, store, manager)
	embeddingService := service.NewEmbeddingService(embeddingRepo, manager)

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService),
		Notebooks:     handler.NewNotebookHandler(notebookService),
		Notes:         handler.NewNoteHandler(noteService),
		Tags:          handler.NewTagHandler(tagService, noteService),
		Tasks:         handler.NewTaskHandler(taskService),
		Questions:     handler.NewQuestionHandler(questionService),
		Search:        handler.NewSearchHandler(searchService),
		Conversations: handler.NewConversationHandler(conversationService),
		Media:         handler.NewMediaHandler(mediaService, cfg.UploadMaxBytes),
		Files:         handler.NewFileHandler(mediaService),
		JWTSecret:     []byte(cfg.JWTSecret),
		AIRateLimit:   middleware.RateLimit(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`/stream$`, `/content$`, `^/api/v1/files/`})),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	reaper := job.NewConversationReaperJob(itemRepo, time.Duration(cfg.Conversation.ReplyTimeout)*time.Second)
	jobs := []struct {
		job  schedule.Job
		spec string
	}{
		{reaper, cfg.Jobs.ConversationReaper},
		{job.NewNoteEmbeddingJob(embeddingService, cfg.Jobs.EmbeddingBatch), cfg.Jobs.NoteEmbedding},
		{job.NewEmbeddingCacheCleanupJob(embeddingCacheRepo, cfg.Jobs.EmbeddingCacheMaxDays), cfg.Jobs.EmbeddingCacheCleanup},
	}
	for _, item := range jobs {
		if err := scheduler.AddJob(item.job, item.spec); err != nil {
			return fmt.Errorf("schedule %s: %w", item.job.Name(), err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()
	// replies left pending by a previous process will never finish
	if err := scheduler.RunNow(reaper.Name()); err != nil {
		logutil.GetLogger(ctx).Error("run reaper at startup failed", zap.Error(err))
	}

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
