package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codearena/internal/api"
	"codearena/internal/app/service"
	"codearena/internal/app/worker"
	"codearena/internal/common/security"
	"codearena/internal/domain/repository"
	"codearena/internal/judge"
	"codearena/internal/platform/config"
	"codearena/internal/platform/database"
	"codearena/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	contestRepo := repository.NewPgContestRepository(database.DB)

	// 6. Initialize Judge Client
	judgeBaseURL := fmt.Sprintf("http://%s:%s", config.AppConfig.JudgeServerHost, config.AppConfig.JudgeServerPort)
	judgeClient := judge.NewClient(judgeBaseURL, config.AppConfig.JudgeServerToken,
		judge.WithTransportOverhead(time.Duration(config.AppConfig.JudgeTransportOverheadMs)*time.Millisecond))

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo)
	problemService := service.NewProblemService(problemRepo, database.DB)
	submissionService := service.NewSubmissionService(database.DB, queue.RDB, submissionRepo, problemRepo, contestRepo)
	contestService := service.NewContestService(contestRepo)

	// 8. Initialize Judging Pipeline Worker (as a goroutine)
	statsUpdater := judge.NewStatisticsUpdater(database.DB, submissionRepo, problemRepo, userRepo, contestRepo,
		config.AppConfig.StatsMaxRetries,
		time.Duration(config.AppConfig.StatsRetryBackoffMs)*time.Millisecond)
	dispatcher := judge.NewDispatcher(submissionRepo, problemRepo, contestRepo, judgeClient, statsUpdater)
	judgeWorker := worker.NewJudgeWorker(queue.RDB, dispatcher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go judgeWorker.Start(workerCtx)
	fmt.Println("Judge worker started.")

	// 9. Initialize Router & HTTP Server
	router := api.NewRouter(authService, problemService, submissionService, contestService, judgeClient)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}
