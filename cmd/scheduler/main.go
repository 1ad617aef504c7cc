// The scheduler triggers automation runs for every enabled user on a cron
// schedule. The analytics core does no scheduling of its own; this binary
// is the external trigger.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"finboard/internal/automation"
	"finboard/internal/database"
	"finboard/internal/quote"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_URL")
	if dsn == "" {
		logger.Fatal("POSTGRES_URL is required")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logger.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	repo := database.New(db, logger)
	rates := quote.NewClient(os.Getenv("QUOTE_URL"), os.Getenv("QUOTE_PAIR"), logger)
	orch := automation.New(repo, rates, logger)

	schedule := os.Getenv("AUTOMATION_SCHEDULE")
	if schedule == "" {
		schedule = "@daily"
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { runAll(repo, orch, logger) }); err != nil {
		logger.Fatalf("invalid AUTOMATION_SCHEDULE %q: %v", schedule, err)
	}

	if os.Getenv("RUN_ON_START") == "true" {
		runAll(repo, orch, logger)
	}

	c.Start()
	logger.Infof("scheduler started with schedule %q", schedule)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx := c.Stop()
	<-ctx.Done()
	logger.Info("scheduler stopped")
}

func runAll(repo *database.Repo, orch *automation.Orchestrator, logger *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	users, err := repo.EnabledAutomationUsers(ctx)
	if err != nil {
		logger.Errorf("list enabled users failed: %v", err)
		return
	}
	logger.Infof("running automation for %d users", len(users))

	for _, userID := range users {
		res, err := orch.Run(ctx, userID, "")
		if err != nil {
			logger.Errorf("automation run failed for %s: %v", userID, err)
			continue
		}
		logger.Infof("automation run for %s: %d insights for %s", userID, len(res.Insights), res.Period)
	}
}
