package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	apperrors "taskboard/internal/errors"
	"taskboard/internal/logger"
	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

type seedTask struct {
	title       string
	description string
	dueIn       time.Duration
	priority    model.Priority
	status      model.TaskStatus
}

var demoTasks = []seedTask{
	{title: "Buy milk", description: "2 litres, semi-skimmed", dueIn: 6 * time.Hour, priority: model.PriorityLow},
	{title: "Prepare sprint review", description: "Collect demo notes from the team", dueIn: 20 * time.Hour, priority: model.PriorityHigh, status: model.TaskStatusInProgress},
	{title: "Renew passport", dueIn: 14 * 24 * time.Hour, priority: model.PriorityMedium},
	{title: "File expense report", priority: model.PriorityMedium, status: model.TaskStatusCompleted},
}

func main() {
	email := flag.String("email", "demo@example.com", "email of the demo account")
	username := flag.String("username", "demo", "username of the demo account")
	password := flag.String("password", "demo1234", "password of the demo account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Dev: true})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stores, err := repository.Open(ctx, cfg)
	if err != nil {
		zl.Fatal("database init", zap.Error(err))
	}
	defer func() { _ = stores.Close(context.Background()) }()

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(stores.Users, auth.NewBcryptHasher(0), jwtService, auth.NewTokenStore(nil), nil)
	taskService := service.NewTaskService(stores.Tasks)

	result, err := authService.Register(ctx, *email, *username, *password)
	switch {
	case apperrors.Is(err, apperrors.KindConflict):
		zl.Info("demo account exists, signing in", zap.String("email", *email))
		result, err = authService.Login(ctx, *email, *password)
		if err != nil {
			zl.Fatal("login demo account", zap.Error(err))
		}
	case err != nil:
		zl.Fatal("register demo account", zap.Error(err))
	}

	created := 0
	for _, st := range demoTasks {
		input := model.TaskInput{
			Title:       st.title,
			Description: st.description,
			Priority:    st.priority,
			Status:      st.status,
		}
		if st.dueIn > 0 {
			due := time.Now().Add(st.dueIn).UTC()
			input.DueDate = &due
		}
		task, err := taskService.Create(ctx, result.User.ID, input)
		if err != nil {
			zl.Error("create task", zap.String("title", st.title), zap.Error(err))
			continue
		}
		created++
		zl.Debug("task created", zap.String("id", task.ID), zap.String("title", task.Title))
	}

	zl.Info("seed completed",
		zap.String("user_id", result.User.ID),
		zap.Int("tasks", created),
		zap.String("token", result.Token),
	)
}
