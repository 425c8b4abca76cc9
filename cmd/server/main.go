// Workforce 排班引擎服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nextera/workforce/internal/config"
	"github.com/nextera/workforce/internal/database"
	"github.com/nextera/workforce/internal/handler"
	"github.com/nextera/workforce/internal/metrics"
	"github.com/nextera/workforce/internal/middleware"
	"github.com/nextera/workforce/internal/repository"
	"github.com/nextera/workforce/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	format := "json"
	if cfg.IsDevelopment() {
		format = "console"
	}
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: format,
	})

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("env", cfg.App.Env).
		Msg("Workforce 排班引擎启动")

	// 连接数据库
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Error().Err(err).Msg("数据库连接失败")
		os.Exit(1)
	}
	defer db.Close()

	// 创建仓储和处理器
	templateRepo := repository.NewTemplateRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)

	templateHandler := handler.NewTemplateHandler(templateRepo)
	employeeHandler := handler.NewEmployeeHandler(employeeRepo)
	engineHandler := handler.NewEngineHandler(templateRepo, employeeRepo, candidateRepo, cfg.Engine)

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Health(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded","database":"down"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"workforce"}`))
	})

	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// 模板 API
	// ========================================

	mux.HandleFunc("POST /api/v1/templates", templateHandler.Create)
	mux.HandleFunc("GET /api/v1/templates", templateHandler.List)
	mux.HandleFunc("GET /api/v1/templates/{id}", templateHandler.Get)
	mux.HandleFunc("PUT /api/v1/templates/{id}", templateHandler.Update)
	mux.HandleFunc("DELETE /api/v1/templates/{id}", templateHandler.Delete)
	mux.HandleFunc("GET /api/v1/templates/presets", templateHandler.PresetLibrary)
	mux.HandleFunc("GET /api/v1/templates/presets/{industry}", templateHandler.Presets)

	// ========================================
	// 员工目录 API
	// ========================================

	mux.HandleFunc("POST /api/v1/employees", employeeHandler.Create)
	mux.HandleFunc("GET /api/v1/employees", employeeHandler.List)
	mux.HandleFunc("GET /api/v1/employees/{id}", employeeHandler.Get)
	mux.HandleFunc("PUT /api/v1/employees/{id}", employeeHandler.Update)
	mux.HandleFunc("DELETE /api/v1/employees/{id}", employeeHandler.Delete)

	// ========================================
	// 排班流程 API
	// ========================================

	mux.HandleFunc("POST /api/v1/schedules/analyze-conflicts", engineHandler.AnalyzeConflicts)
	mux.HandleFunc("POST /api/v1/schedules/generate", engineHandler.Generate)
	mux.HandleFunc("POST /api/v1/schedules/apply-auto-fixes", engineHandler.ApplyAutoFixes)
	mux.HandleFunc("POST /api/v1/schedules/publish", engineHandler.Publish)
	mux.HandleFunc("POST /api/v1/schedules/discard", engineHandler.Discard)
	mux.HandleFunc("GET /api/v1/schedules", engineHandler.ListCandidates)

	// ========================================
	// 监控端点
	// ========================================

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	// 中间件执行顺序：requestID -> recovery -> rateLimit -> cors -> logging -> handler
	limiter := middleware.NewRateLimiter(float64(cfg.API.RateLimit))
	root := middleware.RequestIDMiddleware(
		middleware.RecoveryMiddleware(
			middleware.RateLimitMiddleware(limiter,
				middleware.CORSMiddleware(
					middleware.LoggingMiddleware(mux)))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}
