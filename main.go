package main

import (
	"TaskPilotGo/config"
	"TaskPilotGo/middleware"
	"TaskPilotGo/routes"
	"TaskPilotGo/services"
	"TaskPilotGo/utils"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	// 初始化日志
	if err := config.InitLogger(); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	defer config.Logger.Sync()

	// 加载配置
	conf, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	utils.InitJWT(conf.JWTSecret)

	// 初始化数据库
	db, err := config.InitDB(conf)
	if err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}

	// 初始化Redis
	redisClient, err := config.InitRedis(conf)
	if err != nil {
		log.Fatalf("无法初始化Redis: %v", err)
	}

	// 初始化LLM客户端
	llmClient, err := services.NewLLMClient(conf.LLMAPIKey, conf.LLMAPIEndpoint, conf.LLMModel)
	if err != nil {
		log.Fatalf("无法初始化LLM客户端: %v", err)
	}

	generationService := services.NewGenerationService(
		db,
		llmClient,
		services.NewGenerationLock(redisClient),
	)

	// 设置Gin模式
	if conf.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建Gin引擎
	r := gin.New()

	// 设置中间件
	middleware.SetupMiddleware(r)

	// 注册路由
	routes.RegisterRoutes(r, db, generationService)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:    ":" + conf.ServerPort,
		Handler: r,
	}

	// 在goroutine中启动服务器
	go func() {
		log.Printf("启动服务器，监听端口: %s", conf.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以实现优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务器关闭失败: %v", err)
	}

	log.Println("服务器已关闭")
}
