package main

import (
	"log"
	"net/http"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"SupportBot/internal/api"
	"SupportBot/internal/config"
	"SupportBot/internal/handlers"
	"SupportBot/internal/session"
	"SupportBot/internal/storage"
	"SupportBot/internal/telegram_api"
)

func main() {
	// --- Блок инициализации ---
	err := godotenv.Load()
	if err != nil {
		log.Println("Предупреждение: не удалось загрузить файл .env. Переменные окружения должны быть установлены иным способом.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Критическая ошибка: не удалось загрузить конфигурацию: %v", err)
	}

	store, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("Критическая ошибка: не удалось инициализировать хранилище (%s): %v", cfg.StorageDriver, err)
	}
	defer store.Close()

	err = telegram_api.InitBot(cfg.TelegramToken, cfg.AppEnv == "dev")
	if err != nil {
		log.Fatalf("Критическая ошибка: не удалось инициализировать Telegram бота: %v", err)
	}

	if telegram_api.Client == nil || telegram_api.Client.GetAPI() == nil {
		log.Fatalf("Критическая ошибка: Telegram API клиент не был корректно инициализирован.")
	}
	botAPI := telegram_api.Client.GetAPI()

	sessionManager := session.NewSessionManager()

	handlerDeps := handlers.HandlerDependencies{
		Config:         cfg,
		BotClient:      telegram_api.Client,
		SessionManager: sessionManager,
		Store:          store,
	}

	botHandler := handlers.NewBotHandler(handlerDeps)

	// --- Настройка роутера и Middleware ---
	apiRouter := chi.NewRouter()

	apiRouter.Use(middleware.Logger)
	apiRouter.Use(middleware.Recoverer)
	apiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Dashboard-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	apiDeps := api.ApiDependencies{
		Config: cfg,
		Store:  store,
		Bot:    telegram_api.Client,
	}
	api.SetupRoutes(apiRouter, apiDeps)

	// Запускаем HTTP-сервер дашборда в отдельной горутине
	go func() {
		log.Printf("Запуск HTTP-сервера дашборда на порту %s", cfg.Port)
		if err := http.ListenAndServe(":"+cfg.Port, apiRouter); err != nil {
			log.Fatalf("КРИТИЧЕСКАЯ ОШИБКА: не удалось запустить HTTP-сервер: %v", err)
		}
	}()

	// Запуск самого бота
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := botAPI.GetUpdatesChan(u)

	log.Println("Бот и API-сервер запущены и готовы к работе...")

	for update := range updates {
		if update.Message != nil {
			if update.Message.From != nil {
				log.Printf("[%s] %s", update.Message.From.UserName, update.Message.Text)
			}
			go botHandler.HandleMessage(update)
		} else if update.CallbackQuery != nil {
			log.Printf("Callback от %s: %s", update.CallbackQuery.From.UserName, update.CallbackQuery.Data)
			go botHandler.HandleCallback(update)
		}
	}
}
