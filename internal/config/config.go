// internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"

	"SupportBot/internal/constants"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	TelegramToken  string
	AdminChatID    int64
	BotUsername    string
	AppEnv         string
	StorageDriver  string // memory | sqlite | postgres
	DatabaseURL    string // для postgres
	SQLitePath     string // для sqlite
	DashboardToken string // токен для API дашборда; пусто = без авторизации
	Port           string
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_APITOKEN"),
		BotUsername:    os.Getenv("BOT_USERNAME"),
		AppEnv:         os.Getenv("ENV"),
		StorageDriver:  os.Getenv("STORAGE_DRIVER"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SQLitePath:     os.Getenv("SQLITE_PATH"),
		DashboardToken: os.Getenv("DASHBOARD_TOKEN"),
		Port:           os.Getenv("PORT"),
	}

	var err error
	cfg.AdminChatID, err = strconv.ParseInt(os.Getenv("ADMIN_CHAT_ID"), 10, 64)
	if err != nil {
		log.Printf("Предупреждение: не удалось прочитать ADMIN_CHAT_ID: %v. Административные функции будут отключены.", err)
		cfg.AdminChatID = 0
	}

	if cfg.StorageDriver == "" {
		log.Println("Предупреждение: STORAGE_DRIVER не установлен, используется 'memory'. Тикеты будут потеряны при перезапуске.")
		cfg.StorageDriver = constants.STORAGE_MEMORY
	}

	switch cfg.StorageDriver {
	case constants.STORAGE_MEMORY:
		// ничего дополнительно не требуется
	case constants.STORAGE_SQLITE:
		if cfg.SQLitePath == "" {
			log.Println("Предупреждение: SQLITE_PATH не установлен, используется 'support.db'.")
			cfg.SQLitePath = "support.db"
		}
	case constants.STORAGE_POSTGRES:
		if cfg.DatabaseURL == "" {
			log.Println("Критическая ошибка: DATABASE_URL не установлен, но выбран драйвер 'postgres'.")
		}
	default:
		log.Printf("Предупреждение: неизвестный STORAGE_DRIVER '%s', используется 'memory'.", cfg.StorageDriver)
		cfg.StorageDriver = constants.STORAGE_MEMORY
	}

	if cfg.TelegramToken == "" {
		log.Println("Критическая ошибка: TELEGRAM_APITOKEN не установлен.")
	}
	if cfg.BotUsername == "" {
		log.Println("Предупреждение: BOT_USERNAME не установлен. Команда /link не будет работать.")
	}
	if cfg.DashboardToken == "" {
		log.Println("Предупреждение: DASHBOARD_TOKEN не установлен. API дашборда будет доступно без авторизации.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	log.Println("Конфигурация загружена.")
	return cfg, nil
}
