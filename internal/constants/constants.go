package constants

import "time"

// Support Dialogue States
// Состояния диалога поддержки
const (
	STATE_IDLE           = "idle"
	STATE_SUPPORT_WALLET = "support_wallet" // ожидание адреса кошелька / awaiting wallet address
	STATE_SUPPORT_ISSUE  = "support_issue"  // ожидание описания проблемы / awaiting issue description
)

// Message Senders
// Отправители сообщений в логе тикета
const (
	SENDER_USER  = "user"
	SENDER_ADMIN = "admin"
)

// Ticket Categories (menu options)
// Категории тикетов (пункты меню)
const (
	CAT_WALLET      = "wallet_issue"
	CAT_DEPOSIT     = "deposit_problem"
	CAT_WITHDRAWAL  = "withdrawal_problem"
	CAT_ACCESS      = "account_access"
	CAT_OTHER       = "other_question"
	CAT_SUPPORTCHAT = "support_chat"
)

// CategoryDisplayMap maps category keys to the labels shown to users.
var CategoryDisplayMap = map[string]string{
	CAT_WALLET:      "💰 Wallet Issue",
	CAT_DEPOSIT:     "📥 Deposit Problem",
	CAT_WITHDRAWAL:  "📤 Withdrawal Problem",
	CAT_ACCESS:      "🔐 Account Access",
	CAT_OTHER:       "❓ Other Question",
	CAT_SUPPORTCHAT: "💬 Support Chat",
}

// MenuCategories - порядок категорий в главном меню.
var MenuCategories = []string{CAT_WALLET, CAT_DEPOSIT, CAT_WITHDRAWAL, CAT_ACCESS, CAT_OTHER}

// Callback Commands
// Команды обратного вызова. Данные кнопки имеют вид "команда:аргумент",
// разбираются один раз на границе в callback_handler.go.
const (
	CMD_MENU            = "menu"            // menu:<category>
	CMD_CONTACT_SUPPORT = "contact_support" // contact_support
	CMD_BACK_MAIN       = "back_to_main"    // back_to_main
	CMD_QUICK_REPLY     = "quick_reply"     // quick_reply:<chat_id>
	CMD_QUICK_CLOSE     = "quick_close"     // quick_close:<chat_id>
	CMD_HISTORY         = "history"         // history:<chat_id>
	CMD_TICKETS_PAGE    = "tickets_page"    // tickets_page:<page>
	CMD_FILTER          = "filter"          // filter:<tag>
	CMD_NOOP            = "noop"
)

// Ticket List Filters
// Фильтры списка тикетов. Любое другое значение трактуется как ключ категории.
const (
	FILTER_ALL    = "all"
	FILTER_URGENT = "urgent"
	FILTER_RECENT = "recent"
)

// Pagination and Rendering Limits
// Пагинация и лимиты отображения
const (
	TicketsPerPage = 10
	SearchPerPage  = 20

	// UrgentMessageThreshold - тикет считается срочным от этого числа сообщений.
	UrgentMessageThreshold = 5

	// RecentWindow - окно фильтра FILTER_RECENT по LastUpdated.
	RecentWindow = 24 * time.Hour

	// PreviewMaxLen - бюджет символов для превью последнего сообщения.
	PreviewMaxLen = 80
)

// General Text Messages
// Общие текстовые сообщения
const (
	AccessDeniedMessage   = "❌ This command is only for admins."
	TicketNotFoundMessage = "❌ No ticket found for this user."
	StoreErrorMessage     = "❌ A storage error occurred. Please try again."
)

// Storage Drivers
// Драйверы хранилища
const (
	STORAGE_MEMORY   = "memory"
	STORAGE_SQLITE   = "sqlite"
	STORAGE_POSTGRES = "postgres"
)
