package bot

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"jetgrab/internal/config"
	"jetgrab/internal/domain"
	"jetgrab/internal/export"
	"jetgrab/internal/session"
)

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot   *tgbot.Bot
	deps  session.Deps
	prefs domain.Preferences
	log   logrus.FieldLogger

	mu       sync.Mutex
	sessions map[int64]*session.Session
}

// NewHandler creates the bot and registers the command handlers. Every
// chat gets its own session built from deps and prefs.
func NewHandler(cfg config.Config, deps session.Deps, prefs domain.Preferences, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")
	if err := cfg.RequireBotToken(); err != nil {
		return nil, err
	}

	h := &Handler{
		deps:     deps,
		prefs:    prefs,
		log:      log,
		sessions: make(map[int64]*session.Session),
	}

	b, err := tgbot.New(cfg.TelegramBotToken, tgbot.WithDefaultHandler(h.defaultHandler))
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h.bot = b
	h.registerHandlers()

	log.Info("Telegram bot handler initialized")
	return h, nil
}

func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/help", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/extract", tgbot.MatchTypePrefix, h.extractHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/package", tgbot.MatchTypeExact, h.packageHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/history", tgbot.MatchTypeExact, h.historyHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/retry", tgbot.MatchTypeExact, h.retryHandler)
	h.log.Debug("Registered command handlers")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) sessionFor(chatID int64) *session.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[chatID]
	if !ok {
		s = session.New(h.deps, h.prefs)
		h.sessions[chatID] = s
	}
	return s
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLen) {
		if _, err := h.bot.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: part}); err != nil {
			h.log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
			return
		}
	}
}

func (h *Handler) startHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.log.WithField("chat_id", update.Message.Chat.ID).Info("Received /start command")
	h.reply(ctx, update.Message.Chat.ID, helpText)
}

func (h *Handler) extractHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.runBatch(ctx, update.Message.Chat.ID, session.ModeExtract, commandArg(update.Message.Text, "/extract"))
}

// defaultHandler batch-scrapes any URLs in a plain message.
func (h *Handler) defaultHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	h.runBatch(ctx, update.Message.Chat.ID, session.ModeScrape, update.Message.Text)
}

func (h *Handler) runBatch(ctx context.Context, chatID int64, mode session.Mode, text string) {
	log := h.log.WithFields(logrus.Fields{"chat_id": chatID, "mode": mode})
	s := h.sessionFor(chatID)

	if _, err := s.Dispatch(ctx, session.SetMode{Mode: mode}); err != nil {
		log.WithError(err).Warn("Mode change failed")
	}
	st, err := s.Dispatch(ctx, session.Submit{Text: text})
	if err != nil {
		log.WithError(err).Debug("Submit rejected")
		h.reply(ctx, chatID, st.Status)
		return
	}
	log.WithField("items", st.Items.Len()).Info("Batch finished")
	h.reply(ctx, chatID, formatState(st, listLimit))
}

func (h *Handler) retryHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, err := h.sessionFor(chatID).Dispatch(ctx, session.Retry{})
	if err != nil {
		h.reply(ctx, chatID, st.Status)
		return
	}
	h.reply(ctx, chatID, formatState(st, listLimit))
}

func (h *Handler) packageHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, err := h.sessionFor(chatID).Dispatch(ctx, session.Package{VisibleOnly: true})
	if err != nil || st.LastArchive == nil {
		h.reply(ctx, chatID, st.Status)
		return
	}

	arc := st.LastArchive
	_, err = h.bot.SendDocument(ctx, &tgbot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: export.ArchiveName(arc.Filename), Data: bytes.NewReader(arc.Data)},
		Caption:  st.Status,
	})
	if err != nil {
		h.log.WithError(err).WithField("chat_id", chatID).Error("Failed to send archive")
		h.reply(ctx, chatID, "could not upload the archive: "+err.Error())
	}
}

func (h *Handler) historyHandler(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	if h.deps.History == nil {
		h.reply(ctx, update.Message.Chat.ID, "history is disabled")
		return
	}
	h.reply(ctx, update.Message.Chat.ID, formatHistory(h.deps.History.List(), listLimit))
}
