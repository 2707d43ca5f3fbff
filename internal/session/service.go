// Package session связывает память диалога, команды бота и модель:
// на каждое входящее сообщение выбирается ветка команды или ветка чата.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"chatrelay/internal/commands"
	"chatrelay/internal/llm"
	"chatrelay/internal/memory"
	"chatrelay/internal/observability"
)

const (
	// CompletionFailedReply ответ пользователю при ошибке модели.
	// Он же сохраняется в историю как реплика ассистента.
	CompletionFailedReply = "Sorry, there was an issue talking to the language model."
	// NotConfiguredReply ответ, когда провайдер модели не настроен.
	NotConfiguredReply = "Sorry, the language model is not configured on the server."
)

// Sender доставляет текст пользователю.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Inbound разобранное входящее сообщение.
type Inbound struct {
	ChatID   int64
	Text     string
	Entities []commands.Entity
}

type Deps struct {
	Store        *memory.SafeStore
	Completer    llm.Completer
	Sender       Sender
	Commands     *commands.Table
	SystemPrompt string
	MaxTurns     int
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// Service оркестрирует обработку одного сообщения.
//
// Запросы одного диалога не сериализуются: два почти одновременных
// сообщения читают один снимок истории, и при записи одна из пар реплик
// может потеряться.
type Service struct {
	store        *memory.SafeStore
	completer    llm.Completer
	sender       Sender
	commands     *commands.Table
	systemPrompt string
	maxTurns     int
	logger       *slog.Logger
	metrics      *observability.Metrics
}

func NewService(deps Deps) *Service {
	table := deps.Commands
	if table == nil {
		table = commands.DefaultTable()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:        deps.Store,
		completer:    deps.Completer,
		sender:       deps.Sender,
		commands:     table,
		systemPrompt: deps.SystemPrompt,
		maxTurns:     deps.MaxTurns,
		logger:       logger,
		metrics:      deps.Metrics,
	}
}

// ConversationID ключ памяти для чата.
func ConversationID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// Handle обрабатывает сообщение и отправляет ровно один ответ.
// Возвращает отправленный (или неотправленный из-за ошибки доставки) текст.
func (s *Service) Handle(ctx context.Context, in Inbound) string {
	if cmd, ok := commands.Extract(in.Text, in.Entities); ok {
		return s.handleCommand(ctx, in, cmd)
	}
	return s.handleChat(ctx, in)
}

// handleCommand ветка команды: модель не вызывается, история не читается.
func (s *Service) handleCommand(ctx context.Context, in Inbound, cmd string) string {
	action := s.commands.Resolve(cmd)
	name := action.Name
	if !action.Known() {
		name = "unknown"
	}
	s.metrics.Command(name)

	if action.ResetMemory {
		s.store.Delete(ctx, ConversationID(in.ChatID))
	}

	s.reply(ctx, in.ChatID, action.Reply)
	return action.Reply
}

// handleChat ветка чата: история -> модель -> окно -> запись -> ответ.
func (s *Service) handleChat(ctx context.Context, in Inbound) string {
	id := ConversationID(in.ChatID)
	history := s.store.Get(ctx, id)

	userTurn := memory.Turn{Role: memory.RoleUser, Content: in.Text}
	answer, err := s.completer.Complete(ctx, BuildPrompt(s.systemPrompt, history, in.Text))
	s.metrics.Completion(err)
	if err != nil {
		s.logger.Error("completion failed",
			slog.String("conversation_id", id),
			slog.String("error", err.Error()))
		answer = CompletionFailedReply
		if errors.Is(err, llm.ErrNotConfigured) {
			answer = NotConfiguredReply
		}
	}

	// Реплика-заглушка об ошибке тоже попадает в историю.
	history = memory.AppendTurn(history, userTurn)
	history = memory.AppendTurn(history, memory.Turn{Role: memory.RoleAssistant, Content: answer})
	s.store.Put(ctx, id, memory.Clip(history, s.maxTurns))

	s.reply(ctx, in.ChatID, answer)
	return answer
}

func (s *Service) reply(ctx context.Context, chatID int64, text string) {
	err := s.sender.SendMessage(ctx, chatID, text)
	s.metrics.Reply(err)
	if err != nil {
		s.logger.Error("send message failed",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
	}
}

// BuildPrompt собирает запрос: системный промпт, история, новая реплика.
// Системный промпт в истории не хранится и добавляется здесь.
func BuildPrompt(systemPrompt string, history memory.History, userText string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	for _, t := range history {
		if t.Role == memory.RoleUser || t.Role == memory.RoleAssistant {
			messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
		}
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: userText})
}
