// Package telegram exposes store operations as Telegram bot commands and
// delivers run summaries to Telegram chats.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/storeops/internal/gateway"
	"github.com/user/storeops/internal/state"
	"github.com/user/storeops/internal/stream"
	"github.com/user/storeops/internal/types"
)

const maxTelegramMessage = 4096

// KeyPrefix marks delivery keys routed to Telegram chats.
const KeyPrefix = "telegram:"

// Runner is the part of the run supervisor the bot drives.
type Runner interface {
	Start(input map[string]string) (*gateway.Subscription, error)
	Active() int64
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Adapter bridges Telegram to the run supervisor and the store.
type Adapter struct {
	bot    *tgbotapi.BotAPI
	send   sender
	runner Runner
	repo   *state.Repository
}

// New creates a Telegram adapter.
func New(token string, runner Runner, repo *state.Repository) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{bot: bot, send: bot, runner: runner, repo: repo}, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			go a.handleCommand(ctx, update.Message.Chat.ID, update.Message.Command(), update.Message.CommandArguments())
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

// Deliver sends message to the chat named by a "telegram:<chat id>" key.
func (a *Adapter) Deliver(_ context.Context, key, message string) error {
	chatID, err := chatIDFromKey(key)
	if err != nil {
		return err
	}
	return a.sendResponse(chatID, message)
}

func (a *Adapter) handleCommand(ctx context.Context, chatID int64, command, args string) {
	reply := a.reply(ctx, chatID, command, args)
	if err := a.sendResponse(chatID, reply); err != nil {
		slog.Error("telegram send failed", "chat_id", chatID, "error", err)
	}
}

func (a *Adapter) reply(ctx context.Context, chatID int64, command, args string) string {
	switch command {
	case "start", "help":
		return "Store operations bot.\n/run [store_id] - run the operations pipeline\n/lowstock - list low-stock items\n/status - active runs"

	case "run":
		input := map[string]string{"trigger": "telegram"}
		if id := strings.TrimSpace(args); id != "" {
			input["store_id"] = id
		}
		sub, err := a.runner.Start(input)
		if err != nil {
			return "Could not start a run: " + err.Error()
		}
		if err := a.sendResponse(chatID, fmt.Sprintf("Run %s started.", sub.RunID)); err != nil {
			slog.Error("telegram send failed", "chat_id", chatID, "error", err)
		}
		result, err := stream.AwaitResult(ctx, sub)
		if err != nil {
			return fmt.Sprintf("Run %s: %v", sub.RunID, err)
		}
		return formatResult(string(sub.RunID), result)

	case "lowstock":
		items, err := a.repo.ListLowStock(ctx)
		if err != nil {
			slog.Error("telegram low stock query failed", "error", err)
			return "Error fetching inventory."
		}
		return formatLowStock(items)

	case "status":
		return fmt.Sprintf("Active runs: %d", a.runner.Active())

	default:
		return "Unknown command. Available: /run, /lowstock, /status"
	}
}

func formatResult(runID string, result stream.Event) string {
	if !result.Success {
		return fmt.Sprintf("Run %s failed: %s", runID, result.Error)
	}
	return fmt.Sprintf("Run %s completed.\n\n%s", runID, result.Output)
}

func formatLowStock(items []types.InventoryItem) string {
	if len(items) == 0 {
		return "No items are low on stock."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Low stock (%d):", len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "\n- %s %s: %d (threshold %d)", it.SKU, it.Name, it.Quantity, it.ReorderThreshold)
	}
	return b.String()
}

func (a *Adapter) sendResponse(chatID int64, text string) error {
	for _, part := range splitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, part)
		if _, err := a.send.Send(msg); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

// splitMessage cuts text into chunks Telegram accepts without splitting a
// UTF-8 sequence.
func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := min(maxTelegramMessage, len(text))
		cut := end
		for cut < len(text) && cut > end-utf8.UTFMax && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut > 0 && (cut == len(text) || utf8.RuneStart(text[cut])) {
			end = cut
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}

func chatIDFromKey(key string) (int64, error) {
	raw, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok {
		return 0, fmt.Errorf("not a telegram key: %q", key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", raw, err)
	}
	return id, nil
}
