// Package notification implements core.NotifierWithStart over Telegram.
package notification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/raykavin/tradecore/pkg/exchange"
	"github.com/raykavin/tradecore/pkg/logger"
)

var (
	buyRegexp  = regexp.MustCompile(`/buy\s+(?P<pair>\w+)\s+(?P<amount>\d+(?:\.\d+)?)(?P<percent>%)?`)
	sellRegexp = regexp.MustCompile(`/sell\s+(?P<pair>\w+)\s+(?P<amount>\d+(?:\.\d+)?)(?P<percent>%)?`)
)

// Controller is the subset of bot-loop state a Telegram command can
// observe or drive. It is defined here, not imported from the bot
// package, so notification never depends on the state machine — the
// bot wires itself to this interface instead.
type Controller interface {
	Account(ctx context.Context) (core.Account, error)
	LastPrice(ctx context.Context, pair string) (float64, error)
	Position(pair string) (assetAmount, quoteAmount float64, err error)
	CreateOrderMarket(ctx context.Context, side core.SideType, pair string, amount float64) (core.Order, error)
	Pairs() []string
	Status() string
	Start()
	Stop()
}

// Config holds the Telegram transport's own settings (§6 "Notification").
type Config struct {
	Token           string
	AuthorizedUsers []int
}

// telegram implements core.NotifierWithStart.
type telegram struct {
	cfg         Config
	controller  Controller
	log         logger.Logger
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot
}

type Option func(*telegram)

func NewTelegram(controller Controller, cfg Config, log logger.Logger, options ...Option) (core.NotifierWithStart, error) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: 10 * time.Second}

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     cfg.Token,
		Poller:    authMiddleware(poller, cfg, log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &telegram{cfg: cfg, controller: controller, client: client, log: log, defaultMenu: menu}
	for _, option := range options {
		option(bot)
	}

	registerHandlers(client, bot)
	return bot, nil
}

func authMiddleware(poller *tb.LongPoller, cfg Config, log logger.Logger) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.Warn("telegram update with no sender")
			return false
		}
		if slices.Contains(cfg.AuthorizedUsers, int(u.Message.Sender.ID)) {
			return true
		}
		log.Warnf("unauthorized telegram user %d", u.Message.Sender.ID)
		return false
	})
}

func setupKeyboard(menu *tb.ReplyMarkup) {
	var (
		statusBtn  = menu.Text("/status")
		balanceBtn = menu.Text("/balance")
		startBtn   = menu.Text("/start")
		stopBtn    = menu.Text("/stop")
		buyBtn     = menu.Text("/buy")
		sellBtn    = menu.Text("/sell")
	)
	menu.Reply(
		menu.Row(statusBtn, balanceBtn),
		menu.Row(startBtn, stopBtn, buyBtn, sellBtn),
	)
}

func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "help", Description: "Display help instructions"},
		{Text: "stop", Description: "Pause new entries"},
		{Text: "start", Description: "Resume trading"},
		{Text: "status", Description: "Check bot status"},
		{Text: "balance", Description: "Wallet balance"},
		{Text: "buy", Description: "Open a long position manually"},
		{Text: "sell", Description: "Open a short position manually"},
	})
}

func registerHandlers(client *tb.Bot, bot *telegram) {
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/start", bot.StartHandle)
	client.Handle("/stop", bot.StopHandle)
	client.Handle("/status", bot.StatusHandle)
	client.Handle("/balance", bot.BalanceHandle)
	client.Handle("/buy", bot.BuyHandle)
	client.Handle("/sell", bot.SellHandle)
}

func (t *telegram) Start() {
	go t.client.Start()
	t.broadcast("Bot initialized.", t.defaultMenu)
}

func (t *telegram) Notify(text string) { t.broadcast(text) }

func (t *telegram) broadcast(text string, options ...interface{}) {
	for _, user := range t.cfg.AuthorizedUsers {
		if _, err := t.client.Send(&tb.User{ID: int64(user)}, text, options...); err != nil {
			t.log.WithError(err).Warn("failed to deliver telegram notification")
		}
	}
}

func (t *telegram) reply(to *tb.User, text string, options ...interface{}) {
	if _, err := t.client.Send(to, text, options...); err != nil {
		t.log.WithError(err).Warn("failed to reply on telegram")
	}
}

func (t *telegram) BalanceHandle(m *tb.Message) {
	account, err := t.controller.Account(context.Background())
	if err != nil {
		t.OnError(err)
		return
	}

	message, err := t.formatBalanceMessage(account)
	if err != nil {
		t.OnError(err)
		return
	}
	t.reply(m.Sender, message)
}

func (t *telegram) formatBalanceMessage(account core.Account) (string, error) {
	var sb strings.Builder
	sb.WriteString("*BALANCE*\n")
	quotesValue := make(map[string]float64)
	total := 0.0

	for _, pair := range t.controller.Pairs() {
		assetTick, quoteTick := exchange.SplitAssetQuote(pair)
		assetBalance, quoteBalance := account.GetBalance(assetTick, quoteTick)

		assetSize := assetBalance.Free + assetBalance.Lock
		quoteSize := quoteBalance.Free + quoteBalance.Lock

		price, err := t.controller.LastPrice(context.Background(), pair)
		if err != nil {
			return "", fmt.Errorf("failed to get last price for %s: %w", pair, err)
		}

		quotesValue[quoteTick] = quoteSize
		total += assetSize * price
		fmt.Fprintf(&sb, "%s: `%.4f` ~ `%.2f` %s\n", assetTick, assetSize, assetSize*price, quoteTick)
	}

	for quote, value := range quotesValue {
		total += value
		fmt.Fprintf(&sb, "%s: `%.4f`\n", quote, value)
	}
	fmt.Fprintf(&sb, "-----\nTotal: `%.4f`\n", total)
	return sb.String(), nil
}

func (t *telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		t.OnError(err)
		return
	}
	lines := make([]string, 0, len(commands))
	for _, c := range commands {
		lines = append(lines, fmt.Sprintf("/%s - %s", c.Text, c.Description))
	}
	t.reply(m.Sender, strings.Join(lines, "\n"))
}

func (t *telegram) BuyHandle(m *tb.Message) {
	match := buyRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.reply(m.Sender, "Invalid command.\nExample: `/buy BTCUSDT 100`\n`/buy BTCUSDT 50%`")
		return
	}
	if err := t.processOrder(m.Sender, core.SideTypeBuy, match); err != nil {
		t.OnError(err)
	}
}

func (t *telegram) SellHandle(m *tb.Message) {
	match := sellRegexp.FindStringSubmatch(m.Text)
	if len(match) == 0 {
		t.reply(m.Sender, "Invalid command.\nExample: `/sell BTCUSDT 100`\n`/sell BTCUSDT 50%`")
		return
	}
	if err := t.processOrder(m.Sender, core.SideTypeSell, match); err != nil {
		t.OnError(err)
	}
}

func (t *telegram) processOrder(sender *tb.User, side core.SideType, match []string) error {
	command := extractCommandParams(buyRegexp, match)
	pair := strings.ToUpper(command["pair"])
	amount, err := strconv.ParseFloat(command["amount"], 64)
	if err != nil {
		return fmt.Errorf("failed to parse amount: %w", err)
	}
	if amount <= 0 {
		t.reply(sender, "Invalid amount")
		return nil
	}

	if command["percent"] != "" {
		asset, quote, err := t.controller.Position(pair)
		if err != nil {
			return fmt.Errorf("failed to get position for %s: %w", pair, err)
		}
		if side == core.SideTypeBuy {
			amount = amount * quote / 100.0
		} else {
			amount = amount * asset / 100.0
		}
	}

	order, err := t.controller.CreateOrderMarket(context.Background(), side, pair, amount)
	if err != nil {
		return fmt.Errorf("failed to create %s order for %s: %w", side, pair, err)
	}

	t.log.Infof("telegram manual order created: %s %s qty=%.6f", side, pair, order.Quantity)
	return nil
}

func (t *telegram) StatusHandle(m *tb.Message) {
	t.reply(m.Sender, fmt.Sprintf("Status: `%s`", t.controller.Status()))
}

func (t *telegram) StartHandle(m *tb.Message) {
	t.controller.Start()
	t.reply(m.Sender, "Bot started.", t.defaultMenu)
}

func (t *telegram) StopHandle(m *tb.Message) {
	t.controller.Stop()
	t.reply(m.Sender, "Bot stopped.", t.defaultMenu)
}

func (t *telegram) OnOrder(order core.Order) {
	var title string
	switch order.Status {
	case core.OrderStatusTypeFilled:
		title = fmt.Sprintf("ORDER FILLED - %s", order.Pair)
	case core.OrderStatusTypeNew:
		title = fmt.Sprintf("NEW ORDER - %s", order.Pair)
	case core.OrderStatusTypeCanceled, core.OrderStatusTypeRejected:
		title = fmt.Sprintf("ORDER CANCELED/REJECTED - %s", order.Pair)
	}
	t.Notify(fmt.Sprintf("%s\n-----\nside=%s qty=%.6f price=%.4f", title, order.Side, order.Quantity, order.Price))
}

// OnEvent renders the typed core.Event variants the risk manager and bot
// loop publish, replacing free-form string notifications.
func (t *telegram) OnEvent(e core.Event) {
	switch ev := e.(type) {
	case core.PositionOpened:
		t.Notify(fmt.Sprintf("OPENED %s %s\nentry=%.4f qty=%.6f strategy=%s", ev.Pair, ev.Side, ev.Price, ev.Amount, ev.Strategy))
	case core.PositionClosed:
		t.Notify(fmt.Sprintf("CLOSED %s %s\nentry=%.4f exit=%.4f pnl=%.4f reason=%s", ev.Pair, ev.Side, ev.EntryPrice, ev.ExitPrice, ev.ProfitUSDT, ev.Reason))
	case core.CircuitBreakerTripped:
		t.Notify(fmt.Sprintf("CIRCUIT BREAKER TRIPPED: %s\nreason=%s", ev.Kind, ev.Reason))
	case core.CircuitBreakerCleared:
		t.Notify(fmt.Sprintf("circuit breaker cleared: %s", ev.Kind))
	case core.GatewayErrorBackoff:
		t.Notify(fmt.Sprintf("gateway errors backing off: kind=%s next_retry=%s", ev.ErrorKind, ev.NextRetryAt.Format(time.RFC3339)))
	case core.TradeTag:
		if ev.Opened {
			t.Notify(fmt.Sprintf("%s signal %s agreement=%.2f strength=%.2f", ev.Pair, ev.Side, ev.Signal.Agreement, ev.Signal.Strength))
		}
	}
}

func (t *telegram) OnError(err error) {
	var sb strings.Builder
	sb.WriteString("ERROR\n")

	var orderErr *exchange.OrderError
	if errors.As(err, &orderErr) {
		fmt.Fprintf(&sb, "-----\npair=%s qty=%.4f\n-----\n%s", orderErr.Pair, orderErr.Quantity, orderErr.Err)
		t.Notify(sb.String())
		return
	}

	sb.WriteString("-----\n")
	sb.WriteString(err.Error())
	t.Notify(sb.String())
}

func extractCommandParams(regex *regexp.Regexp, match []string) map[string]string {
	command := make(map[string]string)
	for i, name := range regex.SubexpNames() {
		if i != 0 && name != "" {
			command[name] = match[i]
		}
	}
	return command
}
