// Package bot is the conversational front end: it renders the session
// state as Telegram screens and feeds user actions back into the flows.
// All state mutation happens synchronously in the update loop; network
// calls go through the service layer.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"shifa/internal/api"
	"shifa/internal/service"
	"shifa/internal/session"
	"shifa/internal/store"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

// Bot drives the clinic client over Telegram.
type Bot struct {
	tg      telegramClient
	client  *api.Client
	booking *service.BookingFlow
	cart    *service.CartFlow
	auth    *service.AuthFlow

	bookingSession *session.Booking
	cartSession    *session.Cart
	authSession    *session.Auth

	settings   *store.Store
	inputs     *inputStore
	patient    *patientForms
	listed     *listedEntities
	limiter    *rate.Limiter
	maxAdvance time.Duration
	logger     *zerolog.Logger
}

// Deps bundles the bot's collaborators.
type Deps struct {
	Client         *api.Client
	BookingFlow    *service.BookingFlow
	CartFlow       *service.CartFlow
	AuthFlow       *service.AuthFlow
	BookingSession *session.Booking
	CartSession    *session.Cart
	AuthSession    *session.Auth
	Settings       *store.Store
	MaxAdvance     time.Duration
	Logger         *zerolog.Logger
}

// New connects to Telegram and builds the bot.
func New(token string, debug bool, deps Deps) (*Bot, error) {
	tgAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	tgAPI.Debug = debug
	return NewWithTelegramClient(&realTelegramClient{api: tgAPI}, deps)
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(tg telegramClient, deps Deps) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	if deps.MaxAdvance <= 0 {
		deps.MaxAdvance = 30 * 24 * time.Hour
	}
	return &Bot{
		tg:             tg,
		client:         deps.Client,
		booking:        deps.BookingFlow,
		cart:           deps.CartFlow,
		auth:           deps.AuthFlow,
		bookingSession: deps.BookingSession,
		cartSession:    deps.CartSession,
		authSession:    deps.AuthSession,
		settings:       deps.Settings,
		inputs:         newInputStore(),
		patient:        newPatientForms(),
		listed:         newListedEntities(),
		limiter:        rate.NewLimiter(rate.Limit(20), 30),
		maxAdvance:     deps.MaxAdvance,
		logger:         deps.Logger,
	}, nil
}

// Start consumes updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.tg.GetUpdatesChan(updateCfg)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		b.handleText(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.inputs.reset(chatID)

	switch msg.Command() {
	case "start", "menu":
		b.showMenu(chatID)
	case "book":
		b.bookingSession.Begin()
		b.showDepartments(ctx, chatID, 1)
	case "cart":
		b.showCart(ctx, chatID)
	case "invoices":
		b.showInvoices(ctx, chatID, 1)
	case "points":
		b.showPoints(ctx, chatID)
	case "appointments":
		b.showAppointments(ctx, chatID, 1)
	case "offers":
		b.showOffers(ctx, chatID, 1)
	case "services":
		b.showServices(ctx, chatID, 1)
	case "blog":
		b.showBlog(ctx, chatID, 1)
	case "login":
		b.startLogin(chatID)
	case "register":
		b.startRegister(chatID)
	case "logout":
		b.auth.Logout(ctx)
		b.sendText(chatID, "You are signed out.")
	case "seturl":
		b.inputs.set(chatID, stepBaseURL)
		b.sendText(chatID, fmt.Sprintf("Current server: %s\nSend a new base URL, or \"default\" to reset.", b.client.BaseURL()))
	case "cancel":
		b.bookingSession.Reset()
		b.sendText(chatID, "Booking cancelled.")
		b.showMenu(chatID)
	default:
		b.sendText(chatID, "Unknown command. Use /menu.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Always answer to stop the client-side spinner.
	_, _ = b.tg.Request(tgbotapi.NewCallback(cb.ID, ""))

	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	action, arg, _ := strings.Cut(cb.Data, ":")

	switch action {
	case "noop":
	case "menu":
		b.showMenu(chatID)
	case "book":
		b.bookingSession.Begin()
		b.showDepartments(ctx, chatID, 1)
	case "dept":
		b.selectDepartment(ctx, chatID, arg)
	case "dept_page":
		if page, err := strconv.Atoi(arg); err == nil {
			b.showDepartments(ctx, chatID, page)
		}
	case "doctor":
		b.selectDoctor(ctx, chatID, arg)
	case "cal":
		b.showCalendar(chatID, arg)
	case "date":
		b.selectDate(ctx, chatID, arg)
	case "slot":
		b.selectSlot(chatID, arg)
	case "confirm":
		b.confirmBooking(ctx, chatID, arg)
	case "svc":
		b.addServiceToCart(ctx, chatID, arg)
	case "svc_page":
		if page, err := strconv.Atoi(arg); err == nil {
			b.showServices(ctx, chatID, page)
		}
	case "svc_book":
		b.preselectService(ctx, chatID, arg)
	case "cart":
		b.handleCartAction(ctx, chatID, arg)
	case "pay":
		b.selectPayment(ctx, chatID, arg)
	case "checkout":
		b.checkout(ctx, chatID)
	case "invoices_page":
		if page, err := strconv.Atoi(arg); err == nil {
			b.showInvoices(ctx, chatID, page)
		}
	case "invoices_export":
		b.exportInvoices(ctx, chatID)
	case "points":
		b.showPoints(ctx, chatID)
	case "appts_page":
		if page, err := strconv.Atoi(arg); err == nil {
			b.showAppointments(ctx, chatID, page)
		}
	case "appt_cancel":
		b.cancelAppointment(ctx, chatID, arg)
	case "blog_page":
		if page, err := strconv.Atoi(arg); err == nil {
			b.showBlog(ctx, chatID, page)
		}
	case "login":
		b.startLogin(chatID)
	case "register":
		b.startRegister(chatID)
	case "logout":
		b.auth.Logout(ctx)
		b.sendText(chatID, "You are signed out.")
		b.showMenu(chatID)
	default:
		b.logger.Debug().Str("data", cb.Data).Msg("unhandled callback")
	}
}

// send applies the outbound rate limit before every Telegram call.
func (b *Bot) send(msg tgbotapi.Chattable) {
	if err := b.limiter.Wait(context.Background()); err != nil {
		return
	}
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Msg("telegram send failed")
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	b.send(msg)
}

// sendError renders a normalized gateway error. Validation messages map
// onto the originating form; everything else is a generic alert.
func (b *Bot) sendError(chatID int64, err error) {
	apiErr, ok := api.AsError(err)
	if !ok {
		b.sendText(chatID, "Something went wrong. Please try again.")
		return
	}
	switch apiErr.Kind {
	case api.KindNetwork:
		b.sendText(chatID, "No connection. Check your network and try again.")
	case api.KindAuth:
		b.sendText(chatID, "Your session has expired. Please /login again.")
	case api.KindValidation:
		var lines []string
		for _, msgs := range apiErr.Fields {
			lines = append(lines, msgs...)
		}
		if len(lines) == 0 {
			lines = append(lines, apiErr.Message)
		}
		b.sendText(chatID, "Please check your input:\n• "+strings.Join(lines, "\n• "))
	default:
		b.sendText(chatID, "The server could not complete the request. Please try again later.")
	}
}

// requireAuth gates authenticated-only screens on token presence. Guests
// get a login prompt; validity is enforced server-side via 401.
func (b *Bot) requireAuth(chatID int64) bool {
	if b.authSession.IsAuthenticated() {
		return true
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Sign in", "login:start"),
			tgbotapi.NewInlineKeyboardButtonData("Back", "menu:main"),
		),
	)
	b.sendWithKeyboard(chatID, "You need to sign in to see this.", kb)
	return false
}

func (b *Bot) showMenu(chatID int64) {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData("📅 Book an appointment", "book:start")},
		{tgbotapi.NewInlineKeyboardButtonData("💆 Services", "svc_page:1"),
			tgbotapi.NewInlineKeyboardButtonData("🛒 Cart", "cart:open")},
		{tgbotapi.NewInlineKeyboardButtonData("📰 Articles", "blog_page:1")},
	}
	if b.authSession.IsAuthenticated() {
		rows = append(rows,
			[]tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData("🗓 My appointments", "appts_page:1"),
			},
			[]tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData("🧾 Invoices", "invoices_page:1"),
				tgbotapi.NewInlineKeyboardButtonData("⭐ Points", "points:open"),
			},
			[]tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData("Sign out", "logout:now"),
			},
		)
	} else {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Sign in", "login:start"),
		})
	}

	greeting := "Welcome to the clinic."
	if user := b.authSession.User(); user != nil {
		greeting = fmt.Sprintf("Welcome back, %s.", user.Name)
	}
	b.sendWithKeyboard(chatID, greeting, tgbotapi.NewInlineKeyboardMarkup(rows...))
}
