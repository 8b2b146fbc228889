package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shifa/internal/export"
	"shifa/internal/models"
	"shifa/internal/service"
)

func (b *Bot) showServices(ctx context.Context, chatID int64, page int) {
	services, meta, err := b.client.Services(ctx, page)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.listed.storeServices(chatID, services)

	var sb strings.Builder
	sb.WriteString("Our services:\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(services)+2)
	for i, s := range services {
		sb.WriteString(fmt.Sprintf("%d. %s — %.2f SAR\n", i+1, s.Name, s.Price))
		if s.Description != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", s.Description))
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🛒 %s", s.Name), fmt.Sprintf("svc:%d", s.ID)),
			tgbotapi.NewInlineKeyboardButtonData("📅 Book", fmt.Sprintf("svc_book:%d", s.ID)),
		})
	}
	rows = append(rows, pageNav("svc_page", page, meta)...)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Menu", "menu:main"),
	})
	b.sendWithKeyboard(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showOffers(ctx context.Context, chatID int64, page int) {
	offers, _, err := b.client.Offers(ctx, page)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(offers) == 0 {
		b.sendText(chatID, "No offers at the moment.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Current offers:\n\n")
	for _, o := range offers {
		if o.OldPrice > 0 {
			sb.WriteString(fmt.Sprintf("🏷 %s — %.2f SAR (was %.2f)\n", o.Title, o.Price, o.OldPrice))
		} else {
			sb.WriteString(fmt.Sprintf("🏷 %s — %.2f SAR\n", o.Title, o.Price))
		}
		if o.Description != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", o.Description))
		}
	}
	b.sendText(chatID, sb.String())
}

func (b *Bot) addServiceToCart(ctx context.Context, chatID int64, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	if _, err := b.cart.AddService(ctx, id, 1); err != nil {
		b.sendError(chatID, err)
		return
	}
	b.showCart(ctx, chatID)
}

func (b *Bot) showCart(ctx context.Context, chatID int64) {
	cart, err := b.cart.Cart(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(cart.Items) == 0 {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Browse services", "svc_page:1"),
				tgbotapi.NewInlineKeyboardButtonData("⬅️ Menu", "menu:main"),
			),
		)
		b.sendWithKeyboard(chatID, "Your cart is empty.", kb)
		return
	}

	var sb strings.Builder
	sb.WriteString("🛒 Your cart:\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(cart.Items)+4)
	for _, it := range cart.Items {
		sb.WriteString(fmt.Sprintf("%s ×%d — %.2f SAR\n", it.Name, it.Quantity, it.LineTotal))
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("➖", fmt.Sprintf("cart:dec:%d:%d", it.ID, it.Quantity)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d", it.Quantity), "noop:"),
			tgbotapi.NewInlineKeyboardButtonData("➕", fmt.Sprintf("cart:inc:%d:%d", it.ID, it.Quantity)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("cart:rm:%d", it.ID)),
		})
	}
	sb.WriteString(fmt.Sprintf("\nSubtotal: %.2f SAR\n", cart.Subtotal))
	if cart.Discount > 0 {
		sb.WriteString(fmt.Sprintf("Discount (%s): -%.2f SAR\n", cart.CouponCode, cart.Discount))
	}
	sb.WriteString(fmt.Sprintf("Total: %.2f SAR", cart.Total))

	couponBtn := tgbotapi.NewInlineKeyboardButtonData("🎟 Add coupon", "cart:coupon")
	if b.cartSession.CouponCode() != "" {
		couponBtn = tgbotapi.NewInlineKeyboardButtonData("🎟 Remove coupon", "cart:uncoupon")
	}
	rows = append(rows,
		[]tgbotapi.InlineKeyboardButton{couponBtn},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("💳 Checkout", "cart:summary"),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Menu", "menu:main"),
		},
	)
	b.sendWithKeyboard(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleCartAction(ctx context.Context, chatID int64, arg string) {
	parts := strings.Split(arg, ":")
	switch parts[0] {
	case "open":
		b.showCart(ctx, chatID)
	case "inc", "dec":
		if len(parts) != 3 {
			return
		}
		itemID, err1 := strconv.ParseInt(parts[1], 10, 64)
		qty, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil {
			return
		}
		if parts[0] == "inc" {
			qty++
		} else {
			qty--
		}
		if _, err := b.cart.SetQuantity(ctx, itemID, qty); err != nil {
			b.sendError(chatID, err)
			return
		}
		b.showCart(ctx, chatID)
	case "rm":
		if len(parts) != 2 {
			return
		}
		itemID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return
		}
		if _, err := b.cart.SetQuantity(ctx, itemID, 0); err != nil {
			b.sendError(chatID, err)
			return
		}
		b.showCart(ctx, chatID)
	case "coupon":
		b.inputs.set(chatID, stepCoupon)
		b.sendText(chatID, "Send the coupon code:")
	case "uncoupon":
		if _, err := b.cart.RemoveCoupon(ctx); err != nil {
			b.sendError(chatID, err)
		}
		b.showCart(ctx, chatID)
	case "summary":
		b.showCheckoutSummary(ctx, chatID)
	}
}

func (b *Bot) applyCoupon(ctx context.Context, chatID int64, code string) {
	if _, err := b.cart.ApplyCoupon(ctx, code); err != nil {
		b.sendError(chatID, err)
	} else {
		b.sendText(chatID, fmt.Sprintf("Coupon %s applied.", code))
	}
	b.showCart(ctx, chatID)
}

func (b *Bot) showCheckoutSummary(ctx context.Context, chatID int64) {
	if !b.requireAuth(chatID) {
		return
	}
	cart, err := b.cart.Summary(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	var sb strings.Builder
	sb.WriteString("Order summary:\n\n")
	for _, it := range cart.Items {
		sb.WriteString(fmt.Sprintf("%s ×%d — %.2f SAR\n", it.Name, it.Quantity, it.LineTotal))
	}
	if cart.Discount > 0 {
		sb.WriteString(fmt.Sprintf("\nDiscount: -%.2f SAR", cart.Discount))
	}
	sb.WriteString(fmt.Sprintf("\nTotal to pay: %.2f SAR\n\nChoose a payment method:", cart.Total))

	current := b.cartSession.PaymentMethod()
	row := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	for _, m := range []models.PaymentMethod{models.PaymentMyFatoorah, models.PaymentTabby, models.PaymentTamara} {
		label := string(m)
		if m == current {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, "pay:"+string(m)))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		row,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Pay now", "checkout:go"),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Cart", "cart:open"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), kb)
}

func (b *Bot) selectPayment(ctx context.Context, chatID int64, arg string) {
	if !b.cart.SetPaymentMethod(models.PaymentMethod(arg)) {
		b.sendText(chatID, "That payment method is not supported.")
		return
	}
	b.showCheckoutSummary(ctx, chatID)
}

func (b *Bot) checkout(ctx context.Context, chatID int64) {
	if !b.requireAuth(chatID) {
		return
	}
	result, err := b.cart.Checkout(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Open payment page", result.RedirectURL),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Menu", "menu:main"),
		),
	)
	b.sendWithKeyboard(chatID,
		fmt.Sprintf("Order placed. Total %.2f SAR via %s.\nComplete the payment in your browser:", result.Total, result.PaymentMethod),
		kb)
}

func (b *Bot) showInvoices(ctx context.Context, chatID int64, page int) {
	if !b.requireAuth(chatID) {
		return
	}
	invoices, meta, err := b.client.Invoices(ctx, page)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(invoices) == 0 {
		b.sendText(chatID, "No invoices yet.")
		return
	}
	var sb strings.Builder
	sb.WriteString("🧾 Invoices:\n\n")
	for _, inv := range invoices {
		sb.WriteString(fmt.Sprintf("%s  %s  %.2f SAR  [%s]\n", inv.Number, inv.Date, inv.Amount, inv.Status))
	}
	rows := pageNav("invoices_page", page, meta)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("📥 Export to Excel", "invoices_export:all"),
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Menu", "menu:main"),
	})
	b.sendWithKeyboard(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// exportInvoices walks every invoice page and sends the result as an
// xlsx document.
func (b *Bot) exportInvoices(ctx context.Context, chatID int64) {
	if !b.requireAuth(chatID) {
		return
	}
	var all []models.Invoice
	for page := 1; ; page++ {
		invoices, meta, err := b.client.Invoices(ctx, page)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		all = append(all, invoices...)
		if meta == nil || !meta.HasMore() {
			break
		}
	}

	var buf bytes.Buffer
	if err := export.WriteInvoices(&buf, all); err != nil {
		b.logger.Error().Err(err).Msg("invoice export failed")
		b.sendText(chatID, "Could not build the export file.")
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("invoices-%s.xlsx", time.Now().Format("2006-01-02")),
		Bytes: buf.Bytes(),
	})
	b.send(doc)
}

func (b *Bot) showPoints(ctx context.Context, chatID int64) {
	if !b.requireAuth(chatID) {
		return
	}
	balance, err := b.client.Points(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⭐ You have %d points.\n", balance.Balance))
	if len(balance.History) > 0 {
		sb.WriteString("\nRecent activity:\n")
		for i, e := range balance.History {
			if i == 10 {
				break
			}
			sign := "+"
			if e.Points < 0 {
				sign = ""
			}
			sb.WriteString(fmt.Sprintf("%s  %s%d  %s\n", e.Date, sign, e.Points, e.Description))
		}
	}
	b.sendText(chatID, sb.String())
}

func (b *Bot) showAppointments(ctx context.Context, chatID int64, page int) {
	if !b.requireAuth(chatID) {
		return
	}
	appointments, meta, err := b.client.Appointments(ctx, page)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(appointments) == 0 {
		b.sendText(chatID, "You have no appointments.")
		return
	}
	var sb strings.Builder
	sb.WriteString("📅 Your appointments:\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(appointments)+2)
	for _, a := range appointments {
		sb.WriteString(fmt.Sprintf("#%d  %s at %s", a.ID, a.Date, a.Time))
		if a.Status != "" {
			sb.WriteString(fmt.Sprintf("  [%s]", a.Status))
		}
		sb.WriteString("\n")
		if a.Status != "cancelled" {
			rows = append(rows, []tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("❌ Cancel #%d", a.ID), fmt.Sprintf("appt_cancel:%d", a.ID)),
			})
		}
	}
	rows = append(rows, pageNav("appts_page", page, meta)...)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Menu", "menu:main"),
	})
	b.sendWithKeyboard(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) cancelAppointment(ctx context.Context, chatID int64, arg string) {
	if !b.requireAuth(chatID) {
		return
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	if err := b.client.CancelAppointment(ctx, id); err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendText(chatID, fmt.Sprintf("Appointment #%d cancelled.", id))
	b.showAppointments(ctx, chatID, 1)
}

func (b *Bot) showBlog(ctx context.Context, chatID int64, page int) {
	posts, meta, err := b.client.BlogPosts(ctx, page)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(posts) == 0 {
		b.sendText(chatID, "No articles yet.")
		return
	}
	var sb strings.Builder
	sb.WriteString("📰 Health articles:\n\n")
	for _, p := range posts {
		sb.WriteString(fmt.Sprintf("%s (%s)\n", p.Title, p.PublishedAt))
		if p.Excerpt != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", p.Excerpt))
		}
	}
	rows := pageNav("blog_page", page, meta)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Menu", "menu:main"),
	})
	b.sendWithKeyboard(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) startLogin(chatID int64) {
	if b.authSession.IsAuthenticated() {
		b.sendText(chatID, "You are already signed in.")
		return
	}
	b.inputs.set(chatID, stepLoginPhone)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Create an account instead", "register:start"),
		),
	)
	b.sendWithKeyboard(chatID, "Your mobile number? (e.g. 05XXXXXXXX)", kb)
}

func (b *Bot) startRegister(chatID int64) {
	if b.authSession.IsAuthenticated() {
		b.sendText(chatID, "You are already signed in.")
		return
	}
	b.inputs.set(chatID, stepRegName)
	b.sendText(chatID, "Let's create your account. What is your full name?")
}

func (b *Bot) finishRegister(ctx context.Context, chatID int64, name, phone, email, password string) {
	user, err := b.auth.Register(ctx, name, phone, email, password)
	if errors.Is(err, service.ErrInvalidPhone) {
		// Keep the collected answers, re-ask only the phone.
		b.inputs.set(chatID, stepRegPhone)
		b.sendText(chatID, "That does not look like a Saudi mobile number. Try again (05XXXXXXXX):")
		return
	}
	b.inputs.reset(chatID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendText(chatID, fmt.Sprintf("Account created. Welcome, %s!", user.Name))
	b.showMenu(chatID)
}

func (b *Bot) finishLogin(ctx context.Context, chatID int64, phone, password string) {
	user, err := b.auth.Login(ctx, phone, password)
	if errors.Is(err, service.ErrInvalidPhone) {
		b.inputs.set(chatID, stepLoginPhone)
		b.sendText(chatID, "That does not look like a Saudi mobile number. Try again (05XXXXXXXX):")
		return
	}
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendText(chatID, fmt.Sprintf("Welcome, %s!", user.Name))
	b.showMenu(chatID)
}

func (b *Bot) updateBaseURL(ctx context.Context, chatID int64, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "default" {
		raw = ""
	}
	if err := b.settings.SetBaseURLOverride(ctx, raw); err != nil {
		b.logger.Error().Err(err).Msg("persist base url override")
		b.sendText(chatID, "Could not save the setting.")
		return
	}
	if raw == "" {
		b.sendText(chatID, "Server reset to the default. Restart the bot to apply.")
		return
	}
	b.client.SetBaseURL(raw)
	b.sendText(chatID, fmt.Sprintf("Server switched to %s.", raw))
}
