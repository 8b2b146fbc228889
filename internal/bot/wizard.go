package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shifa/internal/api"
	"shifa/internal/models"
	"shifa/internal/service"
	"shifa/internal/session"
)

// listedEntities remembers the last catalog page shown to a chat so that
// a numeric callback can be resolved back into the full record.
type listedEntities struct {
	mu          sync.Mutex
	departments map[int64][]models.Department
	doctors     map[int64][]models.Doctor
	services    map[int64][]models.Service
}

func newListedEntities() *listedEntities {
	return &listedEntities{
		departments: make(map[int64][]models.Department),
		doctors:     make(map[int64][]models.Doctor),
		services:    make(map[int64][]models.Service),
	}
}

func (l *listedEntities) storeDepartments(chatID int64, departments []models.Department) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.departments[chatID] = departments
}

func (l *listedEntities) storeDoctors(chatID int64, doctors []models.Doctor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.doctors[chatID] = doctors
}

func (l *listedEntities) storeServices(chatID int64, services []models.Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services[chatID] = services
}

func (l *listedEntities) department(chatID, id int64) (models.Department, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range l.departments[chatID] {
		if d.ID == id {
			return d, true
		}
	}
	return models.Department{}, false
}

func (l *listedEntities) doctor(chatID, id int64) (models.Doctor, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range l.doctors[chatID] {
		if d.ID == id {
			return d, true
		}
	}
	return models.Doctor{}, false
}

func (l *listedEntities) service(chatID, id int64) (models.Service, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.services[chatID] {
		if s.ID == id {
			return s, true
		}
	}
	return models.Service{}, false
}

func (b *Bot) showDepartments(ctx context.Context, chatID int64, page int) {
	departments, meta, err := b.client.Departments(ctx, page)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.listed.storeDepartments(chatID, departments)

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(departments)+2)
	for _, d := range departments {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(d.Name, fmt.Sprintf("dept:%d", d.ID)),
		})
	}
	rows = append(rows, pageNav("dept_page", page, meta)...)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Menu", "menu:main"),
	})
	b.sendWithKeyboard(chatID, "Choose a department:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) selectDepartment(ctx context.Context, chatID int64, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	dept, ok := b.listed.department(chatID, id)
	if !ok {
		dept = models.Department{ID: id, Name: fmt.Sprintf("Department %d", id)}
	}
	b.bookingSession.SetDepartment(dept)
	b.showDoctors(ctx, chatID)
}

func (b *Bot) showDoctors(ctx context.Context, chatID int64) {
	draft := b.bookingSession.Draft()
	if draft.Department == nil {
		b.showDepartments(ctx, chatID, 1)
		return
	}
	doctors, err := b.booking.Doctors(ctx, draft.Department.ID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(doctors) == 0 {
		b.sendText(chatID, "No doctors are available in this department right now.")
		b.showDepartments(ctx, chatID, 1)
		return
	}
	b.listed.storeDoctors(chatID, doctors)

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(doctors)+1)
	for _, d := range doctors {
		label := d.Name
		if d.Title != "" {
			label = fmt.Sprintf("%s (%s)", d.Name, d.Title)
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("doctor:%d", d.ID)),
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "book:start"),
	})
	b.sendWithKeyboard(chatID, fmt.Sprintf("Doctors in %s:", draft.Department.Name), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) selectDoctor(ctx context.Context, chatID int64, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	doctor, ok := b.listed.doctor(chatID, id)
	if !ok {
		b.showDoctors(ctx, chatID)
		return
	}
	if err := b.bookingSession.SetDoctor(doctor); err != nil {
		b.recoverWizard(ctx, chatID, err)
		return
	}
	now := time.Now().UTC()
	b.showCalendar(chatID, now.Format("2006-01"))
}

func (b *Bot) showCalendar(chatID int64, monthArg string) {
	draft := b.bookingSession.Draft()
	if draft.Doctor == nil {
		b.sendText(chatID, "Pick a doctor first.")
		return
	}
	month, err := time.Parse("2006-01", monthArg)
	if err != nil {
		month = time.Now().UTC()
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	maxDate := today.Add(b.maxAdvance)
	kb := calendarKeyboard(month.Year(), month.Month(), today, maxDate)
	b.sendWithKeyboard(chatID, fmt.Sprintf("Pick a date for %s:", draft.Doctor.Name), kb)
}

func (b *Bot) selectDate(ctx context.Context, chatID int64, date string) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return
	}
	if err := b.bookingSession.SetDate(date); err != nil {
		b.recoverWizard(ctx, chatID, err)
		return
	}
	b.showSlots(ctx, chatID)
}

func (b *Bot) showSlots(ctx context.Context, chatID int64) {
	draft := b.bookingSession.Draft()
	if draft.Doctor == nil || draft.Date == "" {
		b.recoverWizard(ctx, chatID, nil)
		return
	}
	day, err := b.booking.Slots(ctx, draft.Doctor.ID, draft.Date)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if !day.Working || len(day.AvailableSlots()) == 0 {
		b.sendText(chatID, fmt.Sprintf("%s is not seeing patients on %s. Pick another day.", draft.Doctor.Name, draft.Date))
		b.showCalendar(chatID, draft.Date[:7])
		return
	}
	title := fmt.Sprintf("Available times on %s:", draft.Date)
	if day.WorkingHours != "" {
		title = fmt.Sprintf("Available times on %s (working hours %s):", draft.Date, day.WorkingHours)
	}
	b.sendWithKeyboard(chatID, title, slotsKeyboard(day.Slots))
}

func (b *Bot) selectSlot(chatID int64, slot string) {
	if err := b.bookingSession.SetTime(slot); err != nil {
		b.sendText(chatID, "That step is not available yet. Start over with /book.")
		return
	}
	b.inputs.set(chatID, stepPatientName)
	b.sendText(chatID, "Almost done. What is the patient's full name?")
}

// handleText feeds free-form messages into whichever prompt the chat is
// answering. Anything unexpected gets redirected to the menu.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	in := b.inputs.get(chatID)

	switch in.Step {
	case stepPatientName:
		b.patient.setName(chatID, text)
		b.inputs.set(chatID, stepPatientPhone)
		b.sendText(chatID, "Patient's mobile number? (e.g. 05XXXXXXXX)")
	case stepPatientPhone:
		b.patient.setPhone(chatID, text)
		b.inputs.set(chatID, stepNationalID)
		b.sendText(chatID, "National ID or Iqama number?")
	case stepNationalID:
		b.patient.setNationalID(chatID, text)
		b.inputs.set(chatID, stepReason)
		b.sendText(chatID, "Briefly, what is the reason for the visit?")
	case stepReason:
		b.patient.setReason(chatID, text)
		b.inputs.reset(chatID)
		b.showConfirmation(chatID)
	case stepLoginPhone:
		in.LoginPhone = text
		b.inputs.set(chatID, stepLoginPassword)
		b.sendText(chatID, "And your password?")
	case stepLoginPassword:
		phone := in.LoginPhone
		b.inputs.reset(chatID)
		b.finishLogin(ctx, chatID, phone, text)
	case stepRegName:
		in.RegName = text
		b.inputs.set(chatID, stepRegPhone)
		b.sendText(chatID, "Your mobile number? (e.g. 05XXXXXXXX)")
	case stepRegPhone:
		in.RegPhone = text
		b.inputs.set(chatID, stepRegEmail)
		b.sendText(chatID, "Your email? Send \"-\" to skip.")
	case stepRegEmail:
		if text != "-" {
			in.RegEmail = text
		}
		b.inputs.set(chatID, stepRegPassword)
		b.sendText(chatID, "Choose a password:")
	case stepRegPassword:
		b.finishRegister(ctx, chatID, in.RegName, in.RegPhone, in.RegEmail, text)
	case stepCoupon:
		b.inputs.reset(chatID)
		b.applyCoupon(ctx, chatID, text)
	case stepBaseURL:
		b.inputs.reset(chatID)
		b.updateBaseURL(ctx, chatID, text)
	default:
		b.showMenu(chatID)
	}
}

func (b *Bot) showConfirmation(chatID int64) {
	draft := b.bookingSession.Draft()
	form := b.patient.form(chatID)

	var sb strings.Builder
	sb.WriteString("Please confirm the appointment:\n\n")
	if draft.Department != nil {
		sb.WriteString(fmt.Sprintf("Department: %s\n", draft.Department.Name))
	}
	if draft.Doctor != nil {
		sb.WriteString(fmt.Sprintf("Doctor: %s\n", draft.Doctor.Name))
	}
	if draft.PreselectedService != nil {
		sb.WriteString(fmt.Sprintf("Service: %s\n", draft.PreselectedService.Name))
	}
	sb.WriteString(fmt.Sprintf("Date: %s at %s\n", draft.Date, draft.Time))
	sb.WriteString(fmt.Sprintf("Patient: %s, %s\n", form.Name, form.Phone))
	sb.WriteString(fmt.Sprintf("Reason: %s\n", form.ReasonForVisit))

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", "confirm:yes"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "confirm:no"),
		),
	)
	b.sendWithKeyboard(chatID, sb.String(), kb)
}

func (b *Bot) confirmBooking(ctx context.Context, chatID int64, arg string) {
	if arg != "yes" {
		b.bookingSession.Reset()
		b.patient.reset(chatID)
		b.sendText(chatID, "Booking cancelled.")
		b.showMenu(chatID)
		return
	}

	form := b.patient.form(chatID)
	result, err := b.booking.Submit(ctx, form)
	if err != nil {
		b.bookingError(ctx, chatID, err)
		return
	}
	b.patient.reset(chatID)

	text := fmt.Sprintf("✅ Booked! Appointment #%d on %s at %s.",
		result.Appointment.ID, result.Appointment.Date, result.Appointment.Time)
	if result.IssuedCredential != nil {
		text += "\n\nAn account was created for you from this booking. You are now signed in."
	}
	b.sendText(chatID, text)
	b.showMenu(chatID)
}

func (b *Bot) bookingError(ctx context.Context, chatID int64, err error) {
	var prereq *session.PrerequisiteError
	if errors.As(err, &prereq) {
		b.recoverWizard(ctx, chatID, err)
		return
	}
	if errors.Is(err, service.ErrInvalidPhone) {
		b.inputs.set(chatID, stepPatientPhone)
		b.sendText(chatID, "That does not look like a Saudi mobile number. Try again (05XXXXXXXX):")
		return
	}
	b.sendError(chatID, err)
	// Selections are preserved; the user can retry from the confirmation.
	b.showConfirmation(chatID)
}

// recoverWizard sends the user back to the earliest incomplete step.
func (b *Bot) recoverWizard(ctx context.Context, chatID int64, err error) {
	var prereq *session.PrerequisiteError
	if err != nil && errors.As(err, &prereq) {
		b.sendText(chatID, fmt.Sprintf("Missing %s. Let's pick it first.", prereq.Missing))
	}
	draft := b.bookingSession.Draft()
	switch {
	case draft.Department == nil:
		b.showDepartments(ctx, chatID, 1)
	case draft.Doctor == nil:
		b.showDoctors(ctx, chatID)
	case draft.Date == "":
		b.showCalendar(chatID, time.Now().UTC().Format("2006-01"))
	case draft.Time == "":
		b.showSlots(ctx, chatID)
	default:
		b.inputs.set(chatID, stepPatientName)
		b.sendText(chatID, "What is the patient's full name?")
	}
}

func (b *Bot) preselectService(ctx context.Context, chatID int64, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	svc, ok := b.listed.service(chatID, id)
	if !ok {
		b.showServices(ctx, chatID, 1)
		return
	}
	b.bookingSession.Preselect(svc)
	b.bookingSession.Begin()
	b.sendText(chatID, fmt.Sprintf("Booking %s. First, pick a department.", svc.Name))
	b.showDepartments(ctx, chatID, 1)
}

// pageNav builds prev/next rows for paginated lists.
func pageNav(prefix string, page int, meta *api.Meta) [][]tgbotapi.InlineKeyboardButton {
	var nav []tgbotapi.InlineKeyboardButton
	if page > 1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("%s:%d", prefix, page-1)))
	}
	if meta != nil && meta.HasMore() {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("%s:%d", prefix, page+1)))
	}
	if len(nav) == 0 {
		return nil
	}
	return [][]tgbotapi.InlineKeyboardButton{nav}
}
