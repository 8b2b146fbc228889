package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shifa/internal/models"
)

// calendarKeyboard builds a Monday-first month grid. Days before today
// and beyond maxDate render as dots and do nothing; month navigation
// stays within the bookable window.
func calendarKeyboard(year int, month time.Month, today, maxDate time.Time) tgbotapi.InlineKeyboardMarkup {
	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	weekdayOffset := int(firstDay.Weekday())
	if weekdayOffset == 0 {
		weekdayOffset = 7
	}
	daysInMonth := firstDay.AddDate(0, 1, -1).Day()

	rows := make([][]tgbotapi.InlineKeyboardButton, 0)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %d", month.String(), year), "noop:"),
	})
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Mo", "noop:"),
		tgbotapi.NewInlineKeyboardButtonData("Tu", "noop:"),
		tgbotapi.NewInlineKeyboardButtonData("We", "noop:"),
		tgbotapi.NewInlineKeyboardButtonData("Th", "noop:"),
		tgbotapi.NewInlineKeyboardButtonData("Fr", "noop:"),
		tgbotapi.NewInlineKeyboardButtonData("Sa", "noop:"),
		tgbotapi.NewInlineKeyboardButtonData("Su", "noop:"),
	})

	day := 1
	for day <= daysInMonth {
		row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
		for col := 1; col <= 7; col++ {
			if len(rows) == 2 && col < weekdayOffset {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(" ", "noop:"))
				continue
			}
			if day > daysInMonth {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(" ", "noop:"))
				continue
			}
			date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			if date.Before(today) || date.After(maxDate) {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData("·", "noop:"))
			} else {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("%d", day),
					fmt.Sprintf("date:%s", date.Format("2006-01-02")),
				))
			}
			day++
		}
		rows = append(rows, row)
	}

	var nav []tgbotapi.InlineKeyboardButton
	prev := firstDay.AddDate(0, -1, 0)
	next := firstDay.AddDate(0, 1, 0)
	if !prev.AddDate(0, 1, -1).Before(today) {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", "cal:"+prev.Format("2006-01")))
	}
	if !next.After(maxDate) {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", "cal:"+next.Format("2006-01")))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "book:start"),
	})

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// slotsKeyboard lists available times for the chosen day, three per row.
func slotsKeyboard(slots []models.Slot) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0)
	var row []tgbotapi.InlineKeyboardButton
	for _, slot := range slots {
		if !slot.Available {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(slot.Label(), "slot:"+slot.Time))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Other day", "cal:"+time.Now().UTC().Format("2006-01")),
	})
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}
