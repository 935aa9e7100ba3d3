package notify

import "github.com/go-telegram/bot/models"

// Keyboard собирает inline клавиатуру сообщения
type Keyboard struct {
	rows [][]models.InlineKeyboardButton
}

func NewKeyboard() *Keyboard {
	return &Keyboard{rows: make([][]models.InlineKeyboardButton, 0)}
}

// Row добавляет ряд кнопок; пустой ряд пропускается
func (k *Keyboard) Row(buttons ...models.InlineKeyboardButton) *Keyboard {
	if len(buttons) > 0 {
		k.rows = append(k.rows, buttons)
	}
	return k
}

// URLButton создаёт кнопку-ссылку
func URLButton(text, url string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, URL: url}
}

func (k *Keyboard) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: k.rows}
}
