// Package commands распознаёт команды бота во входящем сообщении
// и сопоставляет их с готовыми ответами.
package commands

import (
	"strings"
	"unicode/utf16"
)

const (
	// Marker префикс команды.
	Marker = "/"
	// EntityBotCommand тип entity, которым платформа размечает команды.
	EntityBotCommand = "bot_command"

	qualifierSeparator = "@"
)

// Entity разметка фрагмента текста. Offset и Length считаются
// в UTF-16 code units, как их присылает Telegram.
type Entity struct {
	Type   string
	Offset int
	Length int
}

// Extract ищет команду в начале сообщения.
//
// Разметка entity с offset 0 имеет приоритет над разбором текста; иначе
// командой считается первый токен, если он начинается с Marker.
// Суффикс вида "@botname" отбрасывается, результат приводится к нижнему регистру.
func Extract(text string, entities []Entity) (string, bool) {
	if token, ok := fromEntities(text, entities); ok {
		return normalize(token), true
	}

	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], Marker) {
		return "", false
	}
	return normalize(fields[0]), true
}

func fromEntities(text string, entities []Entity) (string, bool) {
	for _, e := range entities {
		if e.Type != EntityBotCommand || e.Offset != 0 || e.Length <= 0 {
			continue
		}
		units := utf16.Encode([]rune(text))
		length := e.Length
		if length > len(units) {
			length = len(units)
		}
		token := string(utf16.Decode(units[:length]))
		if !strings.HasPrefix(token, Marker) {
			continue
		}
		return token, true
	}
	return "", false
}

func normalize(token string) string {
	if i := strings.Index(token, qualifierSeparator); i >= 0 {
		token = token[:i]
	}
	return strings.ToLower(token)
}
