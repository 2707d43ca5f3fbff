package memory

// Роли реплик в диалоге.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn одна реплика диалога.
type Turn struct {
	Role    string `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // текст реплики
}

// History упорядоченная история реплик, самая новая в конце.
type History []Turn

// Clip оставляет только последние maxTurns реплик, сохраняя порядок.
// При maxTurns <= 0 память отключена и возвращается пустая история.
// Результат никогда не разделяет память с исходным срезом.
func Clip(h History, maxTurns int) History {
	if maxTurns <= 0 || len(h) == 0 {
		return History{}
	}
	start := 0
	if len(h) > maxTurns {
		start = len(h) - maxTurns
	}
	out := make(History, len(h)-start)
	copy(out, h[start:])
	return out
}

// AppendTurn добавляет реплику в конец истории.
// Окно не применяется: после добавления вызывающий обязан сделать Clip.
func AppendTurn(h History, t Turn) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, t)
}

// withoutSystem убирает системные реплики: системный промпт
// подставляется при сборке запроса и в памяти не хранится.
func withoutSystem(h History) History {
	out := make(History, 0, len(h))
	for _, t := range h {
		if t.Role == RoleSystem {
			continue
		}
		out = append(out, t)
	}
	return out
}
