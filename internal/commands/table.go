package commands

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Встроенные команды.
const (
	CommandStart = "start"
	CommandHelp  = "help"
	CommandReset = "reset"
)

const (
	defaultStartReply   = "Hi! Send me a message and I will answer. Use /reset to start a new conversation."
	defaultHelpReply    = "Just write to me. I remember the last few messages of our chat.\n/reset - forget the conversation\n/help - show this message"
	defaultResetReply   = "Conversation memory cleared."
	defaultUnknownReply = "Command not recognized. Try /help."
)

// Entry описание команды: ответ и побочный эффект.
type Entry struct {
	Reply string `yaml:"reply"`
	Reset bool   `yaml:"reset"`
}

// Action что нужно сделать в ответ на команду.
type Action struct {
	Name        string // имя без Marker; "" для нераспознанной команды
	Reply       string
	ResetMemory bool
}

// Known сообщает, найдена ли команда в таблице.
func (a Action) Known() bool {
	return a.Name != ""
}

// Table таблица команд. После создания не меняется, безопасна для
// конкурентного чтения.
type Table struct {
	entries map[string]Entry
	unknown string
}

// DefaultTable таблица со встроенными командами start, help, reset.
func DefaultTable() *Table {
	return &Table{
		entries: map[string]Entry{
			CommandStart: {Reply: defaultStartReply},
			CommandHelp:  {Reply: defaultHelpReply},
			CommandReset: {Reply: defaultResetReply, Reset: true},
		},
		unknown: defaultUnknownReply,
	}
}

// Resolve сопоставляет извлечённую команду ("/reset") с действием.
func (t *Table) Resolve(command string) Action {
	name := strings.TrimPrefix(strings.ToLower(command), Marker)
	entry, ok := t.entries[name]
	if !ok || name == "" {
		return Action{Reply: t.unknown}
	}
	return Action{Name: name, Reply: entry.Reply, ResetMemory: entry.Reset}
}

// Names возвращает имена всех команд таблицы.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	return names
}

// tableFile формат YAML-файла с командами:
//
//	unknown: "Unknown command"
//	commands:
//	  start:
//	    reply: "Hello!"
//	  about:
//	    reply: "A relay bot."
type tableFile struct {
	Unknown  string           `yaml:"unknown"`
	Commands map[string]Entry `yaml:"commands"`
}

// LoadTable читает YAML-файл и накладывает его на встроенную таблицу:
// можно переопределить ответы встроенных команд и добавить новые.
// Пустой path даёт DefaultTable.
func LoadTable(path string) (*Table, error) {
	table := DefaultTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read commands file: %w", err)
	}

	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse commands file %s: %w", path, err)
	}

	if file.Unknown != "" {
		table.unknown = file.Unknown
	}
	for rawName, entry := range file.Commands {
		name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(rawName)), Marker)
		if name == "" || strings.ContainsAny(name, " \t"+qualifierSeparator) {
			return nil, fmt.Errorf("invalid command name %q", rawName)
		}
		base, exists := table.entries[name]
		if entry.Reply == "" {
			if !exists {
				return nil, fmt.Errorf("command %q has no reply", rawName)
			}
			entry.Reply = base.Reply
		}
		// reset у встроенной команды не отключается
		if exists && base.Reset {
			entry.Reset = true
		}
		table.entries[name] = entry
	}
	return table, nil
}
