package services

import (
	"encoding/json"
	"os"
)

// ChatFile persists the chat id captured by the registrar bot so the
// renewal notifier, a separate process, can read it later. It lives
// outside the record store on purpose: the bot never touches sqlite.
type ChatFile struct {
	path string
}

func NewChatFile(path string) *ChatFile {
	return &ChatFile{path: path}
}

type chatRecord struct {
	ChatID int64 `json:"chat_id"`
}

// Load returns the registered chat id, false when none was captured yet
// or the file is unreadable. The notifier treats false as "print locally".
func (c *ChatFile) Load() (int64, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return 0, false
	}
	var rec chatRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.ChatID == 0 {
		return 0, false
	}
	return rec.ChatID, true
}

// Save records the chat id, replacing any previous one.
func (c *ChatFile) Save(chatID int64) error {
	data, err := json.Marshal(chatRecord{ChatID: chatID})
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}
