package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody struct {
		ChatID int64  `json:"chat_id"`
		Text   string `json:"text"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegramService("testtoken")
	tg.baseURL = srv.URL

	require.NoError(t, tg.SendMessage(42, "hello"))
	assert.Equal(t, "/bottesttoken/sendMessage", gotPath)
	assert.Equal(t, int64(42), gotBody.ChatID)
	assert.Equal(t, "hello", gotBody.Text)
}

func TestSendMessageErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegramService("testtoken")
	tg.baseURL = srv.URL
	assert.Error(t, tg.SendMessage(42, "hello"))
}

func TestSendMessageDisabled(t *testing.T) {
	tg := NewTelegramService("")
	assert.False(t, tg.IsEnabled())
	assert.Error(t, tg.SendMessage(42, "hello"))
}

func TestGetUpdatesOffset(t *testing.T) {
	var gotOffset []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOffset = append(gotOffset, r.URL.Query().Get("offset"))
		w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"chat":{"id":42},"text":"/start"}}]}`))
	}))
	defer srv.Close()

	tg := NewTelegramService("testtoken")
	tg.baseURL = srv.URL

	updates, err := tg.GetUpdates(0, 30)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, int64(7), updates[0].UpdateID)
	assert.Equal(t, int64(42), updates[0].Message.Chat.ID)

	_, err = tg.GetUpdates(8, 30)
	require.NoError(t, err)

	// offset omitted on first poll, acknowledged afterwards
	assert.Equal(t, []string{"", "8"}, gotOffset)
}

func TestRegistrarSavesChatID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/bottesttoken/getUpdates":
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":1,"message":{"chat":{"id":99},"text":"hi"}},
				{"update_id":2,"message":{"chat":{"id":99},"text":" /START "}}
			]}`))
		default:
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	tg := NewTelegramService("testtoken")
	tg.baseURL = srv.URL
	chats := NewChatFile(filepath.Join(t.TempDir(), "chat_id.json"))

	reg := NewRegistrar(tg, chats)
	require.NoError(t, reg.Poll())

	id, ok := chats.Load()
	require.True(t, ok)
	assert.Equal(t, int64(99), id)
	assert.Equal(t, int64(2), reg.lastUpdateID)
}

func TestChatFileMissing(t *testing.T) {
	chats := NewChatFile(filepath.Join(t.TempDir(), "chat_id.json"))
	_, ok := chats.Load()
	assert.False(t, ok)
}
