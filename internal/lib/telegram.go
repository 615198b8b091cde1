package lib

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hihikaAAa/label-bot/internal/model"
	"github.com/hihikaAAa/label-bot/internal/notify"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
}

// Messenger delivers notifications through Telegram.
type Messenger struct {
	API API
}

func (m Messenger) Send(_ context.Context, chatID int64, text string, kb notify.Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(kb) > 0 {
		msg.ReplyMarkup = inline(kb)
	}
	_, err := m.API.Send(msg)
	return err
}

func (m Messenger) SendFile(_ context.Context, chatID int64, file model.Attachment, caption string) error {
	var c tgbotapi.Chattable
	if file.Kind == "photo" {
		p := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(file.ID))
		p.Caption = caption
		c = p
	} else {
		d := tgbotapi.NewDocument(chatID, tgbotapi.FileID(file.ID))
		d.Caption = caption
		c = d
	}
	_, err := m.API.Send(c)
	return err
}

func inline(kb notify.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			r = append(r, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Files downloads attachments from Telegram's file storage.
type Files struct {
	API    API
	Client *http.Client
}

func (f Files) Open(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	url, err := f.API.GetFileDirectURL(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("download: status %d", resp.StatusCode)
	}
	return resp.Body, path.Base(req.URL.Path), nil
}

// attachmentOf extracts the file a message carries, preferring documents.
func attachmentOf(m *tgbotapi.Message) *model.Attachment {
	switch {
	case m.Document != nil:
		return &model.Attachment{ID: m.Document.FileID, Name: m.Document.FileName, Kind: "document"}
	case len(m.Photo) > 0:
		p := m.Photo[len(m.Photo)-1]
		return &model.Attachment{ID: p.FileID, Kind: "photo"}
	}
	return nil
}
