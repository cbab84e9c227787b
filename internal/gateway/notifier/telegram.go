package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cryptocj520/mading2/internal/pkg/text"
)

// Telegram 单条消息上限为 4096 字符，留些余量
const maxMessageLen = 3500

// Telegram 简单文本推送：周期启动、止盈触发、清仓残留等关键事件走这里。
type Telegram struct {
	botToken string
	chatID   string
	client   *http.Client
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SendText 发送一条 Markdown 文本；失败返回 error，由调用方决定是否只记日志。
func (t *Telegram) SendText(msg string) error {
	if t == nil || t.botToken == "" || t.chatID == "" {
		return nil
	}
	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text.Truncate(msg, maxMessageLen),
		"parse_mode": "Markdown",
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	resp, err := t.client.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram 返回 %s", resp.Status)
	}
	return nil
}
