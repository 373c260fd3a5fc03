// Package notify composes the run's notification document and delivers
// it to a Slack incoming webhook, or to a writer when no webhook is
// configured.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/ymgch/visasq-watch/internal/watch"
)

// Document is the webhook payload: Block Kit blocks plus a plain-text
// fallback for clients that cannot render blocks.
type Document struct {
	Blocks []Block `json:"blocks"`
	Text   string  `json:"text"`
}

// Block is one Block Kit element.
type Block struct {
	Type      string      `json:"type"`
	Text      *TextObject `json:"text,omitempty"`
	Accessory *Accessory  `json:"accessory,omitempty"`
}

// TextObject is a Block Kit text node.
type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Accessory is the open-item button attached to a match block.
type Accessory struct {
	Type string      `json:"type"`
	Text *TextObject `json:"text"`
	URL  string      `json:"url"`
}

// Compose builds the notification for a run. It is a pure function of
// its inputs, so the same matches and timestamp always produce the
// same document. Callers only invoke it with at least one match; the
// zero-match branch exists as a harmless placeholder document.
func Compose(matches []watch.Match, keywords []string, listingURL string, now time.Time) Document {
	header := fmt.Sprintf("VisasQ 公募ウォッチ（%s JST）", now.In(jst()).Format("2006-01-02 15:04"))

	blocks := []Block{
		{Type: "header", Text: &TextObject{Type: "plain_text", Text: header, Emoji: true}},
		{Type: "section", Text: &TextObject{
			Type: "mrkdwn",
			Text: fmt.Sprintf("*新着一致 %d件*｜対象URL: <%s|公募一覧（募集中のみ）>\nキーワード: `%s`",
				len(matches), listingURL, strings.Join(keywords, "`, `")),
		}},
	}

	if len(matches) == 0 {
		blocks = append(blocks, Block{Type: "section", Text: &TextObject{
			Type: "mrkdwn",
			Text: "本日は一致なしでした。",
		}})
		return Document{Blocks: blocks, Text: "VisasQ 公募ウォッチ: 一致なし"}
	}

	for i, m := range matches {
		blocks = append(blocks, matchBlock(m))
		if i != len(matches)-1 {
			blocks = append(blocks, Block{Type: "divider"})
		}
	}

	return Document{
		Blocks: blocks,
		Text:   fmt.Sprintf("VisasQ 公募ウォッチ: 新着一致 %d件", len(matches)),
	}
}

func matchBlock(m watch.Match) Block {
	title := strings.TrimSpace(m.Title)
	if title == "" {
		title = "Issue " + m.ID
	}

	body := fmt.Sprintf("*<%s|%s>*\n*作成日*: %s    *報酬*: %s    *締切*: %s\n*一致キーワード*: `%s`",
		m.URL, title,
		orDash(m.Created), orDash(m.Reward), orDash(m.Due),
		orDash(strings.Join(m.MatchedKeywords, ", ")))
	if len(m.Labels) > 0 {
		body += "\n*ラベル*: " + strings.Join(m.Labels, " / ")
	}

	return Block{
		Type: "section",
		Text: &TextObject{Type: "mrkdwn", Text: body},
		Accessory: &Accessory{
			Type: "button",
			Text: &TextObject{Type: "plain_text", Text: "案件を開く"},
			URL:  m.URL,
		},
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return strings.TrimSpace(s)
}

func jst() *time.Location {
	if loc, err := time.LoadLocation("Asia/Tokyo"); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*60*60)
}
