package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"ticketwatch/internal/model"
)

const (
	DefaultAPIBase = "https://api.telegram.org"
	messageLimit   = 4096
)

var ErrSenderClosed = errors.New("telegram sender closed")

type message struct {
	text   string
	button *button
}

type button struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type Sender struct {
	token    string
	chat     string
	threadID *int
	calendar Calendar

	client       *resty.Client
	apiBase      string
	queue        chan message
	minInterval  time.Duration
	lastSentTime time.Time

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

type Option func(*Sender)

func WithAPIBase(base string) Option {
	return func(s *Sender) {
		s.apiBase = base
	}
}

func WithMinInterval(d time.Duration) Option {
	return func(s *Sender) {
		s.minInterval = d
	}
}

func WithCalendar(c Calendar) Option {
	return func(s *Sender) {
		s.calendar = c
	}
}

func NewSender(token, chat string, threadID *int, options ...Option) *Sender {
	s := &Sender{
		token:       token,
		chat:        chat,
		threadID:    threadID,
		calendar:    CalendarGregorian,
		client:      resty.New().SetTimeout(15 * time.Second),
		apiBase:     DefaultAPIBase,
		queue:       make(chan message, 100),
		minInterval: 1200 * time.Millisecond,
		done:        make(chan struct{}),
	}
	for _, option := range options {
		option(s)
	}

	go s.worker()
	return s
}

func (s *Sender) NotifyNewListing(ctx context.Context, listing model.Listing) error {
	text := formatListing(listing, s.calendar, time.Now())
	return s.enqueue(ctx, text, &button{Text: "Get tickets", URL: listing.Link})
}

func (s *Sender) NotifyQueueDetected(ctx context.Context, sourceURL string) error {
	text := formatQueueAlert(sourceURL, s.calendar, time.Now())
	return s.enqueue(ctx, text, &button{Text: "Open page", URL: sourceURL})
}

// Close stops accepting messages and waits for queued ones to be sent.
func (s *Sender) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sender) enqueue(ctx context.Context, text string, b *button) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSenderClosed
	}

	parts := splitMessage(text, messageLimit)
	for i, part := range parts {
		msg := message{text: part}
		if i == len(parts)-1 && b != nil && b.URL != "" {
			msg.button = b
		}
		select {
		case s.queue <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Sender) worker() {
	defer close(s.done)
	for msg := range s.queue {
		s.sendWithRateLimit(msg)
	}
}

func (s *Sender) sendWithRateLimit(msg message) {
	wait := time.Until(s.lastSentTime.Add(s.minInterval))
	if wait > 0 {
		time.Sleep(wait)
	}

	retryAfter, err := s.postMessage(msg)
	if err != nil {
		if retryAfter > 0 {
			log.Printf("Telegram rate limit hit. Retrying after %s", retryAfter)
			time.Sleep(retryAfter)
			if _, retryErr := s.postMessage(msg); retryErr != nil {
				log.Printf("Telegram retry failed: %v", retryErr)
				return
			}
			s.lastSentTime = time.Now()
			log.Printf("Telegram alert sent successfully (after retry)")
			return
		}

		log.Printf("Telegram send error: %v", err)
		return
	}

	s.lastSentTime = time.Now()
	log.Printf("Telegram alert sent successfully")
}

func (s *Sender) postMessage(msg message) (time.Duration, error) {
	payload := map[string]any{
		"chat_id":    s.chat,
		"text":       msg.text,
		"parse_mode": "HTML",
	}
	if s.threadID != nil {
		payload["message_thread_id"] = *s.threadID
	}
	if msg.button != nil {
		payload["reply_markup"] = map[string]any{
			"inline_keyboard": [][]button{{*msg.button}},
		}
	}

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token))
	if err != nil {
		return 0, err
	}

	var parsed telegramResponse
	_ = json.Unmarshal(resp.Body(), &parsed)

	if resp.StatusCode() == http.StatusTooManyRequests && parsed.Parameters.RetryAfter > 0 {
		return time.Duration(parsed.Parameters.RetryAfter) * time.Second, fmt.Errorf("rate limited")
	}

	if !resp.IsSuccess() {
		return 0, fmt.Errorf("telegram error: %d %s", resp.StatusCode(), parsed.Description)
	}

	return 0, nil
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}
