package whatsapp

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"WaGPT/entity"
	"WaGPT/internal/config"
	"WaGPT/internal/lib/sl"
)

var (
	// ErrAPI is returned for non-2xx responses of the Graph API.
	ErrAPI = errors.New("whatsapp api error")
	// ErrMediaTooLarge is returned for attachments above maxMediaSize.
	ErrMediaTooLarge = errors.New("media too large")
)

var maxMediaSize int64 = 64 << 20

// WhatsAppBot handles WhatsApp messaging via the Graph API
type WhatsAppBot struct {
	log           *slog.Logger
	baseURL       string
	accessToken   string
	verifyToken   string
	appSecret     string
	phoneNumberID string
	client        *http.Client
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type imageBody struct {
	Link string `json:"link"`
}

// sendMessageRequest represents the request body for sending a message
type sendMessageRequest struct {
	MessagingProduct string     `json:"messaging_product"`
	RecipientType    string     `json:"recipient_type"`
	To               string     `json:"to"`
	Type             string     `json:"type"`
	Text             *textBody  `json:"text,omitempty"`
	Image            *imageBody `json:"image,omitempty"`
}

type mediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// NewWhatsAppBot creates a new WhatsApp bot instance
func NewWhatsAppBot(conf *config.Config, log *slog.Logger) *WhatsAppBot {
	return &WhatsAppBot{
		log:           log.With(sl.Module("whatsappbot")),
		baseURL:       strings.TrimRight(conf.WhatsApp.BaseURL, "/"),
		accessToken:   conf.WhatsApp.ApiToken,
		verifyToken:   conf.WhatsApp.VerifyToken,
		appSecret:     conf.WhatsApp.AppSecret,
		phoneNumberID: conf.WhatsApp.BusinessNumber,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

// VerifyChallenge accepts the subscription handshake only for the configured token
// and a non-empty challenge.
func (b *WhatsAppBot) VerifyChallenge(mode, token, challenge string) bool {
	ok := mode == "subscribe" && b.verifyToken != "" && token == b.verifyToken && challenge != ""
	if !ok {
		b.log.Info("webhook verification failed",
			slog.String("mode", mode),
			slog.Bool("token_match", token == b.verifyToken),
		)
	}
	return ok
}

// VerifySignature verifies the X-Hub-Signature-256 header against the raw body
func (b *WhatsAppBot) VerifySignature(body []byte, signature string) bool {
	if b.appSecret == "" || len(body) == 0 {
		return false
	}

	algorithm, expectedSig, found := strings.Cut(signature, "=")
	if !found || algorithm != "sha256" || expectedSig == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(b.appSecret))
	mac.Write(body)
	actualSig := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expectedSig), []byte(actualSig))
}

// SendText sends a plain text message to the recipient
func (b *WhatsAppBot) SendText(ctx context.Context, recipientPhone, text string) error {
	return b.send(ctx, sendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               recipientPhone,
		Type:             "text",
		Text:             &textBody{Body: text},
	})
}

// SendImage sends an image by public link
func (b *WhatsAppBot) SendImage(ctx context.Context, recipientPhone, link string) error {
	return b.send(ctx, sendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               recipientPhone,
		Type:             "image",
		Image:            &imageBody{Link: link},
	})
}

func (b *WhatsAppBot) send(ctx context.Context, reqBody sendMessageRequest) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", b.baseURL, b.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b.log.Debug("message sent",
		slog.String("recipient_phone", reqBody.To),
		slog.String("type", reqBody.Type),
	)
	return nil
}

// DownloadMedia resolves a media id to its download URL and fetches the bytes.
func (b *WhatsAppBot) DownloadMedia(ctx context.Context, mediaID string) (entity.Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", b.baseURL, mediaID), nil)
	if err != nil {
		return entity.Media{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.do(req)
	if err != nil {
		return entity.Media{}, err
	}
	var info mediaInfo
	err = json.NewDecoder(resp.Body).Decode(&info)
	resp.Body.Close()
	if err != nil {
		return entity.Media{}, fmt.Errorf("failed to decode media info: %w", err)
	}
	if info.URL == "" {
		return entity.Media{}, fmt.Errorf("%w: media %s has no url", ErrAPI, mediaID)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return entity.Media{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err = b.do(req)
	if err != nil {
		return entity.Media{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaSize+1))
	if err != nil {
		return entity.Media{}, fmt.Errorf("failed to read media: %w", err)
	}
	if int64(len(data)) > maxMediaSize {
		return entity.Media{}, fmt.Errorf("%w: media %s exceeds %d bytes", ErrMediaTooLarge, mediaID, maxMediaSize)
	}

	mimeType := info.MimeType
	if mimeType == "" {
		mimeType = resp.Header.Get("Content-Type")
	}
	return entity.Media{Data: data, MimeType: mimeType}, nil
}

// do adds auth and turns non-2xx responses into ErrAPI. The caller closes the body on success.
func (b *WhatsAppBot) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+b.accessToken)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w (status %d): %s", ErrAPI, resp.StatusCode, string(body))
	}
	return resp, nil
}
