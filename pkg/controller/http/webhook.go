package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/ghchangelog/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// maxPayloadSize bounds webhook bodies; GitHub caps deliveries at 25MB
const maxPayloadSize = 25 << 20

// WebhookHandler handles GitHub webhooks
type WebhookHandler struct {
	secret    string
	processor EventProcessor
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(secret string, processor EventProcessor) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		processor: processor,
	}
}

// WebhookResponse is the body of a successful webhook response. Status is
// "accepted" when a regeneration was scheduled and "ignored" otherwise.
type WebhookResponse struct {
	Status string `json:"status"`
}

// Handle processes webhook requests
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.From(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
	if err != nil {
		logger.Error("Failed to read request body", slog.Any("error", err))
		writeError(w, r, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if !h.verifySignature(body, r.Header.Get("X-Hub-Signature-256")) {
		logger.Warn("Invalid webhook signature")
		writeError(w, r, goerr.New("invalid signature"), http.StatusUnauthorized)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	deliveryID := r.Header.Get("X-GitHub-Delivery")

	payload, err := github.ParseWebHook(eventType, body)
	if err != nil {
		// Event types unknown to go-github are acknowledged and ignored
		if strings.Contains(err.Error(), "unknown X-Github-Event") {
			logger.Info("Ignoring unknown event type", slog.String("event_type", eventType))
			writeJSON(w, r, http.StatusOK, &WebhookResponse{Status: "ignored"})
			return
		}
		logger.Error("Failed to parse webhook payload", slog.Any("error", err))
		writeError(w, r, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
		return
	}

	accepted, err := h.processor.ProcessEvent(ctx, deliveryID, eventType, payload)
	if err != nil {
		logger.Error("Failed to process webhook event", slog.Any("error", err))
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrInvalidArgument) {
			status = http.StatusBadRequest
		}
		writeError(w, r, err, status)
		return
	}

	if !accepted {
		writeJSON(w, r, http.StatusOK, &WebhookResponse{Status: "ignored"})
		return
	}
	writeJSON(w, r, http.StatusAccepted, &WebhookResponse{Status: "accepted"})
}

// verifySignature checks the X-Hub-Signature-256 header against the payload
func (h *WebhookHandler) verifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}
