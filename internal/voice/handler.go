package voice

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rag-backend/internal/shared/server/respond"
	"rag-backend/internal/shared/telemetry"
	"rag-backend/internal/shared/util"
)

const maxAudioBytes = 10 << 20

// Handler exposes the voice bridge endpoints.
type Handler struct {
	Provider Provider
	Sessions SessionStore

	// Defaults applied when a request does not name its own.
	Language  string
	VoiceName string
}

// NewHandler constructs a Handler.
func NewHandler(provider Provider, sessions SessionStore, language, voiceName string) *Handler {
	return &Handler{Provider: provider, Sessions: sessions, Language: language, VoiceName: voiceName}
}

// RegisterRoutes attaches the voice routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/voice/transcriptions", h.transcribe)
	rg.POST("/voice/speech", h.synthesize)
}

type transcriptionResponse struct {
	Recognized bool   `json:"recognized"`
	Transcript string `json:"transcript,omitempty"`
	Duplicate  bool   `json:"duplicate,omitempty"`
}

func (h *Handler) transcribe(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAudioBytes)
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "audio payload too large or unreadable", nil)
		return
	}
	if len(raw) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "empty audio payload", nil)
		return
	}

	pcm, err := NormalizePCM(raw)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "audio must be a PCM WAV file: "+err.Error(), nil)
		return
	}

	// A client replaying its capture loop sends the same chunk repeatedly;
	// skip provider calls for chunks the session already sent.
	if sessionID := c.GetHeader("X-Session-Id"); sessionID != "" && h.Sessions != nil {
		seen, err := h.Sessions.Seen(c.Request.Context(), sessionID, util.Fingerprint(pcm))
		if err != nil {
			telemetry.Warn("voice.session.lookup_failed", map[string]any{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		} else if seen {
			respond.OK(c, transcriptionResponse{Recognized: false, Duplicate: true})
			return
		}
	}

	language := c.Query("language")
	if language == "" {
		language = h.Language
	}

	transcript, err := h.Provider.Transcribe(c.Request.Context(), pcm, language)
	if err != nil {
		// Recognition is best effort: a provider hiccup degrades to "nothing
		// heard" rather than failing the client's capture loop.
		telemetry.Warn("voice.transcribe.failed", map[string]any{
			"request_id": c.GetString("requestId"),
			"error":      err.Error(),
		})
		respond.OK(c, transcriptionResponse{Recognized: false})
		return
	}

	transcript = strings.TrimSpace(transcript)
	respond.OK(c, transcriptionResponse{
		Recognized: transcript != "",
		Transcript: transcript,
	})
}

type speechRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Voice    string `json:"voice"`
}

func (h *Handler) synthesize(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "text must not be empty", nil)
		return
	}

	language := req.Language
	if language == "" {
		language = h.Language
	}
	voiceName := req.Voice
	if voiceName == "" {
		voiceName = h.VoiceName
	}

	audio, err := h.Provider.Synthesize(c.Request.Context(), req.Text, language, voiceName)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "gateway_error", "speech synthesis failed", nil)
		return
	}

	c.Data(http.StatusOK, "audio/mpeg", audio)
}
