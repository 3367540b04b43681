package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	speechmodel "github.com/metamorphosis-agency/site/backend/internal/model/speech"
)

const (
	defaultASREndpoint = "wss://openspeech.bytedance.com/api/v3/sauc/bigmodel_nostream"

	// 16kHz, 16bit, mono: 6400 bytes is 200ms of audio.
	audioChunkSize     = 6400
	audioChunkInterval = 200 * time.Millisecond

	asrSuccessCode = 20000000
)

// VolcengineRecognizer speaks the bigmodel streaming ASR websocket protocol.
type VolcengineRecognizer struct {
	config        *speechmodel.Config
	dialer        *websocket.Dialer
	chunkInterval time.Duration
}

type asrUtterance struct {
	Text      string `json:"text"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
	Definite  bool   `json:"definite"`
}

type asrServerMessage struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Result   struct {
		Text       string         `json:"text"`
		Utterances []asrUtterance `json:"utterances,omitempty"`
	} `json:"result,omitempty"`
	AudioInfo struct {
		Duration int64 `json:"duration"`
	} `json:"audio_info,omitempty"`
}

// asrSessionRequest is the JSON body of the full client request.
type asrSessionRequest struct {
	User struct {
		UID string `json:"uid,omitempty"`
	} `json:"user,omitempty"`
	Audio struct {
		Language string `json:"language,omitempty"`
		Format   string `json:"format"`
		Codec    string `json:"codec,omitempty"`
		Rate     int    `json:"rate,omitempty"`
		Bits     int    `json:"bits,omitempty"`
		Channel  int    `json:"channel,omitempty"`
	} `json:"audio"`
	Request struct {
		ModelName      string `json:"model_name"`
		EnableITN      bool   `json:"enable_itn,omitempty"`
		EnablePunc     bool   `json:"enable_punc,omitempty"`
		ShowUtterances bool   `json:"show_utterances,omitempty"`
		ResultType     string `json:"result_type,omitempty"`
		EndWindowSize  int    `json:"end_window_size,omitempty"`
	} `json:"request"`
}

// NewVolcengineRecognizer creates a recognizer bound to cfg.
func NewVolcengineRecognizer(cfg *speechmodel.Config) *VolcengineRecognizer {
	timeout := 30 * time.Second
	if cfg != nil && cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &VolcengineRecognizer{
		config:        cfg,
		dialer:        &websocket.Dialer{HandshakeTimeout: timeout},
		chunkInterval: audioChunkInterval,
	}
}

// Supported reports true: construction implies credentials were present.
func (c *VolcengineRecognizer) Supported() bool { return true }

// Recognize streams the utterance and waits for the final result.
func (c *VolcengineRecognizer) Recognize(ctx context.Context, u *speechmodel.Utterance) (*speechmodel.Transcript, error) {
	appID, token, err := resolveCredentials(c.config)
	if err != nil {
		return nil, err
	}

	audio, err := io.ReadAll(u.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio data to send")
	}

	header := http.Header{}
	header.Set("X-Api-App-Key", appID)
	header.Set("X-Api-Access-Key", token)
	resourceID := "volc.bigasr.sauc.duration"
	if c.config.ConcurrentMode {
		resourceID = "volc.bigasr.sauc.concurrent"
	}
	header.Set("X-Api-Resource-Id", resourceID)
	header.Set("X-Api-Connect-Id", u.SessionID)

	conn, resp, err := c.dialer.DialContext(ctx, c.endpoint(), header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ASR websocket: %w", err)
	}
	defer conn.Close()

	if logid := resp.Header.Get("X-Tt-Logid"); logid != "" {
		log.Printf("[speech] connected with logid=%s session=%s", logid, u.SessionID)
	}

	payload, err := sonic.Marshal(c.buildSessionRequest(u))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ASR request: %w", err)
	}
	compressed, err := CompressPayload(payload, GzipCompression)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, EncodeFrame(NewFullClientRequest(compressed, GzipCompression))); err != nil {
		return nil, fmt.Errorf("failed to send ASR request: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		transcript *speechmodel.Transcript
		err        error
	}
	recvCh := make(chan result, 1)
	go func() {
		t, err := c.receive(ctx, conn, u.SessionID)
		recvCh <- result{t, err}
	}()

	sendCh := make(chan error, 1)
	go func() {
		sendCh <- c.sendAudio(ctx, conn, audio)
	}()

	for {
		select {
		case err := <-sendCh:
			if err != nil {
				return nil, fmt.Errorf("failed to send audio data: %w", err)
			}
			sendCh = nil
		case res := <-recvCh:
			return res.transcript, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *VolcengineRecognizer) endpoint() string {
	if c.config != nil && strings.TrimSpace(c.config.BaseURL) != "" {
		return strings.TrimSpace(c.config.BaseURL)
	}
	return defaultASREndpoint
}

func (c *VolcengineRecognizer) buildSessionRequest(u *speechmodel.Utterance) *asrSessionRequest {
	req := &asrSessionRequest{}
	req.User.UID = u.SessionID

	req.Audio.Format = u.Format
	if req.Audio.Format == "" {
		req.Audio.Format = "wav"
	}
	req.Audio.Language = u.Language
	if req.Audio.Language == "" {
		req.Audio.Language = c.config.Language
	}
	if req.Audio.Language == "" {
		req.Audio.Language = speechmodel.DefaultLanguage
	}
	req.Audio.Codec = "raw"
	req.Audio.Rate = 16000
	req.Audio.Bits = 16
	req.Audio.Channel = 1

	req.Request.ModelName = "bigmodel"
	if c.config.Model != "" {
		req.Request.ModelName = c.config.Model
	}
	req.Request.EnableITN = true
	req.Request.EnablePunc = true
	req.Request.ShowUtterances = true
	// "full" returns the whole utterance each time; only the final packet is kept.
	req.Request.ResultType = "full"
	req.Request.EndWindowSize = 800
	return req
}

func (c *VolcengineRecognizer) sendAudio(ctx context.Context, conn *websocket.Conn, audio []byte) error {
	// Sequence 1 belongs to the full client request.
	sequence := int32(2)

	for i := 0; i < len(audio); i += audioChunkSize {
		end := min(i+audioChunkSize, len(audio))
		isLast := end >= len(audio)

		chunk, err := CompressPayload(audio[i:end], GzipCompression)
		if err != nil {
			return fmt.Errorf("failed to compress audio chunk: %w", err)
		}
		frame := NewAudioOnlyRequest(chunk, sequence, isLast, GzipCompression)
		if err := conn.WriteMessage(websocket.BinaryMessage, EncodeFrame(frame)); err != nil {
			return fmt.Errorf("failed to send audio chunk: %w", err)
		}
		sequence++

		if isLast {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.chunkInterval):
		}
	}
	return nil
}

func (c *VolcengineRecognizer) receive(ctx context.Context, conn *websocket.Conn, sessionID string) (*speechmodel.Transcript, error) {
	var (
		finalText string
		duration  int64
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read ASR response: %w", err)
		}

		frame, err := DecodeFrame(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode ASR frame: %w", err)
		}

		switch frame.Header.MessageType {
		case ErrorMessage:
			payload, err := DecompressPayload(frame.Payload, frame.Header.CompressionMethod)
			if err != nil {
				return nil, fmt.Errorf("ASR error frame decode failed: %w", err)
			}
			return nil, fmt.Errorf("ASR error %d: %s", frame.ErrorCode, string(payload))

		case FullServerResponse:
			payload, err := DecompressPayload(frame.Payload, frame.Header.CompressionMethod)
			if err != nil {
				return nil, fmt.Errorf("failed to decompress ASR payload: %w", err)
			}

			var msg asrServerMessage
			if err := sonic.Unmarshal(payload, &msg); err != nil {
				log.Printf("[speech] failed to unmarshal ASR response: %v", err)
				continue
			}
			if msg.Code != 0 && msg.Code != asrSuccessCode {
				return nil, fmt.Errorf("ASR API error %d: %s", msg.Code, msg.Message)
			}

			candidate := msg.Result.Text
			if candidate == "" {
				candidate = joinUtterances(msg.Result.Utterances)
			}
			if candidate != "" {
				finalText = candidate
			}
			if msg.AudioInfo.Duration > 0 {
				duration = msg.AudioInfo.Duration
			}

			if frame.IsLastPacket() || msg.Sequence < 0 {
				if finalText == "" {
					log.Printf("[speech] empty transcript for session=%s", sessionID)
				}
				return &speechmodel.Transcript{
					SessionID: sessionID,
					Text:      strings.TrimSpace(finalText),
					Duration:  duration,
					RequestID: sessionID,
					CreatedAt: time.Now().UTC(),
				}, nil
			}
		}
	}
}

func joinUtterances(utterances []asrUtterance) string {
	parts := make([]string, 0, len(utterances))
	for _, u := range utterances {
		if t := strings.TrimSpace(u.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

