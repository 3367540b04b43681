package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	speechmodel "github.com/metamorphosis-agency/site/backend/internal/model/speech"
)

// fakeASRServer accepts the session request and all audio frames, then
// answers with a single final response carrying text.
func fakeASRServer(t *testing.T, text string, failCode int) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-App-Key") != "app" {
			http.Error(w, "bad app key", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frame, err := DecodeFrame(bytes.NewReader(data))
			if err != nil {
				return
			}
			if frame.Header.MessageType == AudioOnlyRequest && frame.IsLastPacket() {
				break
			}
		}

		body := map[string]any{"code": asrSuccessCode, "result": map[string]any{"text": text}}
		if failCode != 0 {
			body = map[string]any{"code": failCode, "message": "quota exceeded"}
		}
		raw, _ := json.Marshal(body)
		payload, _ := CompressPayload(raw, GzipCompression)
		resp := &Frame{
			Header:   NewHeader(FullServerResponse, NegativeSequenceNumber, JSONSerialization, GzipCompression),
			Sequence: -3,
			Payload:  payload,
		}
		_ = conn.WriteMessage(websocket.BinaryMessage, EncodeFrame(resp))
	}))
}

func newTestRecognizer(url string) *VolcengineRecognizer {
	rec := NewVolcengineRecognizer(&speechmodel.Config{
		AppID:       "app",
		AccessToken: "token",
		BaseURL:     "ws" + strings.TrimPrefix(url, "http"),
	})
	rec.chunkInterval = time.Millisecond
	return rec
}

func TestRecognizeReturnsFinalTranscript(t *testing.T) {
	srv := fakeASRServer(t, " book a consultation ", 0)
	defer srv.Close()

	rec := newTestRecognizer(srv.URL)
	audio := bytes.Repeat([]byte{0x01}, audioChunkSize*2+10)

	got, err := rec.Recognize(context.Background(), &speechmodel.Utterance{
		SessionID: "s1",
		Audio:     bytes.NewReader(audio),
		Format:    "wav",
	})
	if err != nil {
		t.Fatalf("Recognize err: %v", err)
	}
	if got.Text != "book a consultation" {
		t.Fatalf("unexpected transcript %q", got.Text)
	}
	if got.SessionID != "s1" {
		t.Fatalf("unexpected session %q", got.SessionID)
	}
}

func TestRecognizeSurfacesAPIError(t *testing.T) {
	srv := fakeASRServer(t, "", 45000001)
	defer srv.Close()

	rec := newTestRecognizer(srv.URL)
	_, err := rec.Recognize(context.Background(), &speechmodel.Utterance{
		SessionID: "s1",
		Audio:     bytes.NewReader([]byte("pcm")),
	})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestRecognizeRejectsEmptyAudio(t *testing.T) {
	rec := newTestRecognizer("http://127.0.0.1:1")
	_, err := rec.Recognize(context.Background(), &speechmodel.Utterance{Audio: bytes.NewReader(nil)})
	if err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestDetectSelectsVariant(t *testing.T) {
	if Detect(nil).Supported() {
		t.Fatal("nil config must be unsupported")
	}
	if Detect(&speechmodel.Config{AppID: "app"}).Supported() {
		t.Fatal("missing token must be unsupported")
	}
	if !Detect(&speechmodel.Config{AppID: "app", APIKey: "legacy"}).Supported() {
		t.Fatal("legacy api key should enable recognition")
	}

	_, err := Unsupported{}.Recognize(context.Background(), nil)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestBuildSessionRequestDefaultsToEnglish(t *testing.T) {
	rec := NewVolcengineRecognizer(&speechmodel.Config{AppID: "app", AccessToken: "token"})
	req := rec.buildSessionRequest(&speechmodel.Utterance{SessionID: "s"})

	if req.Audio.Language != speechmodel.DefaultLanguage {
		t.Fatalf("expected %s, got %s", speechmodel.DefaultLanguage, req.Audio.Language)
	}
	if req.Audio.Format != "wav" {
		t.Fatalf("expected wav default, got %s", req.Audio.Format)
	}
	if req.Request.ResultType != "full" {
		t.Fatalf("expected full results, got %s", req.Request.ResultType)
	}
}
