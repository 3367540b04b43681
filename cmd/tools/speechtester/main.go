package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/metamorphosis-agency/site/backend/internal/config"
	"github.com/metamorphosis-agency/site/backend/internal/model/agency"
	speechmodel "github.com/metamorphosis-agency/site/backend/internal/model/speech"
	"github.com/metamorphosis-agency/site/backend/internal/service/ai"
	"github.com/metamorphosis-agency/site/backend/internal/service/speech"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env loaded, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	audioPath := flag.String("audio", "", "audio file to transcribe")
	format := flag.String("format", "", "audio format (defaults to the file extension)")
	language := flag.String("lang", "", "language code, defaults to SPEECH_ASR_LANGUAGE")
	session := flag.String("session", "", "session id, generated when empty")
	send := flag.Bool("send", false, "forward the transcript to the chat backend")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")

	flag.Parse()

	if *audioPath == "" {
		flag.Usage()
		log.Fatal("an audio file is required: -audio=path/to/clip.wav")
	}

	recognizer := speech.Detect(&speechmodel.Config{
		AppID:          cfg.Speech.AppID,
		AccessToken:    cfg.Speech.AccessToken,
		APIKey:         cfg.Speech.APIKey,
		BaseURL:        cfg.Speech.BaseURL,
		ConcurrentMode: cfg.Speech.ConcurrentMode,
		Model:          cfg.Speech.ASRModel,
		Language:       cfg.Speech.ASRLanguage,
		Timeout:        cfg.Speech.Timeout,
	})
	if !recognizer.Supported() {
		log.Fatal("speech recognition is not configured: set SPEECH_APP_ID and SPEECH_ACCESS_TOKEN")
	}

	sessionID := *session
	if sessionID == "" {
		sessionID = fmt.Sprintf("manual-%d", time.Now().UnixNano())
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	text := runASR(ctx, recognizer, cfg, sessionID, *audioPath, *format, *language)
	if *send && text != "" {
		runChat(ctx, cfg, text)
	}
}

func runASR(ctx context.Context, recognizer speech.Recognizer, cfg *config.Config, sessionID, audioPath, format, language string) string {
	file, err := os.Open(audioPath)
	if err != nil {
		log.Fatalf("failed to open audio file: %v", err)
	}
	defer file.Close()

	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(audioPath)), ".")
		if format == "" {
			format = "wav"
		}
	}

	if language == "" {
		language = cfg.Speech.ASRLanguage
	}

	log.Printf("starting ASR: session=%s format=%s language=%s", sessionID, format, language)

	resp, err := recognizer.Recognize(ctx, &speechmodel.Utterance{
		SessionID: sessionID,
		Audio:     file,
		Format:    format,
		Language:  language,
	})
	if err != nil {
		log.Fatalf("ASR failed: %v", err)
	}

	log.Printf("ASR succeeded: text=%q duration=%dms", resp.Text, resp.Duration)
	return resp.Text
}

func runChat(ctx context.Context, cfg *config.Config, text string) {
	client, err := ai.NewFromConfig(ctx, cfg, agency.Seed(), nil)
	if err != nil {
		log.Printf("[WARN] chat backend unavailable: %v", err)
	}

	log.Printf("sending transcript to %s", client.Backend())
	log.Printf("reply: %s", client.SendMessage(ctx, text, nil))
}
