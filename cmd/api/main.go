package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/metamorphosis-agency/site/backend/internal/config"
	"github.com/metamorphosis-agency/site/backend/internal/handler"
	"github.com/metamorphosis-agency/site/backend/internal/metrics"
	"github.com/metamorphosis-agency/site/backend/internal/middleware"
	"github.com/metamorphosis-agency/site/backend/internal/model/agency"
	speechModel "github.com/metamorphosis-agency/site/backend/internal/model/speech"
	"github.com/metamorphosis-agency/site/backend/internal/service/ai"
	"github.com/metamorphosis-agency/site/backend/internal/service/chat"
	"github.com/metamorphosis-agency/site/backend/internal/service/contact"
	"github.com/metamorphosis-agency/site/backend/internal/service/speech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	profile := agency.Seed()
	if cfg.Profile.Path != "" {
		profile, err = agency.LoadFile(cfg.Profile.Path)
		if err != nil {
			log.Fatalf("failed to load agency profile: %v", err)
		}
		log.Printf("agency profile loaded from %s", cfg.Profile.Path)
	}
	profiles := agency.NewMemoryStore(profile)

	var chatService *chat.Service
	m := metrics.New(func() int {
		if chatService == nil {
			return 0
		}
		return chatService.Count()
	})

	aiClient, err := ai.NewFromConfig(ctx, cfg, profile, m.ObserveReply)
	if err != nil {
		log.Printf("warning: chat backend %q unavailable: %v", cfg.Chat.Provider, err)
		log.Println("continuing with fallback replies only")
	} else {
		log.Printf("chat backend %s initialized", aiClient.Backend())
	}

	recognizer := speech.Detect(&speechModel.Config{
		AppID:          cfg.Speech.AppID,
		AccessToken:    cfg.Speech.AccessToken,
		APIKey:         cfg.Speech.APIKey,
		BaseURL:        cfg.Speech.BaseURL,
		ConcurrentMode: cfg.Speech.ConcurrentMode,
		Model:          cfg.Speech.ASRModel,
		Language:       cfg.Speech.ASRLanguage,
		Timeout:        cfg.Speech.Timeout,
	})
	if recognizer.Supported() {
		log.Println("speech recognition enabled")
	} else {
		log.Println("speech credentials not configured, dictation disabled")
	}

	relay := contact.NewRelay(cfg.Contact.Endpoint, cfg.Contact.Timeout)
	contactService := contact.NewService(relay, cfg.Contact.SuccessDuration, nil, m.ObserveSubmission, func(id string) bool {
		return chatService != nil && chatService.Exists(id)
	})

	chatService = chat.NewService(aiClient,
		chat.WithGreeting(profile.Greeting),
		chat.WithRecognizer(recognizer),
		chat.WithDictationObserver(m.ObserveDictation),
		chat.WithEvictHook(contactService.Forget),
	)

	limiter := middleware.NewLimiterPool(cfg.Limits.RPS, cfg.Limits.Burst)
	go runJanitor(ctx, cfg.Chat, chatService, limiter)

	router := handler.NewRouter(handler.Deps{
		Profiles:      profiles,
		Chat:          chatService,
		Contact:       contactService,
		Recognizer:    recognizer,
		Metrics:       m,
		Limiter:       limiter,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Backend:       aiClient.Backend(),
	})

	startServer(ctx, cfg.Server, router)
}

// runJanitor evicts idle widget sessions and forgotten rate-limit buckets.
func runJanitor(ctx context.Context, chatCfg config.ChatConfig, chatService *chat.Service, limiter *middleware.LimiterPool) {
	ticker := time.NewTicker(chatCfg.EvictPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			chatService.EvictIdle(chatCfg.SessionTTL)
			limiter.Prune(chatCfg.SessionTTL)
		}
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Metamorphosis backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
