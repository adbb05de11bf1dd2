package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yourorg/listing-bridge/bitrix"
	httpapi "github.com/yourorg/listing-bridge/http"
	"github.com/yourorg/listing-bridge/internal/audit"
	"github.com/yourorg/listing-bridge/internal/env"
	"github.com/yourorg/listing-bridge/internal/events"
	"github.com/yourorg/listing-bridge/internal/media"
	"github.com/yourorg/listing-bridge/internal/redisx"
	"github.com/yourorg/listing-bridge/internal/store"
	"github.com/yourorg/listing-bridge/propertyfinder"
)

func main() {
	port := env.GetInt("PORT", 3000)
	bitrixBase := env.Must("BITRIX_BASE_URL")

	crm := bitrix.NewClient(bitrixBase)

	deps := httpapi.WebhookDeps{CRM: crm}
	var submissions httpapi.SubmissionsDeps

	// PropertyFinder submission is optional: without credentials the webhook
	// answers with the transformed record only.
	if apiKey := os.Getenv("PF_API_KEY"); apiKey != "" {
		pfBase := env.Get("PF_API_BASE", "https://atlas.propertyfinder.com/v1")
		apiSecret := env.Must("PF_API_SECRET")

		var tokens propertyfinder.TokenCache
		if addr := os.Getenv("REDIS_ADDR"); addr != "" {
			rc := redisx.New(addr, os.Getenv("REDIS_PASSWORD"), env.GetInt("REDIS_DB", 0))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := rc.Ping(ctx); err != nil {
				cancel()
				log.Fatalf("redis ping error: %v", err)
			}
			cancel()
			tokens = propertyfinder.NewRedisTokenCache(rc)
			log.Printf("[INFO] token cache: redis (%s)", addr)
		}
		deps.Listings = propertyfinder.NewClient(pfBase, apiKey, apiSecret, tokens)
	} else {
		log.Printf("[INFO] PF_API_KEY not set; running in transform-only mode")
	}

	recorder := &audit.Recorder{}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		st, err := store.Open(dsn)
		if err != nil {
			log.Fatalf("store open error: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := st.Ping(ctx); err != nil {
			cancel()
			log.Fatalf("postgres ping error: %v", err)
		}
		if err := st.Migrate(ctx); err != nil {
			cancel()
			log.Fatalf("postgres migrate error: %v", err)
		}
		cancel()
		recorder.Store = st
		submissions.Store = st
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := env.Get("KAFKA_TOPIC", "listing.submitted")
		recorder.Pub = events.NewKafkaPublisher(strings.Split(brokers, ","), topic)
		log.Printf("[INFO] publishing submissions to kafka topic %s", topic)
	} else {
		pub := events.NewInMemory(256)
		recorder.Pub = pub
		go (&events.Logger{Pub: pub}).Run(context.Background())
	}
	deps.Recorder = recorder

	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		mirror, err := media.New(
			endpoint,
			env.Must("MINIO_ACCESS_KEY"),
			env.Must("MINIO_SECRET_KEY"),
			env.Get("MINIO_USE_TLS", "false") == "true",
			env.Get("MINIO_BUCKET", "listing-media"),
			env.Must("MEDIA_PUBLIC_BASE"),
		)
		if err != nil {
			log.Fatalf("media mirror init error: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mirror.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatalf("media bucket error: %v", err)
		}
		cancel()
		deps.Mirror = mirror
		log.Printf("[INFO] media mirror enabled (%s)", endpoint)
	}

	router := BuildRouter(deps, submissions)

	log.Printf("listing-bridge listening on :%d", port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), router); err != nil {
		log.Fatal(err)
	}
}
