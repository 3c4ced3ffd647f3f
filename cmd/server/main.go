// Command server runs the review-arcade session server: an actor engine
// hosting one Session Actor per live classroom session, fronted by a REST +
// WebSocket HTTP surface. Wiring follows lguibr-pongo/main.go's shape
// (build config, spawn the long-lived supervisor actor, build the HTTP
// server around it, listen, shut the engine down on exit) generalized from
// one RoomManagerActor to a Registry plus the store/auth collaborators
// review-arcade's domain needs.
package main

import (
	"context"
	"crypto/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/auth"
	"github.com/reviewarcade/arcade/internal/config"
	"github.com/reviewarcade/arcade/internal/httpapi"
	"github.com/reviewarcade/arcade/internal/logging"
	"github.com/reviewarcade/arcade/internal/registry"
	"github.com/reviewarcade/arcade/internal/store"
)

func main() {
	cfg := config.FromEnv()
	logging.Setup(cfg.LogFile, cfg.LogDebug)

	log.Info().Str("listen_addr", cfg.ListenAddr).Msg("starting review-arcade session server")

	engine := actor.NewEngine()

	registryPID := engine.Spawn(actor.NewProps(registry.NewProducer(engine, cfg.ReapGracePeriod)))
	if registryPID == nil {
		log.Fatal().Msg("failed to spawn session registry")
	}

	srv := httpapi.NewServer(engine, registryPID)
	srv.Heartbeat = httpapi.HeartbeatConfig{Interval: cfg.HeartbeatInterval, Timeout: cfg.HeartbeatTimeout}
	srv.OutboundQueueSize = cfg.OutboundQueueSize
	srv.AskTimeout = 3 * time.Second
	srv.AnswerTimeout = cfg.AnswerTimeout
	srv.MaxSessionsPerProc = cfg.MaxSessionsPerProc
	srv.NameSanitizer = auth.NewNameSanitizer()
	srv.TokenMinter = auth.NewPlayerTokenMinter(mustRandomKey(32))
	srv.TeacherVerifier = mustTeacherVerifier(cfg)

	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres question bank")
		}
		defer pool.Close()
		srv.BankLoader = store.NewQuestionBankStore(pool)
	} else {
		log.Warn().Msg("REVIEWARCADE_POSTGRES_DSN not set, question_source=bank will be unavailable")
	}

	if cfg.RedisURL != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		defer client.Close()
		archive := store.NewResultsArchive(client)
		srv.ResultsArchiver = archive
		srv.ResultsLoader = archive
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(),
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server stopped unexpectedly")
		}
	}()

	waitForShutdown(httpServer, engine)
}

// waitForShutdown blocks until SIGINT/SIGTERM, then drains the HTTP server
// and the actor engine in that order, the same ordering lguibr-pongo's
// main does on http.ListenAndServe's returned error (stop taking new
// connections first, then let in-flight actors wind down).
func waitForShutdown(httpServer *http.Server, engine *actor.Engine) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error shutting down http server")
	}

	engine.Shutdown(5 * time.Second)
	log.Info().Msg("shutdown complete")
}

// mustRandomKey generates the ephemeral HMAC key the player-token minter
// signs with. It only needs to be stable for this process's lifetime: a
// restart invalidates every outstanding player token, but so does losing
// the in-memory Session Actor that token was scoped to.
func mustRandomKey(n int) []byte {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal().Err(err).Msg("failed to generate player token key")
	}
	return buf
}

// mustTeacherVerifier builds the teacher bearer-token verifier from the
// configured PEM public key, spec §4.8's identity-provider-issued JWT.
func mustTeacherVerifier(cfg config.Config) *auth.TeacherVerifier {
	if cfg.JWTPublicKeyPEM == "" {
		log.Warn().Msg("REVIEWARCADE_JWT_PUBLIC_KEY not set, teacher auth will reject every request")
		return auth.NewTeacherVerifier(auth.StaticRSAKeySource{})
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.JWTPublicKeyPEM))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse REVIEWARCADE_JWT_PUBLIC_KEY")
	}
	return auth.NewTeacherVerifier(auth.StaticRSAKeySource{PublicKey: key})
}
