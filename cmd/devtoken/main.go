// Command devtoken mints an access token for an existing user after checking
// the user's password. Local use only.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gugatkesheladze/youtube-monitor/internal/application/directory"
	"github.com/gugatkesheladze/youtube-monitor/internal/config"
	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
	"github.com/gugatkesheladze/youtube-monitor/internal/infrastructure/db/postgres"
	"github.com/gugatkesheladze/youtube-monitor/internal/infrastructure/security"
	"github.com/gugatkesheladze/youtube-monitor/internal/logger"
)

type credentialVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) (domain.Identity, error)
}

type tokenSigner interface {
	SignAccessToken(username string, ttl time.Duration) (string, error)
}

// env is what run needs from the outside world; main builds it from config.
type env struct {
	verifier credentialVerifier
	signer   tokenSigner
}

func run(ctx context.Context, args []string, e env, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("devtoken", flag.ContinueOnError)
	fs.SetOutput(stderr)
	username := fs.String("username", "", "username to mint a token for")
	password := fs.String("password", "", "password of that user")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *username == "" || *password == "" {
		fmt.Fprintln(stderr, "-username and -password are required")
		return 2
	}

	id, err := e.verifier.VerifyCredentials(ctx, *username, *password)
	if err != nil {
		fmt.Fprintf(stderr, "credentials rejected: %v\n", err)
		return 1
	}

	token, err := e.signer.SignAccessToken(id.Username, *ttl)
	if err != nil {
		fmt.Fprintf(stderr, "sign token: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, token)
	return 0
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("load config")
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		logger.Logger.Fatal().Str("driver", cfg.StoreDriver).Msg("devtoken needs the postgres store")
	}

	db, err := config.NewDB(cfg.DBAddr, cfg.DBDebug)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("connect db")
	}

	svc := directory.NewService(postgres.NewUserRepo(db), security.NewBcryptHasher(cfg.BcryptCost), directory.Config{})
	code := run(context.Background(), os.Args[1:], env{
		verifier: svc,
		signer:   security.NewJWT(cfg.JWTSecret, cfg.JWTIssuer),
	}, os.Stdout, os.Stderr)

	_ = db.Close()
	os.Exit(code)
}
