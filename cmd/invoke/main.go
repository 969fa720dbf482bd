// Command invoke serves one invocation event read from stdin and writes the
// result JSON to stdout.
//
//	echo '{"httpMethod":"GET","pathParams":{"qrCodeId":"QR7K2M9XQA"}}' | invoke
//
// Configuration failures are reported as a result with status 500, so the
// caller always receives the same result shape.
package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/qrtag-backend/internal/config"
	"github.com/tbourn/qrtag-backend/internal/function"
	httpapi "github.com/tbourn/qrtag-backend/internal/http"
	"github.com/tbourn/qrtag-backend/internal/repo"
	"github.com/tbourn/qrtag-backend/internal/sysutil"
)

const invokeTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()
	// stdout carries only the result.
	gin.DefaultWriter = os.Stderr

	res := run(context.Background(), os.Stdin)
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(res); err != nil {
		log.Error().Err(err).Msg("write result")
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader) function.Result {
	ev, err := function.Decode(in)
	if err != nil {
		return function.ErrorResult(err)
	}
	// Preflights are answered without configuration or a store.
	if ev.IsPreflight() {
		return function.PreflightResult()
	}

	cfg, err := config.Load()
	if err != nil {
		sysutil.InitLogging(os.Stderr, "info", false, "qrtag-invoke")
		log.Error().Err(err).Msg("invalid configuration")
		return function.ErrorResult(err)
	}
	sysutil.InitLogging(os.Stderr, cfg.LogLevel, cfg.LogPretty, "qrtag-invoke")

	db, err := repo.Open(cfg.DB.URL, repo.Options{MaxOpenConns: 1})
	if err != nil {
		log.Error().Err(err).Msg("store unavailable")
		return function.ErrorResult(err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if cfg.DB.AutoMigrate {
		if err := repo.AutoMigrate(db); err != nil {
			return function.ErrorResult(err)
		}
	}

	ctx, cancel := context.WithTimeout(log.Logger.WithContext(ctx), invokeTimeout)
	defer cancel()

	h := function.New(httpapi.NewEngine(db, cfg), cfg.APIBasePath)
	res, err := h.Invoke(ctx, ev)
	if err != nil {
		return function.ErrorResult(err)
	}
	return res
}
