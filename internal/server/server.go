package server

import (
	"context"
	"errors"
	"net/http"

	"grocerystore/internal/middleware"
	"grocerystore/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Options struct {
	Addr         string
	RateLimitRPS float64
	Logger       *zap.Logger
}

type Server struct {
	e    *echo.Echo
	addr string
	lg   *zap.Logger
}

// New は共通ミドルウェアを付けたechoを作り、ルートを登録する
func New(opts Options, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(opts.Logger))
	if opts.RateLimitRPS > 0 {
		e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(opts.RateLimitRPS))))
	}
	//webhookの署名付きbodyも含めて上限
	e.Use(echomw.BodyLimit("1M"))

	RegisterRoutes(e, h)

	return &Server{e: e, addr: opts.Addr, lg: opts.Logger}
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler { return s.e }

// Start はShutdownされるまでブロックする
func (s *Server) Start() error {
	s.lg.Info("http server listening", zap.String("addr", s.addr))
	if err := s.e.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
