package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"grocerystore/internal/config"
	"grocerystore/internal/handler"
	"grocerystore/internal/infra/db"
	"grocerystore/internal/infra/lock"
	infraRepo "grocerystore/internal/infra/repository"
	"grocerystore/internal/notify"
	"grocerystore/internal/payment"
	"grocerystore/internal/server"
	"grocerystore/internal/usecase"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(".env", "../.env")
	if err != nil {
		//ロガー前なので標準エラーに出す
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	lg, err := newLogger(cfg)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProd() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gormDB) }()

	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	repos := txm.Repos()

	//チェックアウトのロック。REDIS_ADDRが無ければプロセス内
	var locker usecase.Locker
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		locker = lock.NewRedisLocker(rdb, lg.Named("lock"))
		lg.Info("checkout lock: redis", zap.String("addr", cfg.RedisAddr))
	} else {
		locker = lock.NewLocalLocker()
		lg.Info("checkout lock: in-process")
	}

	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:     cfg.Payment.StripeSecretKey,
		WebhookSecret: cfg.Payment.StripeWebhookSecret,
		SuccessURL:    cfg.Payment.SuccessURL,
		CancelURL:     cfg.Payment.CancelURL,
	})

	sender := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	dispatcher := notify.NewDispatcher(sender, lg.Named("notify"), cfg.Notify.Workers, cfg.Notify.QueueSize, cfg.Notify.SendTimeout)

	//Usecase生成
	coupons := usecase.NewCouponLedger()
	authUC := usecase.NewAuthUsecase(txm, repos.Users(), usecase.AuthConfig{JWTSecret: cfg.JWTSecret, TokenTTL: cfg.JWTTTL})
	productUC := usecase.NewProductUsecase(txm, repos)
	cartUC := usecase.NewCartUsecase(txm, repos)
	addressUC := usecase.NewAddressUsecase(repos.Addresses())
	orderUC := usecase.NewOrderUsecase(txm, repos, coupons, gateway, locker, dispatcher, lg.Named("checkout"), usecase.OrderUsecaseConfig{
		Currency:       cfg.Payment.Currency,
		LockTTL:        cfg.CheckoutLockTTL,
		GatewayTimeout: cfg.Payment.Timeout,
	})
	webhookUC := usecase.NewWebhookUsecase(txm, gateway, lg.Named("webhook"))
	walletUC := usecase.NewWalletUsecase(repos.Wallets())
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, repos.AuditLogs())
	couponUC := usecase.NewCouponUsecase(txm, repos)

	//Handler生成
	srv := server.New(server.Options{
		Addr:         cfg.Addr(),
		RateLimitRPS: cfg.RateLimitRPS,
		Logger:       lg.Named("http"),
	}, server.Handlers{
		JWTSecret:    cfg.JWTSecret,
		Users:        repos.Users(),
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Address:      handler.NewAddressHandler(addressUC),
		Order:        handler.NewOrderHandler(orderUC),
		Wallet:       handler.NewWalletHandler(walletUC),
		Webhook:      handler.NewWebhookHandler(webhookUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminCoupon:  handler.NewAdminCouponHandler(couponUC),
		AdminUser:    handler.NewAdminUserHandler(authUC),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
