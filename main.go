package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"mizora-service/handlers"
	"mizora-service/internal/auth"
	"mizora-service/internal/cart"
	"mizora-service/internal/catalog"
	"mizora-service/internal/checkout"
	"mizora-service/internal/config"
	"mizora-service/internal/consul"
	"mizora-service/internal/email"
	"mizora-service/internal/orders"
	"mizora-service/internal/payment"
	"mizora-service/internal/pricing"
	"mizora-service/internal/reconcile"
	"mizora-service/internal/stores/kafka"
	"mizora-service/internal/stores/postgres"
	"mizora-service/internal/wishlist"
	"mizora-service/pkg/logkey"
)

func main() {
	cfg := config.Load()
	setupSlog(cfg.LogJSON)

	if err := startApp(cfg); err != nil {
		slog.Error("service stopped", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func setupSlog(asJSON bool) {
	opts := &slog.HandlerOptions{AddSource: true}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if asJSON {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

type stores struct {
	db       *sql.DB
	carts    cart.Store
	wishlist wishlist.Store
	orders   orders.Store
	sources  []catalog.ProductSource
}

// openStores uses Postgres when DATABASE_URL is set and memory otherwise.
// The seed catalog always answers after the database.
func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	seed := catalog.NewSeedSource()
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory stores")
		return &stores{
			carts:    cart.NewMemoryStore(),
			wishlist: wishlist.NewMemoryStore(),
			orders:   orders.NewMemoryStore(),
			sources:  []catalog.ProductSource{seed},
		}, nil
	}

	db, err := postgres.OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &stores{db: db}
	products, err := catalog.NewPostgresSource(db)
	if err != nil {
		return nil, err
	}
	s.sources = []catalog.ProductSource{products, seed}
	if s.carts, err = cart.NewPostgresStore(db); err != nil {
		return nil, err
	}
	if s.wishlist, err = wishlist.NewPostgresStore(db); err != nil {
		return nil, err
	}
	if s.orders, err = orders.NewPostgresStore(db); err != nil {
		return nil, err
	}
	return s, nil
}

// newProvider falls back to the stub provider outside release mode only.
func newProvider(cfg config.Config) (payment.Provider, error) {
	if cfg.StripeSecretKey != "" {
		return payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil), nil
	}
	if cfg.GinMode == gin.ReleaseMode {
		return nil, errors.New("STRIPE_SECRET_KEY is required in release mode")
	}
	slog.Warn("STRIPE_SECRET_KEY not set, using stub payment provider")
	return payment.NewStubProvider(cfg.BaseURL, cfg.StripeWebhookSecret), nil
}

func newMailer(cfg config.Config) email.Sender {
	if cfg.SMTPHost == "" {
		return email.LogSender{}
	}
	return email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.FromEmail,
	})
}

func startApp(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	keys, err := auth.NewKeys(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("initializing auth keys: %w", err)
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening stores: %w", err)
	}
	if st.db != nil {
		defer st.db.Close()
	}

	resolver := catalog.NewChainedResolver(st.sources...)
	cartConf, err := cart.NewConf(st.carts, resolver)
	if err != nil {
		return err
	}
	wishlistConf, err := wishlist.NewConf(st.wishlist, resolver)
	if err != nil {
		return err
	}
	orderConf, err := orders.NewConf(st.orders)
	if err != nil {
		return err
	}

	shipping := pricing.ShippingRule{FreeThreshold: cfg.FreeShippingThreshold, FlatFee: cfg.FlatShippingFee}
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	bridge := checkout.NewBridge(provider, st.orders, shipping, cfg.Currency, cfg.BaseURL)
	factory := orders.NewFactory(st.orders, &cartConf, shipping)
	checkoutSvc := checkout.NewService(factory, bridge, st.orders)

	events, err := kafka.NewConf(cfg.KafkaBrokers)
	if err != nil {
		return fmt.Errorf("initializing kafka: %w", err)
	}
	defer events.Close()
	if !events.Enabled() {
		slog.Warn("KAFKA_BROKERS not set, order events are dropped")
	}
	reconciler := reconcile.New(st.orders, &cartConf, provider, newMailer(cfg), events, cfg.ProviderTimeout)

	router := handlers.API("/api", keys, handlers.Deps{
		Catalog:    resolver,
		Cart:       cartConf,
		Wishlist:   wishlistConf,
		Orders:     orderConf,
		Checkout:   checkoutSvc,
		Reconciler: reconciler,
		Provider:   provider,
		Mode:       cfg.GinMode,
	})
	api := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcServer.RegisterService(&handlers.CartServiceDesc, handlers.NewCartItemServiceHandler(cartConf))
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listening for grpc on %s: %w", cfg.GRPCPort, err)
	}

	serverErrors := make(chan error, 2)
	go func() {
		slog.Info("http server started", slog.String("port", cfg.Port))
		if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		slog.Info("grpc server started", slog.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			serverErrors <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	if cfg.ConsulAddr != "" {
		client, id, err := consul.RegisterWithConsul(cfg.ConsulAddr, consul.Registration{
			Name: cfg.ServiceName, Host: cfg.ServiceHost, Port: cfg.Port,
		})
		if err != nil {
			slog.Error("consul registration failed", slog.String(logkey.ERROR, err.Error()))
		} else {
			defer func() {
				if err := consul.Deregister(client, id); err != nil {
					slog.Error("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
				}
			}()
		}
	}

	select {
	case err := <-serverErrors:
		grpcServer.Stop()
		_ = api.Close()
		return err
	case <-ctx.Done():
		slog.Info("shutdown started")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		_ = api.Close()
		return fmt.Errorf("could not stop server gracefully: %w", err)
	}
	grpcServer.GracefulStop()
	reconciler.Wait()
	slog.Info("shutdown complete")
	return nil
}
