package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
	"github.com/vasiliy-maslov/shop-service/internal/config"
	"github.com/vasiliy-maslov/shop-service/internal/handler"
	"github.com/vasiliy-maslov/shop-service/internal/member"
	"github.com/vasiliy-maslov/shop-service/internal/order"
	"github.com/vasiliy-maslov/shop-service/internal/payment"
	"github.com/vasiliy-maslov/shop-service/internal/product"
	"github.com/vasiliy-maslov/shop-service/internal/stock"
)

// NewRouter wires repositories, services and handlers onto a chi mux.
func NewRouter(pool *pgxpool.Pool, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	ledger := stock.NewLedger(pool)

	memberSvc := member.NewService(member.NewRepository(pool))
	productSvc := product.NewService(product.NewRepository(pool))
	cartSvc := cart.NewService(cart.NewRepository(pool))

	paymentSvc := payment.NewService(newPaymentClient(cfg.Payment))

	orderRepo := order.NewRepository(pool, ledger)
	orderSvc := order.NewService(
		orderRepo,
		memberSvc,
		productSvc,
		cartSvc,
		paymentSvc,
		ledger,
		cfg.Payment.SuccessCallbackURL,
		cfg.Payment.FailureCallbackURL,
	)

	handler.NewOrderHandler(orderSvc).RegisterRoutes(r)
	handler.NewCartHandler(cartSvc).RegisterRoutes(r)
	handler.NewPaymentCallbackHandler(orderSvc).RegisterRoutes(r)

	return r
}

func newPaymentClient(cfg config.PaymentConfig) payment.Client {
	if cfg.Mode == "real" {
		return payment.NewHTTPClient(payment.HTTPClientConfig{
			InitiateURL:    cfg.InitiateURL,
			APIKey:         cfg.APIKey,
			APISecret:      cfg.APISecret,
			RequestTimeout: cfg.RequestTimeout,
		})
	}

	return payment.NewMockClient(cfg.RedirectBaseURL)
}
