package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shop_orders_placed_total",
		Help: "Number of orders successfully persisted.",
	})

	OrdersCanceled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shop_orders_canceled_total",
		Help: "Number of orders canceled by their orderer.",
	})

	PaymentCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_payment_callbacks_total",
		Help: "Payment gateway callbacks processed, by result.",
	}, []string{"result"})
)
