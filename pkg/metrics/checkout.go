package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics tracks placed orders and checkouts rejected for stock.
type CheckoutMetrics struct {
	orders     prometheus.Counter
	items      prometheus.Counter
	stockFails prometheus.Counter
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	m := &CheckoutMetrics{
		orders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vapevault_orders_placed_total",
			Help: "Orders created by checkout.",
		}),
		items: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vapevault_order_items_total",
			Help: "Order lines created by checkout.",
		}),
		stockFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vapevault_checkout_insufficient_stock_total",
			Help: "Checkouts rolled back because a product ran out of stock.",
		}),
	}
	reg.MustRegister(m.orders, m.items, m.stockFails)
	return m
}

func (m *CheckoutMetrics) OrderPlaced(lines int) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.Inc()
	m.items.Add(float64(lines))
}

func (m *CheckoutMetrics) InsufficientStock() {
	if m == nil || m.stockFails == nil {
		return
	}
	m.stockFails.Inc()
}
