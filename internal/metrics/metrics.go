// Package metrics объявляет prometheus-метрики сервиса управления доступом.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DecisionsTotal считает решения по заявкам с разбивкой по исходу.
var DecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "feature_access_decisions_total",
		Help: "Number of feature request decisions by outcome.",
	},
	[]string{"outcome"},
)

// ResolutionsTotal считает вычисления эффективной роли с разбивкой по результату.
var ResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "feature_access_role_resolutions_total",
		Help: "Number of effective role resolutions by resolved role.",
	},
	[]string{"role"},
)
