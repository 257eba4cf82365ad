package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Journal metrics
	JournalsCreated  prometheus.Counter
	JournalsPosted   prometheus.Counter
	JournalsReversed prometheus.Counter
	JournalAmount    prometheus.Histogram

	// Document metrics
	DocumentsCreated *prometheus.CounterVec
	DocumentsOverdue prometheus.Counter
	DocumentTotals   *prometheus.HistogramVec

	// Payment metrics
	PaymentsCompleted prometheus.Counter
	PaymentsRefunded  prometheus.Counter
	PaymentAmount     prometheus.Histogram

	// Ledger metrics
	PeriodsClosed     prometheus.Counter
	ConsistencyChecks *prometheus.CounterVec

	// Outbox metrics
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Journal metrics
		JournalsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kasbook_journals_created_total",
			Help: "Total number of journal entries created",
		}),
		JournalsPosted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kasbook_journals_posted_total",
			Help: "Total number of journal entries posted",
		}),
		JournalsReversed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kasbook_journals_reversed_total",
			Help: "Total number of journal entries reversed",
		}),
		JournalAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kasbook_journal_amount",
			Help:    "Posted journal entry debit totals",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		// Document metrics
		DocumentsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kasbook_documents_created_total",
				Help: "Total number of documents created by kind",
			},
			[]string{"kind"},
		),
		DocumentsOverdue: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kasbook_documents_overdue_total",
			Help: "Total number of documents marked overdue",
		}),
		DocumentTotals: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kasbook_document_total_amount",
				Help:    "Document totals by kind",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"kind"},
		),

		// Payment metrics
		PaymentsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kasbook_payments_completed_total",
			Help: "Total number of payments completed",
		}),
		PaymentsRefunded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kasbook_payments_refunded_total",
			Help: "Total number of refunds issued",
		}),
		PaymentAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kasbook_payment_amount",
			Help:    "Completed payment amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		// Ledger metrics
		PeriodsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kasbook_periods_closed_total",
			Help: "Total number of accounting periods closed",
		}),
		ConsistencyChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kasbook_consistency_checks_total",
				Help: "Total ledger consistency checks by result",
			},
			[]string{"result"},
		),

		// Outbox metrics
		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kasbook_events_published_total",
			Help: "Total number of outbox events published",
		}),
		PublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kasbook_event_publish_errors_total",
			Help: "Total number of outbox publish failures",
		}),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kasbook_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kasbook_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "kasbook_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kasbook_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kasbook_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kasbook_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kasbook_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		// Audit metrics
		AuditLogsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kasbook_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
