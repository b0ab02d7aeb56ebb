package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

func outcome(failure bool) Outcome {
	if failure {
		return Error
	}
	return Success
}

var defaultHistogramBucketsSeconds = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

// Collectors are created eagerly so recording works before Init; they
// are only exported once registered.
var (
	once          sync.Once
	metricsRouter *chi.Mux

	ethClientLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eth_client_latency_seconds",
			Help:    "Histogram of eth client durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	// add a counter for the number of errors from the fail to push message into queue
	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	jobDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Histogram of distributor job durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"job", "status"},
	)

	fetchRetryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stake_change_fetch_retry_count",
			Help: "Number of retried stake change page fetches per market",
		},
		[]string{"market"},
	)

	stakeChangesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stake_changes_replayed_count",
			Help: "Number of stake change records replayed per market",
		},
		[]string{"market"},
	)

	periodGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "period_amounts",
			Help: "Pool and distributed amount of the last computed period",
		},
		[]string{"kind"},
	)

	ledgerOperationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_count",
			Help: "Number of ledger operations split by operation and status",
		},
		[]string{"operation", "status"},
	)

	headHeightGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "head_height",
			Help: "Last head height retrieved per market",
		},
		[]string{"market"},
	)
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

func registerMetrics() {
	prometheus.MustRegister(
		ethClientLatency,
		dbLatency,
		queueSendErrorCounter,
		jobDurationHistogram,
		fetchRetryCounter,
		stakeChangesCounter,
		periodGauge,
		ledgerOperationsCounter,
		headHeightGauge,
	)
}

func RecordEthClientLatency(d time.Duration, method string, failure bool) {
	ethClientLatency.WithLabelValues(method, outcome(failure).String()).Observe(d.Seconds())
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	dbLatency.WithLabelValues(method, outcome(failure).String()).Observe(d.Seconds())
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}

func IncFetchRetries(market string) {
	fetchRetryCounter.WithLabelValues(market).Inc()
}

func AddStakeChanges(market string, n int) {
	stakeChangesCounter.WithLabelValues(market).Add(float64(n))
}

// RecordPeriodAmounts exports amounts as floats, precision loss on very
// large values is acceptable for dashboards.
func RecordPeriodAmounts(period uint64, pool, distributed float64) {
	periodGauge.WithLabelValues("period").Set(float64(period))
	periodGauge.WithLabelValues("pool").Set(pool)
	periodGauge.WithLabelValues("distributed").Set(distributed)
}

func RecordLedgerOperation(operation string, failure bool) {
	ledgerOperationsCounter.WithLabelValues(operation, outcome(failure).String()).Inc()
}

func RecordHeadHeight(market string, height uint64) {
	headHeightGauge.WithLabelValues(market).Set(float64(height))
}
