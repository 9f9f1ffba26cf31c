package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_commands_total",
		Help: "Commands issued by the consumer",
	}, []string{"command", "result"})
	TagCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_tag_completions_total",
		Help: "Tag operations resolved from engine callbacks",
	}, []string{"op", "status"})
	CallbacksDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_callbacks_discarded_total",
		Help: "Engine callbacks with no matching pending request",
	}, []string{"slot"})
	HandlesSuperseded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_handles_superseded_total",
		Help: "Pending handles rejected because a newer call replaced them",
	}, []string{"slot"})
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_events_published_total",
		Help: "Events posted to the delivery queue",
	}, []string{"kind"})
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_events_dropped_total",
		Help: "Events dropped before delivery",
	}, []string{"kind", "reason"})
	WizardResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_wizard_results_total",
		Help: "Permission wizard results delivered to a pending caller",
	}, []string{"granted"})
	RelayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_relay_errors_total",
		Help: "Errors sending delivered events to a sink",
	}, []string{"sink"})
)

func StartMetricsServer(port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	})
	return http.ListenAndServe(":"+port, mux)
}
