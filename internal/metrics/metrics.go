package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesDecoded counts camera frames that yielded a QR payload.
	FramesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventdesk_frames_decoded_total",
		Help: "Camera frames that yielded a QR payload.",
	})

	// DecodeErrors counts decoder failures other than "no code in frame".
	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventdesk_decode_errors_total",
		Help: "Decoder failures surfaced to the operator.",
	})

	// ScanToasts counts distinct scans after the debounce window.
	ScanToasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventdesk_scan_notifications_total",
		Help: "Distinct scans announced to the operator.",
	})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventdesk_verifications_total",
		Help: "Attendance verification results by kind.",
	}, []string{"result"})

	VerifyLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eventdesk_verify_seconds",
		Help:    "Round-trip time of attendance verification.",
		Buckets: prometheus.DefBuckets,
	})

	PaymentPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventdesk_payment_polls_total",
		Help: "Payment poll runs by terminal outcome.",
	}, []string{"outcome"})

	LoginRedirects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventdesk_login_redirects_total",
		Help: "Sessions ended by a backend auth failure.",
	})

	ListLoadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventdesk_list_load_failures_total",
		Help: "Candidate list loads that failed, by view.",
	}, []string{"view"})
)
