package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connected_sessions",
		Help: "Number of sessions currently registered in the directory",
	})

	RoomMembers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chat_room_members",
		Help: "Current member count per room",
	}, []string{"room"})

	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Inbound lines handled, by kind",
	}, []string{"kind"})

	DroppedLines = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_dropped_lines_total",
		Help: "Outbound lines dropped because a session queue was full",
	})

	EventProcessingDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_event_processing_seconds",
		Help:    "Time to process each directory event type",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(ConnectedSessions)
	prometheus.MustRegister(RoomMembers)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(DroppedLines)
	prometheus.MustRegister(EventProcessingDuration)
}
