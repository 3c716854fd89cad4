package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the chat core metric instruments.
type AppMetrics struct {
	ChatMessagesTotal      metric.Int64Counter
	ChatStreamDuration     metric.Float64Histogram
	RateLimitedTotal       metric.Int64Counter
	PromptFilteredTotal    metric.Int64Counter
	ToolCallsTotal         metric.Int64Counter
	ToolDurationSeconds    metric.Float64Histogram
	PlacesAPIDuration      metric.Float64Histogram
	PlacesAPIErrorsTotal   metric.Int64Counter
	CacheLookupsTotal      metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Call it after the provider is installed, otherwise the no-op provider is used.
func InitAppMetrics() {
	once.Do(func() {
		appMetrics = New(otel.GetMeterProvider().Meter("TripPlannerChat"))
		log.Println("Application metrics instruments initialized.")
	})
}

// New creates the instruments on meter.
func New(meter metric.Meter) *AppMetrics {
	m := &AppMetrics{}

	m.ChatMessagesTotal = counter(meter, "chat_messages_total", "Chat turns by outcome", "{message}")
	m.ChatStreamDuration = histogram(meter, "chat_stream_duration_seconds", "Duration of chat streams in seconds")
	m.RateLimitedTotal = counter(meter, "chat_rate_limited_total", "Rejected chat turns by limit tier", "{request}")
	m.PromptFilteredTotal = counter(meter, "chat_prompt_filtered_total", "Messages rejected by the prompt filter", "{message}")
	m.ToolCallsTotal = counter(meter, "chat_tool_calls_total", "Tool invocations by tool and result", "{call}")
	m.ToolDurationSeconds = histogram(meter, "chat_tool_duration_seconds", "Duration of tool invocations in seconds")
	m.PlacesAPIDuration = histogram(meter, "places_api_duration_seconds", "Duration of places API calls in seconds")
	m.PlacesAPIErrorsTotal = counter(meter, "places_api_errors_total", "Failed places API calls", "{error}")
	m.CacheLookupsTotal = counter(meter, "cache_lookups_total", "Cache lookups by cache and result", "{lookup}")
	m.DbQueryDurationSeconds = histogram(meter, "db_query_duration_seconds", "Duration of database queries in seconds")
	m.DbQueryErrorsTotal = counter(meter, "db_query_errors_total", "Total number of database query errors", "{error}")
	return m
}

// Get returns the instruments, initializing them on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func counter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func histogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}
