// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package metric

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DispatchMetric instruments the message dispatcher of an actor
type DispatchMetric struct {
	// Specifies the total number of messages whose handler completed
	processedCount metric.Int64Counter
	// Specifies the total number of messages stashed
	stashCount metric.Int64Counter
	// Specifies the total number of handler failures
	failureCount metric.Int64Counter
	// Specifies the total number of requests answered with a halt
	haltedCount metric.Int64Counter
	// Specifies the number of reentrant handlers currently suspended
	inFlight metric.Int64UpDownCounter
	// Specifies the handler latency in milliseconds
	handleDuration metric.Int64Histogram
}

// NewDispatchMetric creates an instance of DispatchMetric
func NewDispatchMetric(meter metric.Meter) (*DispatchMetric, error) {
	dispatchMetric := new(DispatchMetric)
	var err error
	if dispatchMetric.processedCount, err = meter.Int64Counter(
		"actor_processed_count",
		metric.WithDescription("Total number of messages processed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create processedCount instrument, %w", err)
	}

	if dispatchMetric.stashCount, err = meter.Int64Counter(
		"actor_stash_count",
		metric.WithDescription("Total number of messages stashed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create stashCount instrument, %w", err)
	}

	if dispatchMetric.failureCount, err = meter.Int64Counter(
		"actor_failure_count",
		metric.WithDescription("Total number of handler failures"),
	); err != nil {
		return nil, fmt.Errorf("failed to create failureCount instrument, %w", err)
	}

	if dispatchMetric.haltedCount, err = meter.Int64Counter(
		"actor_halted_request_count",
		metric.WithDescription("Total number of requests answered with a halt"),
	); err != nil {
		return nil, fmt.Errorf("failed to create haltedCount instrument, %w", err)
	}

	if dispatchMetric.inFlight, err = meter.Int64UpDownCounter(
		"actor_reentrant_in_flight",
		metric.WithDescription("Number of reentrant handlers in flight"),
	); err != nil {
		return nil, fmt.Errorf("failed to create inFlight instrument, %w", err)
	}

	if dispatchMetric.handleDuration, err = meter.Int64Histogram(
		"actor_handle_duration",
		metric.WithDescription("The latency of message handlers in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create handleDuration instrument, %w", err)
	}

	return dispatchMetric, nil
}

// Processed records a completed handler together with its latency
func (x *DispatchMetric) Processed(ctx context.Context, actor string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("actor", actor))
	x.processedCount.Add(ctx, 1, attrs)
	x.handleDuration.Record(ctx, elapsed.Milliseconds(), attrs)
}

// Stashed records a stashed message
func (x *DispatchMetric) Stashed(ctx context.Context, actor string) {
	x.stashCount.Add(ctx, 1, metric.WithAttributes(attribute.String("actor", actor)))
}

// Failed records a handler failure
func (x *DispatchMetric) Failed(ctx context.Context, actor string) {
	x.failureCount.Add(ctx, 1, metric.WithAttributes(attribute.String("actor", actor)))
}

// Halted records a request answered with a halt
func (x *DispatchMetric) Halted(ctx context.Context, actor string) {
	x.haltedCount.Add(ctx, 1, metric.WithAttributes(attribute.String("actor", actor)))
}

// Suspended adds delta to the in-flight reentrant handler gauge
func (x *DispatchMetric) Suspended(ctx context.Context, actor string, delta int64) {
	x.inFlight.Add(ctx, delta, metric.WithAttributes(attribute.String("actor", actor)))
}
