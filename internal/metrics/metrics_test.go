// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/posts/list", "200"))

	RecordAPIRequest("GET", "/posts/list", "200", 15*time.Millisecond)
	RecordAPIRequest("GET", "/posts/list", "200", 25*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/posts/list", "200"))
	if after-before != 2 {
		t.Errorf("api_requests_total delta = %v, want 2", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests) - before; got != 2 {
		t.Errorf("active delta = %v, want 2", got)
	}
	TrackActiveRequest(false)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}

func TestRecordExternalCall(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
		wantErrs  float64
	}{
		{"success", "PutItem", nil, 0},
		{"failure", "Scan", errors.New("throttled"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(ExternalCallErrors.WithLabelValues("dynamodb", tt.operation))
			RecordExternalCall("dynamodb", tt.operation, time.Millisecond, tt.err)
			after := testutil.ToFloat64(ExternalCallErrors.WithLabelValues("dynamodb", tt.operation))
			if after-before != tt.wantErrs {
				t.Errorf("errors delta = %v, want %v", after-before, tt.wantErrs)
			}
		})
	}
}

func TestObserveExternalCall(t *testing.T) {
	before := testutil.ToFloat64(ExternalCallErrors.WithLabelValues("s3", "DeleteObject"))
	done := ObserveExternalCall("s3", "DeleteObject")
	done(errors.New("access denied"))
	if got := testutil.ToFloat64(ExternalCallErrors.WithLabelValues("s3", "DeleteObject")) - before; got != 1 {
		t.Errorf("errors delta = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(ExternalCallDuration); n == 0 {
		t.Error("no duration series collected")
	}
}

func TestRecordBackplane(t *testing.T) {
	okBefore := testutil.ToFloat64(BackplaneMessages.WithLabelValues("publish", "success"))
	failBefore := testutil.ToFloat64(BackplaneMessages.WithLabelValues("publish", "failure"))

	RecordBackplane("publish", nil)
	RecordBackplane("publish", errors.New("nats: no responders"))

	if got := testutil.ToFloat64(BackplaneMessages.WithLabelValues("publish", "success")) - okBefore; got != 1 {
		t.Errorf("success delta = %v", got)
	}
	if got := testutil.ToFloat64(BackplaneMessages.WithLabelValues("publish", "failure")) - failBefore; got != 1 {
		t.Errorf("failure delta = %v", got)
	}
}

func TestConcurrentMetricRecording(t *testing.T) {
	before := testutil.ToFloat64(DualWriteFailures)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			DualWriteFailures.Inc()
			RecordAPIRequest("POST", "/posts/add", "302", time.Millisecond)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(DualWriteFailures) - before; got != 20 {
		t.Errorf("dual write failures delta = %v, want 20", got)
	}
}
