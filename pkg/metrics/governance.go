// Copyright 2025 Tenantry Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// AdmissionAllowedTotal counts requests admitted by the rate limiter
	AdmissionAllowedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tenantry",
		Subsystem: "admission",
		Name:      "allowed_total",
		Help:      "Total number of requests admitted within the rate window",
	}, []string{"org_id"})

	// AdmissionDeniedTotal counts requests rejected with 429
	AdmissionDeniedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tenantry",
		Subsystem: "admission",
		Name:      "denied_total",
		Help:      "Total number of requests rejected by the rate limiter",
	}, []string{"org_id"})

	// UsageEventsTotal counts usage events appended to the meter
	UsageEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tenantry",
		Subsystem: "usage",
		Name:      "events_total",
		Help:      "Total number of usage events recorded",
	}, []string{"metric_type"})
)

// RegisterGovernanceCollectors registers the governance counters on the server registry
func RegisterGovernanceCollectors(s *Server) error {
	for _, c := range []prometheus.Collector{
		AdmissionAllowedTotal,
		AdmissionDeniedTotal,
		UsageEventsTotal,
	} {
		if err := s.RegisterCollector(c); err != nil {
			return err
		}
	}
	return nil
}
