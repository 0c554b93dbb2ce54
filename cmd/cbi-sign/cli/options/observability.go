// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package options

import (
	"github.com/GEBIT/cbi.maven.plugins/pkg/logging"
	"github.com/GEBIT/cbi.maven.plugins/pkg/metrics"
)

// Observability holds the logger and metrics of one CLI run. Tracing is
// configured globally in main.
type Observability struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// NewObservability returns an Observability with a logger built from root
// options and a fresh metrics registry.
func (o *RootOptions) NewObservability() (Observability, error) {
	logger, err := o.NewLogger()
	if err != nil {
		return Observability{}, err
	}
	return Observability{
		Logger:  logger,
		Metrics: metrics.New(),
	}, nil
}

// Flush writes metrics when a metrics file is configured and syncs
// buffered loggers.
func (o *RootOptions) Flush(obs Observability) error {
	if z, ok := obs.Logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
	if o.MetricsFile == "" {
		return nil
	}
	return obs.Metrics.WriteTextfile(o.MetricsFile)
}
