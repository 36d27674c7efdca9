package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Check probes one dependency. A nil return means the dependency can serve.
type Check func(ctx context.Context) error

type Probe struct {
	Name  string
	Check Check
}

type Result struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Error   string        `json:"error,omitempty"`
	Took    time.Duration `json:"took_ns"`
}

// ProbeRunner runs every registered probe with a per-probe timeout and
// reports readiness as the conjunction of the results.
type ProbeRunner struct {
	timeout time.Duration
	probes  []Probe
}

func NewProbeRunner(timeout time.Duration, probes ...Probe) *ProbeRunner {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ProbeRunner{timeout: timeout, probes: probes}
}

func (p *ProbeRunner) Ready(ctx context.Context) (bool, []Result) {
	ready := true
	results := make([]Result, 0, len(p.probes))
	for _, probe := range p.probes {
		probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
		start := time.Now()
		err := probe.Check(probeCtx)
		cancel()

		r := Result{Name: probe.Name, Healthy: err == nil, Took: time.Since(start)}
		if err != nil {
			r.Error = err.Error()
			ready = false
		}
		results = append(results, r)
	}
	return ready, results
}

// DatabaseProbe pings the underlying sql.DB behind the gorm handle.
func DatabaseProbe(db *gorm.DB) Probe {
	return Probe{Name: "database", Check: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}
}

// RedisProbe pings redis. Only registered when redis is configured.
func RedisProbe(client redis.UniversalClient) Probe {
	return Probe{Name: "redis", Check: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}
