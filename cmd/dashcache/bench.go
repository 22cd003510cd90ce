package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/IvanBrykalov/dashcache/cache"
	pmet "github.com/IvanBrykalov/dashcache/metrics/prom"
)

// benchDomains spreads bench keys over domains of every volatility class.
var benchDomains = []string{"employees", "warnings", "teams", "categories", "roles", "sectors"}

func benchCmd() *cobra.Command {
	var (
		capacity int
		workers  int
		duration time.Duration
		readPct  int
		orgs     int
		keyspace int
		zipfS    float64
		zipfV    float64
		seed     int64
		preload  int
		clearPct float64

		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic read/write workload against the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyspace < 1 || orgs < 1 {
				return fmt.Errorf("keys and orgs must be positive")
			}
			if zipfS <= 1 || zipfV < 1 {
				return fmt.Errorf("zipf parameters need s > 1 and v >= 1")
			}
			if workers <= 0 {
				workers = 1
			}

			var metrics cache.Metrics
			if metricsAddr != "" {
				m := pmet.New(nil, "dashcache", "bench", nil)
				metrics = m
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				go func() {
					_ = http.ListenAndServe(metricsAddr, mux)
				}()
			}

			s := cache.New(cache.Options{Capacity: capacity, Metrics: metrics})
			defer func() { _ = s.Close() }()

			keyOf := func(n uint64) string {
				org := n % uint64(orgs)
				dom := benchDomains[n%uint64(len(benchDomains))]
				return "org:" + strconv.FormatUint(org, 10) + ":" + dom + ":" + strconv.FormatUint(n, 10)
			}

			// Preload half capacity to get a realistic hit-rate.
			pl := preload
			if pl == 0 {
				pl = capacity / 2
			}
			for i := 0; i < pl; i++ {
				s.Set(keyOf(uint64(i)), "v"+strconv.Itoa(i))
			}

			var reads, writes, hits, misses, clears, total uint64
			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()

			start := time.Now()
			var wg sync.WaitGroup
			wg.Add(workers)
			for w := 0; w < workers; w++ {
				go func(id int) {
					defer wg.Done()

					// rand.Rand is not goroutine-safe: one per worker.
					r := rand.New(rand.NewSource(seed + int64(id)*9973))
					zipf := rand.NewZipf(r, zipfS, zipfV, uint64(keyspace-1))

					for {
						select {
						case <-ctx.Done():
							return
						default:
						}

						atomic.AddUint64(&total, 1)
						switch p := r.Float64() * 100; {
						case p < clearPct:
							atomic.AddUint64(&clears, 1)
							s.ClearByPrefix("org:" + strconv.Itoa(r.Intn(orgs)) + ":")
						case p < float64(readPct):
							atomic.AddUint64(&reads, 1)
							if _, ok := s.Get(keyOf(zipf.Uint64())); ok {
								atomic.AddUint64(&hits, 1)
							} else {
								atomic.AddUint64(&misses, 1)
							}
						default:
							atomic.AddUint64(&writes, 1)
							s.Set(keyOf(zipf.Uint64()), "v"+strconv.Itoa(r.Int()))
						}
					}
				}(w)
			}
			wg.Wait()
			elapsed := time.Since(start)

			ops := atomic.LoadUint64(&total)
			readsN := atomic.LoadUint64(&reads)
			hitsN := atomic.LoadUint64(&hits)
			hitRate := 0.0
			if readsN > 0 {
				hitRate = float64(hitsN) / float64(readsN) * 100
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cap=%d workers=%d keys=%d orgs=%d dur=%v seed=%d\n",
				capacity, workers, keyspace, orgs, elapsed, seed)
			fmt.Fprintf(out, "ops=%d (%.0f ops/s)  reads=%d  writes=%d  clears=%d\n",
				ops, float64(ops)/elapsed.Seconds(), readsN, atomic.LoadUint64(&writes), atomic.LoadUint64(&clears))
			fmt.Fprintf(out, "hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, atomic.LoadUint64(&misses), hitRate)
			st := s.Stats()
			fmt.Fprintf(out, "Len()=%d evictions=%d expirations=%d\n", s.Len(), st.Evictions, st.Expirations)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&capacity, "cap", 100_000, "Store capacity (entries)")
	f.IntVar(&workers, "workers", 2*runtime.GOMAXPROCS(0), "Number of worker goroutines")
	f.DurationVar(&duration, "duration", 10*time.Second, "Benchmark duration")
	f.IntVar(&readPct, "reads", 80, "Read percentage [0..100]")
	f.IntVar(&orgs, "orgs", 16, "Number of organizations keys are spread over")
	f.IntVar(&keyspace, "keys", 1_000_000, "Keyspace size")
	f.Float64Var(&zipfS, "zipf-s", 1.1, "Zipf s > 1 (skew)")
	f.Float64Var(&zipfV, "zipf-v", 1.0, "Zipf v >= 1")
	f.Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed")
	f.IntVar(&preload, "preload", 0, "Preload entries (0 = cap/2)")
	f.Float64Var(&clearPct, "clear", 0.01, "Percentage of operations that clear one organization's scope")
	f.StringVar(&metricsAddr, "http", "", "Serve Prometheus metrics at addr (e.g. :8080); empty = disabled")
	return cmd
}
