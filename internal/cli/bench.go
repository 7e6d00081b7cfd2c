package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var benchCmd = &cobra.Command{
	Use:   "bench URL",
	Short: "Send repeated GET requests and report latency percentiles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := requestOptionsFrom(cmd)
		if err != nil {
			return err
		}

		requests, _ := cmd.Flags().GetInt("requests")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		rps, _ := cmd.Flags().GetFloat64("rps")

		if requests < 1 || concurrency < 1 {
			return errors.New("requests and concurrency must be at least 1")
		}

		report, err := runBench(cmd.Context(), opts, args[0], requests, concurrency, rps)
		if err != nil {
			return err
		}

		printBenchReport(cmd, report)
		return nil
	},
}

func init() {
	benchCmd.Flags().IntP("requests", "n", 100, "total number of requests")
	benchCmd.Flags().IntP("concurrency", "c", 1, "number of concurrent workers")
	benchCmd.Flags().Float64("rps", 0, "target requests per second (0 for unlimited)")
}

type benchReport struct {
	URL      string
	Total    int
	Errors   int
	Elapsed  time.Duration
	Hist     *hdrhistogram.Histogram
	LastErr  error
	Statuses map[uint16]int
}

// runBench fans requests out over concurrency workers. Latencies are
// recorded in microseconds; the optional limiter paces all workers
// together.
func runBench(ctx context.Context, opts requestOptions, url string, requests, concurrency int, rps float64) (*benchReport, error) {
	c := opts.newClient()

	// 1 microsecond to 1 minute, 3 significant figures.
	report := &benchReport{
		URL:      url,
		Total:    requests,
		Hist:     hdrhistogram.New(1, time.Minute.Microseconds(), 3),
		Statuses: make(map[uint16]int),
	}

	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	jobs := make(chan struct{})

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	start := time.Now()

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for range jobs {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return
					}
				}

				res, err := c.Get(ctx, url)

				mu.Lock()
				switch {
				case err != nil:
					report.Errors++
					report.LastErr = err
				case res == nil:
					report.Errors++
					report.LastErr = errors.Errorf("invalid url: %s", url)
				default:
					report.Statuses[res.StatusCode]++
					// Out-of-range samples (over a minute) would error;
					// the recording drop is acceptable there.
					_ = report.Hist.RecordValue(res.Duration.Microseconds())
				}
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < requests; i++ {
		select {
		case jobs <- struct{}{}:
		case <-ctx.Done():
			i = requests
		}
	}
	close(jobs)
	wg.Wait()

	report.Elapsed = time.Since(start)

	if report.Errors == report.Total {
		return nil, errors.Wrap(report.LastErr, "all requests failed")
	}

	return report, nil
}

func printBenchReport(cmd *cobra.Command, r *benchReport) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s\n", r.URL)
	fmt.Fprintf(out, "  requests:   %d (%d failed)\n", r.Total, r.Errors)
	fmt.Fprintf(out, "  elapsed:    %s\n", r.Elapsed.Round(time.Millisecond))

	succeeded := r.Total - r.Errors
	if r.Elapsed > 0 {
		fmt.Fprintf(out, "  throughput: %.1f req/s\n", float64(succeeded)/r.Elapsed.Seconds())
	}

	for code, count := range r.Statuses {
		fmt.Fprintf(out, "  status %d: %d\n", code, count)
	}

	fmt.Fprintf(out, "  latency:    min %s  mean %s  max %s\n",
		time.Duration(r.Hist.Min())*time.Microsecond,
		time.Duration(int64(r.Hist.Mean()))*time.Microsecond,
		time.Duration(r.Hist.Max())*time.Microsecond)

	for _, q := range []float64{50, 90, 95, 99} {
		fmt.Fprintf(out, "  p%-2.0f:        %s\n",
			q, time.Duration(r.Hist.ValueAtQuantile(q))*time.Microsecond)
	}
}
