// Package benchmarks measures round-trip latency and throughput of the runtime
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/mcp-runtime-go/pkg/client"
	mcperrors "github.com/ajitpratap0/mcp-runtime-go/pkg/errors"
	"github.com/ajitpratap0/mcp-runtime-go/pkg/protocol"
	"github.com/ajitpratap0/mcp-runtime-go/pkg/server"
	"github.com/ajitpratap0/mcp-runtime-go/pkg/transport"
)

// Operation names used in results
const (
	OpCallTool     = "tools/call"
	OpReadResource = "resources/read"
	OpListTools    = "tools/list"
)

// LoadTestConfig configures a load test
type LoadTestConfig struct {
	// Clients is the number of concurrent clients
	Clients int
	// RequestsPerClient is the number of requests each client sends
	RequestsPerClient int
	// Dial connects and initializes one client
	Dial func(ctx context.Context, id int) (*client.Client, error)

	// Mix weights the operations; the zero value sends only tools/call
	Mix OperationMix
	// Tool must echo its arguments. Results are checked against what was sent.
	Tool string
	// Resource is read by resources/read operations
	Resource string
}

// OperationMix defines the relative weight of each operation
type OperationMix struct {
	CallTool     float64
	ReadResource float64
	ListTools    float64
}

// LoadTestResult contains the results of a load test
type LoadTestResult struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	// Mismatched counts echo results that did not carry the arguments of their own request
	Mismatched    int64
	TotalDuration time.Duration

	MinLatency time.Duration
	AvgLatency time.Duration
	P50Latency time.Duration
	P99Latency time.Duration
	MaxLatency time.Duration

	RequestsPerSecond float64
	ErrorCounts       map[string]int64
	Operations        map[string]int64
}

// LoadTester drives concurrent clients against a server
type LoadTester struct {
	config LoadTestConfig

	total      atomic.Int64
	successful atomic.Int64
	failed     atomic.Int64
	mismatched atomic.Int64

	mu         sync.Mutex
	latencies  []time.Duration
	errors     map[string]int64
	operations map[string]int64
}

// NewLoadTester creates a load tester
func NewLoadTester(config LoadTestConfig) *LoadTester {
	if config.Mix == (OperationMix{}) {
		config.Mix = OperationMix{CallTool: 1}
	}
	if config.Tool == "" {
		config.Tool = "echo"
	}
	return &LoadTester{
		config:     config,
		errors:     make(map[string]int64),
		operations: make(map[string]int64),
	}
}

// Run connects every client, sends all requests and returns the results. Connection failures
// abort the run; request failures are counted.
func (lt *LoadTester) Run(ctx context.Context) (*LoadTestResult, error) {
	if lt.config.Clients <= 0 || lt.config.Dial == nil {
		return nil, mcperrors.InvalidConfiguration("load test", "clients and dial are required")
	}

	clients := make([]*client.Client, lt.config.Clients)
	defer func() {
		for _, c := range clients {
			if c != nil {
				_ = c.Disconnect()
			}
		}
	}()
	for i := range clients {
		c, err := lt.config.Dial(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("client %d: %w", i, err)
		}
		clients[i] = c
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range clients {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(i), uint64(start.UnixNano())))
			for n := 0; n < lt.config.RequestsPerClient; n++ {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				lt.execute(gctx, c, lt.pick(rng), fmt.Sprintf("%d-%d", i, n))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lt.results(time.Since(start)), nil
}

// PipeDialer returns a Dial function that attaches each client to srv over an in-memory pipe
// and completes the handshake
func PipeDialer(srv *server.Server, config client.Config) func(context.Context, int) (*client.Client, error) {
	return func(ctx context.Context, id int) (*client.Client, error) {
		serverSide, clientSide := transport.NewPipe()
		if _, err := srv.Attach(serverSide); err != nil {
			return nil, err
		}
		cfg := config
		cfg.Name = fmt.Sprintf("load-%d", id)
		c := client.New(clientSide, cfg)
		if err := c.Connect(ctx, ""); err != nil {
			return nil, err
		}
		if _, err := c.Initialize(ctx); err != nil {
			_ = c.Disconnect()
			return nil, err
		}
		return c, nil
	}
}

func (lt *LoadTester) pick(rng *rand.Rand) string {
	m := lt.config.Mix
	r := rng.Float64() * (m.CallTool + m.ReadResource + m.ListTools)
	switch {
	case r < m.CallTool:
		return OpCallTool
	case r < m.CallTool+m.ReadResource:
		return OpReadResource
	default:
		return OpListTools
	}
}

func (lt *LoadTester) execute(ctx context.Context, c *client.Client, op, tag string) {
	start := time.Now()
	var err error
	mismatch := false

	switch op {
	case OpCallTool:
		var raw json.RawMessage
		raw, err = c.CallTool(ctx, lt.config.Tool, map[string]string{"tag": tag})
		if err == nil {
			var echoed map[string]string
			if json.Unmarshal(raw, &echoed) != nil || echoed["tag"] != tag {
				mismatch = true
			}
		}
	case OpReadResource:
		_, err = c.ReadResource(ctx, lt.config.Resource)
	default:
		_, err = c.ListTools(ctx, &protocol.PaginationParams{Limit: 10})
	}

	lt.record(op, time.Since(start), err, mismatch)
}

func (lt *LoadTester) record(op string, latency time.Duration, err error, mismatch bool) {
	lt.total.Add(1)
	if mismatch {
		lt.mismatched.Add(1)
	}

	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.operations[op]++
	if err != nil {
		lt.failed.Add(1)
		key := "unknown"
		if mcpErr, ok := mcperrors.AsMCPError(err); ok {
			key = mcperrors.GetErrorCodeName(mcpErr.Code())
		}
		lt.errors[key]++
		return
	}
	lt.successful.Add(1)
	lt.latencies = append(lt.latencies, latency)
}

func (lt *LoadTester) results(elapsed time.Duration) *LoadTestResult {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	result := &LoadTestResult{
		TotalRequests:      lt.total.Load(),
		SuccessfulRequests: lt.successful.Load(),
		FailedRequests:     lt.failed.Load(),
		Mismatched:         lt.mismatched.Load(),
		TotalDuration:      elapsed,
		ErrorCounts:        make(map[string]int64, len(lt.errors)),
		Operations:         make(map[string]int64, len(lt.operations)),
	}
	if elapsed > 0 {
		result.RequestsPerSecond = float64(result.TotalRequests) / elapsed.Seconds()
	}
	for k, v := range lt.errors {
		result.ErrorCounts[k] = v
	}
	for k, v := range lt.operations {
		result.Operations[k] = v
	}

	if len(lt.latencies) > 0 {
		sorted := slices.Clone(lt.latencies)
		slices.Sort(sorted)
		var sum time.Duration
		for _, d := range sorted {
			sum += d
		}
		result.MinLatency = sorted[0]
		result.MaxLatency = sorted[len(sorted)-1]
		result.AvgLatency = sum / time.Duration(len(sorted))
		result.P50Latency = percentile(sorted, 50)
		result.P99Latency = percentile(sorted, 99)
	}
	return result
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	index := int(math.Ceil(float64(len(sorted))*p/100.0)) - 1
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

// Print writes the results in a readable format
func (r *LoadTestResult) Print(w io.Writer) {
	fmt.Fprintf(w, "requests: %d ok, %d failed, %d mismatched in %s (%.0f req/s)\n",
		r.SuccessfulRequests, r.FailedRequests, r.Mismatched, r.TotalDuration.Round(time.Millisecond), r.RequestsPerSecond)
	fmt.Fprintf(w, "latency: min %s avg %s p50 %s p99 %s max %s\n",
		r.MinLatency, r.AvgLatency, r.P50Latency, r.P99Latency, r.MaxLatency)
	for op, n := range r.Operations {
		fmt.Fprintf(w, "  %s: %d\n", op, n)
	}
	for code, n := range r.ErrorCounts {
		fmt.Fprintf(w, "  error %s: %d\n", code, n)
	}
}
