package benchmarks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/mcp-runtime-go/pkg/client"
	"github.com/ajitpratap0/mcp-runtime-go/pkg/protocol"
)

func benchClient(b *testing.B) *client.Client {
	b.Helper()
	srv := newEchoServer(b)
	c, err := PipeDialer(srv, client.Config{Timeout: 10 * time.Second})(context.Background(), 0)
	require.NoError(b, err)
	b.Cleanup(func() { _ = c.Disconnect() })
	return c
}

func BenchmarkCallTool(b *testing.B) {
	c := benchClient(b)
	ctx := context.Background()
	args := map[string]string{"message": "hello"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.CallTool(ctx, "echo", args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCallToolParallel(b *testing.B) {
	c := benchClient(b)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		args := map[string]string{"message": "hello"}
		for pb.Next() {
			if _, err := c.CallTool(ctx, "echo", args); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func BenchmarkReadResource(b *testing.B) {
	c := benchClient(b)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.ReadResource(ctx, "mem://data"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseRequest(b *testing.B) {
	data := []byte(`{"jsonrpc":"2.0","id":42,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hello"}}}`)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := protocol.Parse(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarshalResponse(b *testing.B) {
	resp, err := protocol.NewResponse(protocol.NewIntID(42), map[string]string{"message": "hello"})
	require.NoError(b, err)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := protocol.Marshal(resp); err != nil {
			b.Fatal(err)
		}
	}
}
