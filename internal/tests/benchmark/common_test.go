package benchmark

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/foxhorn/foxyserver/internal/core/domain"
)

// SessionCounts defines the session counts for benchmarking.
var SessionCounts = []int{5000, 10000, 50000, 100000, 500000}

// SmallSessionCounts for quick benchmarks.
var SmallSessionCounts = []int{1000, 5000, 10000}

var benchSettings = domain.SessionSettings{
	Salt:     "bench-salt",
	DeviceID: "bench-device",
	Timeout:  time.Hour,
}

// benchCaller is a minimal request view for the session services.
type benchCaller struct {
	remote  string
	session *domain.Session
}

func (c *benchCaller) RemoteHost() string                       { return c.remote }
func (c *benchCaller) RequiredPermissions() []domain.Permission { return nil }
func (c *benchCaller) Session() *domain.Session                 { return c.session }

// createSession builds a session for user i on a distinct remote address.
func createSession(i int, start time.Time) *domain.Session {
	creds := &domain.Credentials{ID: int64(i + 1), LogonName: fmt.Sprintf("user-%d", i), Active: true}
	user := domain.NewUser(creds, []domain.Permission{domain.PermissionManageUser})
	remote := fmt.Sprintf("10.%d.%d.%d", (i>>16)&0xff, (i>>8)&0xff, i&0xff)
	return domain.NewSession(domain.NewAuthContext(user, start, remote, nil, benchSettings))
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithSessionCounts runs a benchmark function with various session counts.
func runWithSessionCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("sessions_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
