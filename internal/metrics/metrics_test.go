package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWriteTextfile(t *testing.T) {
	Register()
	Register()

	RankingsTotal.WithLabelValues("ranked").Inc()

	if got := testutil.ToFloat64(RankingsTotal.WithLabelValues("ranked")); got < 1 {
		t.Fatalf("expected counter to be incremented, got %v", got)
	}

	path := filepath.Join(t.TempDir(), "careermatch.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `careermatch_rankings_total{outcome="ranked"}`) {
		t.Fatalf("expected rankings metric in textfile, got:\n%s", data)
	}
}
