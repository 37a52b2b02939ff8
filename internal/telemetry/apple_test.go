//go:build darwin

package telemetry

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// plistDoc renders a minimal synthetic powermetrics plist document
// with numIdleRatioLines repeated <key>idle_ratio</key> entries, only
// the first of which should be honored.
func plistDoc(idleRatio float64, numIdleRatioLines int) string {
	var b strings.Builder
	b.WriteString("<plist>\n")
	b.WriteString("<key>elapsed_ns</key>\n")
	b.WriteString("<integer>1000000000</integer>\n")
	b.WriteString("<key>gpu</key>\n")
	b.WriteString("<dict>\n")
	for i := 0; i < numIdleRatioLines; i++ {
		b.WriteString("<key>idle_ratio</key>\n")
		if i == 0 {
			b.WriteString("<real>" + strconv.FormatFloat(idleRatio, 'f', -1, 64) + "</real>\n")
		} else {
			b.WriteString("<real>" + strconv.FormatFloat(idleRatio+0.5, 'f', -1, 64) + "</real>\n")
		}
	}
	b.WriteString("</dict>\n")
	b.WriteString("</plist>\n")
	return b.String()
}

func TestFramePlistDocumentsUsesFirstIdleRatioOnly(t *testing.T) {
	stream := "\x00" + plistDoc(0.8, 3) + plistDoc(0.5, 1)
	ch := framePlistDocuments(strings.NewReader(stream))

	var windows []struct {
		gpu int
	}
	for w := range ch {
		windows = append(windows, struct{ gpu int }{gpu: w.Utilization.Gpu})
	}

	require.Len(t, windows, 2)
	require.Equal(t, 20, windows[0].gpu) // (1 - 0.8) * 100
	require.Equal(t, 50, windows[1].gpu) // (1 - 0.5) * 100
}
