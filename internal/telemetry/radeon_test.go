//go:build linux

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRadeonTopLine(t *testing.T) {
	line := "1715302360.857296: bus 06, gpu 5.00%, ee 0.00%, vgt 0.83%, ta 5.00%, sx 5.00%, sh 0.00%, spi 5.00%, sc 5.00%, pa 0.83%, db 5.00%, cb 5.00%, vram 19.57% 400.73mb, gtt 2.08% 42.61mb, mclk inf% 0.355ghz, sclk 38.53% 0.328ghz"
	pct, err := parseRadeonTopLine(line)
	require.NoError(t, err)
	require.Equal(t, 5, pct)
}

func TestParseRadeonTopLineMissingGPU(t *testing.T) {
	_, err := parseRadeonTopLine("1715302360.857296: bus 06, ee 0.00%")
	require.Error(t, err)
}

func TestParseRadeonTopLineRoundsAndClamps(t *testing.T) {
	pct, err := parseRadeonTopLine("0: bus 00, gpu 99.6%")
	require.NoError(t, err)
	require.Equal(t, 100, pct)
}
