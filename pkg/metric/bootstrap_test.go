package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func TestBootstrap_EmptyInputReturnsZeroInterval(t *testing.T) {
	interval := Bootstrap(nil, mean, 100, 0.95)
	assert.Equal(t, BootstrapInterval{}, interval)
}

func TestBootstrap_ConstantSampleCollapsesInterval(t *testing.T) {
	values := []float64{5, 5, 5, 5, 5}
	interval := Bootstrap(values, mean, 200, 0.95)
	assert.InDelta(t, 5.0, interval.Mean, 1e-9)
	assert.InDelta(t, 5.0, interval.Lower, 1e-9)
	assert.InDelta(t, 5.0, interval.Upper, 1e-9)
	assert.Equal(t, 0.0, interval.StdDev)
}

func TestBootstrap_WiderConfidenceWidensInterval(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	narrow := Bootstrap(values, mean, 500, 0.80)
	wide := Bootstrap(values, mean, 500, 0.99)
	assert.LessOrEqual(t, narrow.Upper-narrow.Lower, wide.Upper-wide.Lower+1e-6)
}
