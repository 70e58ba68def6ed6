package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRepositoryIncrements(t *testing.T) {
	before := testutil.ToFloat64(repositoryOps.WithLabelValues("create", ResultOK))
	ObserveRepository("create", ResultOK)
	assert.Equal(t, before+1, testutil.ToFloat64(repositoryOps.WithLabelValues("create", ResultOK)))
}

func TestObservePINIncrements(t *testing.T) {
	before := testutil.ToFloat64(pinAttempts.WithLabelValues(PINLocked))
	ObservePIN(PINLocked)
	ObservePIN(PINLocked)
	assert.Equal(t, before+2, testutil.ToFloat64(pinAttempts.WithLabelValues(PINLocked)))
}

func TestObserveJobRecordsSample(t *testing.T) {
	ObserveJob("refresh_fallback_cache", ResultOK, 0.2)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(jobRuns), 1)
}
