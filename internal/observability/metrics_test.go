package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/Timofey28/Lichess-Telegram-Bot/internal/activity"
)

func TestRecordDayRejectedLabelsKind(t *testing.T) {
	_, schemaErr := activity.NewValidator().Validate([]byte(`{"interval": {"start": 1}, "stream": {}}`))
	require.Error(t, schemaErr)
	_, invariantErr := activity.NewValidator().Validate([]byte(`{"interval": {"start": 1}, "puzzles": {"score": {"win": 1, "loss": 0, "draw": 2, "rp": {"before": 1, "after": 2}}}}`))
	require.Error(t, invariantErr)

	before := testutil.ToFloat64(daysRejectedCounter.WithLabelValues("test", "schema"))
	RecordDayRejected("test", schemaErr)
	RecordDayRejected("test", invariantErr)
	require.Equal(t, before+1, testutil.ToFloat64(daysRejectedCounter.WithLabelValues("test", "schema")))
	require.Equal(t, 1.0, testutil.ToFloat64(daysRejectedCounter.WithLabelValues("test", "invariant")))
}

func TestRecordSummaryBuilt(t *testing.T) {
	summary, err := activity.Aggregate([]activity.ActivityRecord{
		{Date: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	RecordSummaryBuilt("unit", summary)
	RecordDaysValidated("unit", 2)
	RecordDaysValidated("unit", 0)

	require.Equal(t, 1.0, testutil.ToFloat64(summariesBuiltCounter.WithLabelValues("unit")))
	require.Equal(t, 2.0, testutil.ToFloat64(daysValidatedCounter.WithLabelValues("unit")))
}
