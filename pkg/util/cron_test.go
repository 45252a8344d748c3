package util_test

import (
	"testing"
	"time"

	"github.com/fieldflow/fieldflow/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCronExpr(t *testing.T) {
	for _, expr := range []string{"0 * * * *", "*/15 * * * *", "30 8 * * 1-5"} {
		assert.NoError(t, util.ValidateCronExpr(expr), "expr %q", expr)
	}
	for _, expr := range []string{"", "not a cron", "61 * * * *", "* * * *"} {
		assert.Error(t, util.ValidateCronExpr(expr), "expr %q", expr)
	}
}

func TestNextCronTime(t *testing.T) {
	from := time.Date(2026, 3, 1, 10, 20, 0, 0, time.UTC)

	next, err := util.NextCronTime("0 * * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), next)

	_, err = util.NextCronTime("bogus", from)
	assert.Error(t, err)
}
