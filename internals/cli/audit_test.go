package cli_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taportal_backend/internals/cli"
	"taportal_backend/internals/testutil"
)

func TestRunAudit(t *testing.T) {
	db := testutil.NewDB(t)
	f := testutil.Advertised(t, db, testutil.Open(2), testutil.Closed)

	var buf bytes.Buffer
	ok, err := cli.RunAudit(context.Background(), db, "text", &buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, buf.String(), "all ledgers consistent")

	// drift a counter behind the service's back
	require.NoError(t, db.Exec("UPDATE module_recruitments SET module_recruitment_ug_applied = 5 WHERE module_recruitment_id = ?", f.ID).Error)

	buf.Reset()
	ok, err = cli.RunAudit(context.Background(), db, "json", &buf)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, buf.String(), `"field": "applied"`)
}
