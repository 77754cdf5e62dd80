package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piscineiro/internal/models"
)

func TestMailQueue(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.MailTask{
		MailType:  "booking_confirmation",
		Recipient: "ana@example.com",
		Payload:   `{"appointment_id":"a1"}`,
		Status:    "pending",
	}
	require.NoError(t, db.CreateMailTask(ctx, task))
	assert.NotZero(t, task.ID)

	t.Run("PendingVisible", func(t *testing.T) {
		tasks, err := db.GetPendingMailTasks(ctx, 10)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "booking_confirmation", tasks[0].MailType)
	})

	t.Run("RetryIncrementsCount", func(t *testing.T) {
		next := time.Now().Add(time.Hour)
		require.NoError(t, db.UpdateMailTaskStatus(ctx, task.ID, "retry", "smtp timeout", &next))

		// Not due yet
		tasks, err := db.GetPendingMailTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("DueRetryVisible", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		require.NoError(t, db.UpdateMailTaskStatus(ctx, task.ID, "retry", "smtp timeout", &past))

		tasks, err := db.GetPendingMailTasks(ctx, 10)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, 2, tasks[0].RetryCount)
	})

	t.Run("CompletedHidden", func(t *testing.T) {
		require.NoError(t, db.UpdateMailTaskStatus(ctx, task.ID, "completed", "", nil))
		tasks, err := db.GetPendingMailTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("FailedListed", func(t *testing.T) {
		dead := &models.MailTask{MailType: "verify_email", Recipient: "x@example.com", Status: "pending"}
		require.NoError(t, db.CreateMailTask(ctx, dead))
		require.NoError(t, db.UpdateMailTaskStatus(ctx, dead.ID, "failed", "bad address", nil))

		failed, err := db.GetFailedMailTasks(ctx)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, "bad address", failed[0].LastError)
		assert.NotNil(t, failed[0].ProcessedAt)
	})
}
