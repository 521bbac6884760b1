package web_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestCreateWorkflowRequest_Validation(t *testing.T) {
	t.Parallel()

	v := validator.New(validator.WithRequiredStructEnabled())

	tests := []struct {
		name    string
		request web.CreateWorkflowRequest
		wantErr bool
	}{
		{
			name:    "valid request",
			request: web.CreateWorkflowRequest{Name: "Test Workflow", Description: "Test Description"},
		},
		{
			name:    "blank name is allowed",
			request: web.CreateWorkflowRequest{},
		},
		{
			name:    "template id",
			request: web.CreateWorkflowRequest{Name: "Seeded", TemplateID: "invoice-reminder"},
		},
		{
			name:    "name too long",
			request: web.CreateWorkflowRequest{Name: strings.Repeat("n", 201)},
			wantErr: true,
		},
		{
			name:    "template id too long",
			request: web.CreateWorkflowRequest{TemplateID: strings.Repeat("t", 65)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Struct(tt.request)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateWorkflowRequest_Validation(t *testing.T) {
	t.Parallel()

	v := validator.New(validator.WithRequiredStructEnabled())

	short := "ok"
	long := strings.Repeat("d", 2001)

	assert.NoError(t, v.Struct(web.UpdateWorkflowRequest{}))
	assert.NoError(t, v.Struct(web.UpdateWorkflowRequest{Name: &short}))
	assert.Error(t, v.Struct(web.UpdateWorkflowRequest{Description: &long}))
}

func TestAppendVersionRequest_Validation(t *testing.T) {
	t.Parallel()

	v := validator.New(validator.WithRequiredStructEnabled())

	assert.NoError(t, v.Struct(web.AppendVersionRequest{Graph: models.EmptyGraph(), Note: "fine"}))
	assert.Error(t, v.Struct(web.AppendVersionRequest{Graph: models.EmptyGraph(), Note: strings.Repeat("x", 501)}))
}

func TestTransformRunResponse(t *testing.T) {
	t.Parallel()

	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	record := &models.ExecutionRecord{
		ID:         "run-1",
		WorkflowID: "wf-1",
		Version:    3,
		Status:     models.ExecutionStatusRunning,
		StartedAt:  started,
	}

	response := web.TransformRunResponse(record)
	assert.Equal(t, "run-1", response.RunID)
	assert.Nil(t, response.DurationMs)
	assert.Nil(t, response.FinishedAt)

	record.Finish(models.ExecutionStatusSucceeded, started.Add(15*time.Millisecond))

	response = web.TransformRunResponse(record)
	assert.Equal(t, models.ExecutionStatusSucceeded, response.Status)
	assert.Equal(t, int64(15), *response.DurationMs)
	assert.Equal(t, 3, response.Version)

	assert.Equal(t, []web.RunResponse{}, web.TransformRunResponses(nil))
	assert.Len(t, web.TransformRunResponses([]*models.ExecutionRecord{record, record}), 2)
}
