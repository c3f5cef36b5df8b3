package parser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/jobmatch/internal/domain/model"
)

func jobTypes(jobs []model.ParsedJob) []model.JobType {
	out := make([]model.JobType, len(jobs))
	for i, j := range jobs {
		out[i] = j.Type
	}
	return out
}

func TestKeyword_Parse(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		types    []model.JobType
		priority model.JobPriority
	}{
		{
			name:     "two trades in one sentence",
			text:     "Need my driveway shoveled and the lawn mowed",
			types:    []model.JobType{model.JobTypeSnowRemoval, model.JobTypeLawnCare},
			priority: model.JobPriorityMedium,
		},
		{
			name:     "gate and leaves",
			text:     "My back gate is broken and I need the leaves raked",
			types:    []model.JobType{model.JobTypeCarpentry, model.JobTypeLawnCare},
			priority: model.JobPriorityHigh,
		},
		{
			name:     "specific trade beats handyman",
			text:     "Please fix the leaking kitchen faucet ASAP",
			types:    []model.JobType{model.JobTypePlumbing},
			priority: model.JobPriorityUrgent,
		},
		{
			name:     "same type clauses merge",
			text:     "Mow the front lawn, rake the leaves in the back",
			types:    []model.JobType{model.JobTypeLawnCare},
			priority: model.JobPriorityMedium,
		},
		{
			name:     "electrical",
			text:     "Install a new outlet in the garage",
			types:    []model.JobType{model.JobTypeElectrical},
			priority: model.JobPriorityMedium,
		},
		{
			name:     "nothing recognised",
			text:     "Can someone help me move a piano",
			types:    []model.JobType{model.JobTypeOther},
			priority: model.JobPriorityMedium,
		},
	}

	p := NewKeyword()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, err := p.Parse(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.types, jobTypes(jobs))
			for _, j := range jobs {
				assert.Equal(t, tt.priority, j.Priority)
				assert.NotEmpty(t, j.Title)
				assert.NotEmpty(t, j.Description)
			}
		})
	}
}

func TestKeyword_ParseEmpty(t *testing.T) {
	jobs, err := NewKeyword().Parse(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestKeyword_UnmatchedClauseJoinsPreviousJob(t *testing.T) {
	jobs, err := NewKeyword().Parse(context.Background(), "Shovel the walk. The dog will be inside")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Shovel the walk", jobs[0].Title)
	assert.Equal(t, "Shovel the walk. The dog will be inside", jobs[0].Description)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Rake leaves", title("rake   leaves"))
	long := strings.Repeat("a", 150)
	assert.Len(t, title(long), maxTitleRunes)
}

func TestNewHTTPClient_RequiresURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{})
	require.Error(t, err)
}

func TestHTTPClient_Parse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req parseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gate and leaves", req.Text)
		_, _ = w.Write([]byte(`{"jobs": [
			{"job_type": "carpentry", "title": " Fix gate ", "description": "back gate", "priority": "high"},
			{"job_type": "landscaping", "title": "Rake leaves", "priority": "whenever"}
		]}`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPConfig{URL: srv.URL})
	require.NoError(t, err)

	jobs, err := c.Parse(context.Background(), "gate and leaves")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, model.ParsedJob{
		Type:        model.JobTypeCarpentry,
		Title:       "Fix gate",
		Description: "back gate",
		Priority:    model.JobPriorityHigh,
	}, jobs[0])
	assert.Equal(t, model.JobTypeOther, jobs[1].Type)
	assert.Empty(t, jobs[1].Priority)
}

func TestHTTPClient_ParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPConfig{URL: srv.URL})
	require.NoError(t, err)

	_, err = c.Parse(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
