package workflowtest

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/jobmatch/internal/domain/model"
)

func TestCreateFindAcceptWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	WithHarness(t, Options{}, func(h *Harness) {
		c := h.Client()
		avery := h.WorkerID("Avery Plow")
		jordan := h.WorkerID("Jordan Yard")

		created := c.CreateJobs(CreateJobsPayload{
			CustomerID: h.Seed.CustomerID,
			LocationID: h.Seed.LocationIDs[0],
			Text:       "Driveway is buried after last night's storm",
			JobType:    string(model.JobTypeSnowRemoval),
			Priority:   string(model.JobPriorityHigh),
		})
		require.Len(t, created.Jobs, 1)
		job := created.Jobs[0].Job
		require.NotNil(t, job)
		assert.Equal(t, model.JobStatusPending, job.Status)
		assert.Equal(t, model.JobTypeSnowRemoval, job.Type)
		assert.Positive(t, job.Price.FinalPrice)
		assert.Contains(t, created.Jobs[0].Recipients, avery)
		assert.NotContains(t, created.Jobs[0].Recipients, jordan, "lawn-only worker is not a candidate")

		cards := c.NearbyJobs(avery, NearbyQuery{RadiusKm: 10})
		ids := make([]string, 0, len(cards))
		for _, card := range cards {
			ids = append(ids, card.ID)
		}
		assert.Contains(t, ids, job.ID)

		first := c.Accept(job.ID, avery)
		assert.Equal(t, http.StatusOK, first.Status)
		assert.True(t, first.Accepted)

		second := c.Accept(job.ID, avery)
		assert.Equal(t, http.StatusConflict, second.Status)
		assert.False(t, second.Accepted)

		assert.Equal(t, model.JobStatusAssigned, c.GetJob(job.ID).Status)
		for _, card := range c.NearbyJobs(avery, NearbyQuery{RadiusKm: 10}) {
			assert.NotEqual(t, job.ID, card.ID, "assigned job must not be offered again")
		}
		assert.GreaterOrEqual(t, c.Stats().Assigned, 1)

		mine := c.CustomerJobs(h.Seed.CustomerID, "status=assigned")
		require.Len(t, mine, 1)
		assert.Equal(t, job.ID, mine[0].ID)
	})
}

func TestConcurrentAcceptHasOneWinner(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	WithHarness(t, Options{}, func(h *Harness) {
		c := h.Client()
		created := c.CreateJobs(CreateJobsPayload{
			CustomerID: h.Seed.CustomerID,
			LocationID: h.Seed.LocationIDs[0],
			JobType:    string(model.JobTypeSnowRemoval),
		})
		require.Len(t, created.Jobs, 1)
		jobID := created.Jobs[0].Job.ID

		claimants := []string{
			h.WorkerID("Avery Plow"),
			h.WorkerID("Quinn Newhire"),
			h.WorkerID("Sam Offline"),
			h.WorkerID("Riley Fixit"),
		}
		results := make([]AcceptResult, len(claimants))
		var wg sync.WaitGroup
		for i, workerID := range claimants {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = c.Accept(jobID, workerID)
			}()
		}
		wg.Wait()

		winners := 0
		for _, r := range results {
			if r.Accepted {
				winners++
				assert.Equal(t, http.StatusOK, r.Status)
			} else {
				assert.Equal(t, http.StatusConflict, r.Status)
			}
		}
		assert.Equal(t, 1, winners)
	})
}

func TestEstimateWithoutLocation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	WithHarness(t, Options{Environment: map[string]string{"PRICING_DEFAULT_WORKER_COUNT": "5"}}, func(h *Harness) {
		sqft := 1200.0
		est := h.Client().Estimate(EstimatePayload{
			JobType:       string(model.JobTypeLawnCare),
			SquareFootage: &sqft,
			Severity:      string(model.SeverityModerate),
		})

		assert.Equal(t, model.JobTypeLawnCare, est.JobType)
		assert.InDelta(t, 1.0, est.Price.WeatherMultiplier, 1e-9)
		assert.Positive(t, est.Price.FinalPrice)
	})
}
