package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/miltrack/miltrack/apps/api/echo"
	"github.com/miltrack/miltrack/core/training"
)

func Test_trainingApi_create(t *testing.T) {
	f := setup(t)
	maxPoints := 90

	t.Run("ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/trainings",
			marchallObj(t, training.NewTraining{Name: "300 Meter", MaxPoints: &maxPoints}))
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var tr training.Training
		decodeBody(t, rec, &tr)
		assert.Equal(t, "300 Meter", tr.Name)
		assert.True(t, tr.Enabled)
		assert.Equal(t, 90, tr.MaxPoints.Int)
	})

	t.Run("name is required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/trainings", marchallObj(t, training.NewTraining{}))
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var fields map[string]string
		decodeBody(t, rec, &fields)
		assert.Equal(t, "name is a required field", fields["name"])
	})

	t.Run("negative max points is rejected", func(t *testing.T) {
		negative := -5
		req, rec := newRequest(http.MethodPost, "/v1/trainings",
			marchallObj(t, training.NewTraining{Name: "lol", MaxPoints: &negative}))
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_trainingApi_query(t *testing.T) {
	f := setup(t)
	f.createInstance(t, nil)

	req, rec := newRequest(http.MethodGet, "/v1/trainings")
	f.app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var trainings []training.Training
	decodeBody(t, rec, &trainings)
	require.Len(t, trainings, 1)
	assert.Equal(t, "300 Meter", trainings[0].Name)
}

func Test_trainingApi_createInstance(t *testing.T) {
	f := setup(t)
	dueDate := time.Now().UTC().AddDate(0, 0, 7)

	tr, err := f.svc.CreateTraining(context.Background(), training.NewTraining{Name: "Marsch 20km"})
	require.NoError(t, err)

	t.Run("ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/training-instances",
			marchallObj(t, training.NewInstance{TrainingID: tr.ID, DueDate: dueDate, PersonIDs: f.personIDs()}))
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var body echoapi.InstanceCreatedResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, 3, body.TrackCount)
		assert.Equal(t, "Marsch 20km", body.Instance.Name)
	})

	t.Run("person IDs are required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/training-instances",
			marchallObj(t, training.NewInstance{TrainingID: tr.ID, DueDate: dueDate}))
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown training", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/training-instances",
			marchallObj(t, training.NewInstance{TrainingID: "nope", DueDate: dueDate, PersonIDs: f.personIDs()}))
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var fields map[string]string
		decodeBody(t, rec, &fields)
		assert.Equal(t, "training not found", fields["training_id"])
	})
}

func Test_trainingApi_retrieveInstance(t *testing.T) {
	f := setup(t)
	inst, _ := f.createInstance(t, intPtr(90))

	t.Run("ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/training-instances/"+inst.ID)
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var detail training.InstanceDetail
		decodeBody(t, rec, &detail)
		assert.Equal(t, inst.ID, detail.Instance.ID)
		assert.Len(t, detail.Incomplete, 3)
		assert.Empty(t, detail.Completed)
	})

	t.Run("not found", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/training-instances/nope")
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_trainingApi_setTrackCompletion(t *testing.T) {
	f := setup(t)
	_, trackIDs := f.createInstance(t, intPtr(90))
	trackID := trackIDs["Brunner"]

	t.Run("completed is required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, "/v1/training-tracks/"+trackID+"/completion",
			marchallObj(t, map[string]interface{}{}))
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var fields map[string]string
		decodeBody(t, rec, &fields)
		assert.Equal(t, "completed is a required field", fields["completed"])
	})

	t.Run("score is required for a scored training", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, "/v1/training-tracks/"+trackID+"/completion",
			marchallObj(t, map[string]interface{}{"completed": true}))
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var fields map[string]string
		decodeBody(t, rec, &fields)
		assert.Equal(t, "a score is required to complete this training", fields["points"])
	})

	t.Run("complete then uncomplete", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, "/v1/training-tracks/"+trackID+"/completion",
			marchallObj(t, map[string]interface{}{"completed": true, "points": 82}))
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var track training.Track
		decodeBody(t, rec, &track)
		assert.True(t, track.IsCompleted())
		assert.Equal(t, 82, track.Points.Int)

		req, rec = newRequest(http.MethodPut, "/v1/training-tracks/"+trackID+"/completion",
			marchallObj(t, map[string]interface{}{"completed": false}))
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		decodeBody(t, rec, &track)
		assert.False(t, track.IsCompleted())
		assert.False(t, track.Points.Valid)
	})

	t.Run("not found", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, "/v1/training-tracks/nope/completion",
			marchallObj(t, map[string]interface{}{"completed": true}))
		f.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
