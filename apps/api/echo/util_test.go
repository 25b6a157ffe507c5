package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	echoapi "github.com/miltrack/miltrack/apps/api/echo"
	"github.com/miltrack/miltrack/core"
	"github.com/miltrack/miltrack/core/org"
	"github.com/miltrack/miltrack/core/training"
	emailsvc "github.com/miltrack/miltrack/services/email"
	exportsvc "github.com/miltrack/miltrack/services/export"
	dummydb "github.com/miltrack/miltrack/storage/database/dummy"
)

type fixture struct {
	app     echoapi.Server
	orgSvc  org.ServiceInterface
	svc     training.ServiceInterface
	company org.Company
	platoon org.Platoon
	persons []org.Person
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	core.Conf.Debug = false
	core.Conf.TestMode = true

	db, err := dummydb.Open()
	require.NoError(t, err)
	orgRepo := dummydb.NewOrgRepository(db)
	orgSvc := org.NewService(orgRepo)
	trainingSvc := training.NewService(nil, dummydb.NewTrainingRepository(db), orgRepo)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	app := echoapi.NewServer(
		&echoapi.Options{
			DisableReqLogs: true,
			OrgSvc:         orgSvc,
			TrainingSvc:    trainingSvc,
			ExportSvc:      exportsvc.NewXLSXService(),
			MailSvc:        emailsvc.NewConsoleServiceMock(),
			Logger:         testLogger{t},
			Validate:       validate,
			Translator:     translator,
		},
	)

	f := &fixture{app: app, orgSvc: orgSvc, svc: trainingSvc}

	f.company, err = orgSvc.CreateCompany(ctx, org.NewCompany{Name: "Jassbach KP 2"})
	require.NoError(t, err)
	f.platoon, err = orgSvc.CreatePlatoon(ctx, org.NewPlatoon{Name: "Zug 1", CompanyID: f.company.ID})
	require.NoError(t, err)
	for _, name := range []string{"Brunner", "Schneider", "Meier"} {
		p, err := orgSvc.CreatePerson(ctx, org.NewPerson{Name: name, PlatoonID: f.platoon.ID})
		require.NoError(t, err)
		f.persons = append(f.persons, p)
	}
	return f
}

func (f *fixture) personIDs() []string {
	ids := make([]string, 0, len(f.persons))
	for _, p := range f.persons {
		ids = append(ids, p.ID)
	}
	return ids
}

// createInstance seeds a scored training with one instance over the
// whole roster and returns the instance and its track IDs by person name.
func (f *fixture) createInstance(t *testing.T, maxPoints *int) (training.Instance, map[string]string) {
	t.Helper()
	ctx := context.Background()

	tr, err := f.svc.CreateTraining(ctx, training.NewTraining{Name: "300 Meter", MaxPoints: maxPoints})
	require.NoError(t, err)
	inst, _, err := f.svc.CreateInstance(ctx, training.NewInstance{
		TrainingID: tr.ID,
		DueDate:    time.Now().UTC().AddDate(0, 0, 7),
		PersonIDs:  f.personIDs(),
	})
	require.NoError(t, err)

	detail, err := f.svc.InstanceDetail(ctx, inst.ID)
	require.NoError(t, err)
	trackIDs := make(map[string]string)
	for _, row := range detail.Incomplete {
		trackIDs[row.PersonName] = row.ID
	}
	return inst, trackIDs
}

func intPtr(n int) *int { return &n }

type testLogger struct{ t *testing.T }

func (l testLogger) Debug(msg string, args ...interface{}) { l.t.Logf("DEBUG: %s %v", msg, args) }
func (l testLogger) Info(msg string, args ...interface{})  { l.t.Logf("INFO: %s %v", msg, args) }
func (l testLogger) Warn(msg string, args ...interface{})  { l.t.Logf("WARN: %s %v", msg, args) }
func (l testLogger) Error(msg string, args ...interface{}) { l.t.Logf("ERROR: %s %v", msg, args) }

type httpErr struct {
	Error string `json:"error"`
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}
