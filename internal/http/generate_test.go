package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/rawbank/siop-reporter/internal/model"
	"github.com/rawbank/siop-reporter/internal/runlock"
)

// fakeRunner returns a canned result or error and records the date it
// was asked to run.
type fakeRunner struct {
	res   model.RunResult
	err   error
	dates []string
}

func (f *fakeRunner) Run(_ context.Context, date model.ReportDate) (model.RunResult, error) {
	f.dates = append(f.dates, date.String())
	return f.res, f.err
}

func callGenerate(t *testing.T, runner Runner, query string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports/generate"+query, nil)
	rec := httptest.NewRecorder()

	if err := generateHandler(runner)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return rec, body
}

func TestGenerateExplicitDate(t *testing.T) {
	runner := &fakeRunner{res: model.RunResult{
		RunID:        "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Date:         "05/03/2024",
		TotalRecords: 3,
		BundleCount:  2,
		Outcomes: []model.DeliveryOutcome{
			{Email: "a@x.com", Records: 2, Success: true},
			{Email: "b@x.com", Records: 1, Success: true},
		},
	}}

	rec, body := callGenerate(t, runner, "?date=05/03/2024")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["run_id"] != "01ARZ3NDEKTSV4RRFFQ69G5FAV" || body["date"] != "05/03/2024" {
		t.Errorf("run identity lost: %v", body)
	}
	if body["records"] != float64(3) || body["bundles"] != float64(2) || body["delivered"] != float64(2) {
		t.Errorf("counts wrong: %v", body)
	}
	if len(runner.dates) != 1 || runner.dates[0] != "05/03/2024" {
		t.Errorf("runner invoked with %v, want the query date once", runner.dates)
	}
}

func TestGenerateDefaultsToToday(t *testing.T) {
	runner := &fakeRunner{res: model.RunResult{Date: model.Today().String()}}

	rec, _ := callGenerate(t, runner, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(runner.dates) != 1 || runner.dates[0] != model.Today().String() {
		t.Errorf("runner invoked with %v, want today", runner.dates)
	}
}

func TestGenerateMalformedDate(t *testing.T) {
	tests := []string{"2024-03-05", "03/05/2024x", "garbage"}
	for _, raw := range tests {
		runner := &fakeRunner{}
		rec, body := callGenerate(t, runner, "?date="+raw)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("date %q: status = %d, want 400", raw, rec.Code)
		}
		if body["success"] != false {
			t.Errorf("date %q: success = %v", raw, body["success"])
		}
		if len(runner.dates) != 0 {
			t.Errorf("date %q: run started despite invalid date", raw)
		}
	}
}

func TestGenerateHeldLock(t *testing.T) {
	runner := &fakeRunner{err: runlock.ErrRunLocked}

	rec, body := callGenerate(t, runner, "?date=05/03/2024")

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if body["success"] != false || body["date"] != "05/03/2024" {
		t.Errorf("conflict body wrong: %v", body)
	}
}

func TestGenerateFatalError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("operations query failed")}

	rec, body := callGenerate(t, runner, "")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body["success"] != false {
		t.Errorf("success = %v", body["success"])
	}
	if body["error"] != "operations query failed" {
		t.Errorf("error detail lost: %v", body["error"])
	}
}

// Contained per-recipient failures are a successful run with counts,
// never an error status.
func TestGeneratePartialFailureIsStillOK(t *testing.T) {
	runner := &fakeRunner{res: model.RunResult{
		Date:         "05/03/2024",
		TotalRecords: 3,
		BundleCount:  2,
		Outcomes: []model.DeliveryOutcome{
			{Email: "a@x.com", Records: 2, Success: true},
			{Email: "b@x.com", Records: 1, Error: "smtp refused"},
		},
	}}

	rec, body := callGenerate(t, runner, "?date=05/03/2024")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite a failed delivery", rec.Code)
	}
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["delivered"] != float64(1) || body["failed"] != float64(1) {
		t.Errorf("delivered/failed = %v/%v, want 1/1", body["delivered"], body["failed"])
	}
}
