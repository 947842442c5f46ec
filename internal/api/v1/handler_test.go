package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"prodplan/internal/store"
	"prodplan/internal/workbook"
)

type testEnv struct {
	router  *gin.Engine
	store   *store.Store
	handler *Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "prodplan.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	h := NewHandler(st, workbook.NewGenerator(workbook.DefaultOptions()), Options{ExportDir: filepath.Join(dir, "exports")})
	t.Cleanup(h.Close)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return &testEnv{router: r, store: st, handler: h}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func projectJSON() map[string]any {
	return map[string]any{
		"name":      "Line 1",
		"goal":      100,
		"unit":      "units",
		"startDate": "2024-01-01",
		"endDate":   "2024-01-04",
		"resources": []string{"A", "B"},
		"actualData": []map[string]any{
			{"date": "2024-01-02", "name": "A", "actual": 5, "defects": 1},
		},
		"columns": []map[string]any{
			{"header": "Daily Target", "key": "target", "section": "Target", "formula": "SUMIFS(DailyProductionTable[Target],DailyProductionTable[Date],A{rowIndex})"},
			{"header": "Daily Actual", "key": "actual", "section": "Actual", "formula": "SUMIFS(DailyProductionTable[Actual],DailyProductionTable[Date],A{rowIndex})"},
		},
		"dailyColumns": []map[string]any{
			{"header": "Defects", "key": "defects"},
		},
	}
}

func openWorkbook(t *testing.T, w *httptest.ResponseRecorder) *excelize.File {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("content-type=%q body=%s", ct, w.Body.String())
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}
}

func TestGeneratePlan(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/plans/generate", map[string]any{"project": projectJSON()})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "Line_1_Production_Plan.xlsx") {
		t.Fatalf("content-disposition=%q", cd)
	}
	f := openWorkbook(t, w)
	if got := strings.Join(f.GetSheetList(), "|"); got != "Raw Daily Key|Line 1|Weekly Pivot|Dashboard" {
		t.Fatalf("sheets=%s", got)
	}

	w = env.do(t, http.MethodPost, "/api/plans/generate", map[string]any{"project": projectJSON(), "includeDashboard": false})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if n := len(openWorkbook(t, w).GetSheetList()); n != 3 {
		t.Fatalf("sheets=%d, want 3", n)
	}

	gens, err := env.store.ListGenerations(store.GenerationQuery{})
	if err != nil || len(gens) != 2 || gens[0].Status != store.GenerationSucceeded {
		t.Fatalf("generations=%+v err=%v", gens, err)
	}
}

func TestGeneratePlanBadInput(t *testing.T) {
	env := newTestEnv(t)

	p := projectJSON()
	p["endDate"] = "2023-12-01"
	w := env.do(t, http.MethodPost, "/api/plans/generate", map[string]any{"project": p})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "endDate") {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	p = projectJSON()
	p["columns"] = []map[string]any{{"header": "X", "section": "Forecast"}}
	w = env.do(t, http.MethodPost, "/api/plans/generate", map[string]any{"project": p})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/plans/generate", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing project: status=%d", w.Code)
	}

	p = projectJSON()
	p["columns"] = []map[string]any{{"header": "X", "section": "Target", "formula": "A{row_index}"}}
	w = env.do(t, http.MethodPost, "/api/plans/generate", map[string]any{"project": p})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("malformed formula: status=%d body=%s", w.Code, w.Body.String())
	}

	gens, err := env.store.ListGenerations(store.GenerationQuery{})
	if err != nil || len(gens) != 3 {
		t.Fatalf("generations=%+v err=%v", gens, err)
	}
	for _, g := range gens {
		if g.Status != store.GenerationFailed || g.ErrorMessage == "" {
			t.Fatalf("generation=%+v", g)
		}
	}
}

func TestPreviewMergesUploadedActuals(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/plans/preview", map[string]any{
		"project": projectJSON(),
		"uploadedActuals": []map[string]any{
			{"date": "2024-01-02", "name": "a", "actual": 50},
			{"date": "2024-01-03", "name": "B", "actual": "7"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp PreviewResponse
	decode(t, w, &resp)

	if resp.Rows != 8 || resp.Days != 4 || resp.MatchedActuals != 2 || len(resp.Weeks) != 1 {
		t.Fatalf("resp=%+v", resp)
	}
	actuals := map[string]float64{}
	for _, it := range resp.Items {
		if it.Actual != nil {
			actuals[it.Date+"/"+it.Name] = *it.Actual
		}
	}
	if actuals["2024-01-02/A"] != 5 || actuals["2024-01-03/B"] != 7 {
		t.Fatalf("actuals=%v", actuals)
	}
	if d := resp.TargetTotal - 100; d > 1e-9 || d < -1e-9 {
		t.Fatalf("target total=%v", resp.TargetTotal)
	}
}

func TestExportAndDownloadOnce(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/plans/export", map[string]any{"project": projectJSON()})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp ExportResponse
	decode(t, w, &resp)
	if !strings.HasPrefix(resp.DownloadURL, "/api/plans/download/") || resp.FileName != "Line_1_Production_Plan.xlsx" {
		t.Fatalf("resp=%+v", resp)
	}
	if resp.Summary.Rows != 8 {
		t.Fatalf("summary=%+v", resp.Summary)
	}

	w = env.do(t, http.MethodGet, resp.DownloadURL, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download status=%d body=%s", w.Code, w.Body.String())
	}
	openWorkbook(t, w)

	w = env.do(t, http.MethodGet, resp.DownloadURL, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second download status=%d", w.Code)
	}
}

func TestExportStream(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/plans/export/stream", map[string]any{"project": projectJSON()})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var events []exportProgressEvent
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt exportProgressEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt); err != nil {
			t.Fatalf("event %q: %v", line, err)
		}
		events = append(events, evt)
	}
	if len(events) < 3 || events[0].Type != "start" || events[len(events)-1].Type != "done" {
		t.Fatalf("events=%+v", events)
	}
	if !strings.Contains(w.Body.String(), "/api/plans/download/") {
		t.Fatalf("done event lacks download url: %s", w.Body.String())
	}
}

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/projects", projectJSON())
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	var rec store.ProjectRecord
	decode(t, w, &rec)
	if rec.ID == "" || rec.Definition == nil || len(rec.Definition.ActualData) != 1 {
		t.Fatalf("rec=%+v", rec)
	}

	w = env.do(t, http.MethodGet, "/api/projects", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), rec.ID) {
		t.Fatalf("list status=%d body=%s", w.Code, w.Body.String())
	}

	updated := projectJSON()
	updated["name"] = "Line 1 (night)"
	w = env.do(t, http.MethodPut, "/api/projects/"+rec.ID, updated)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Line 1 (night)") {
		t.Fatalf("update status=%d body=%s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/projects/"+rec.ID+"/generate", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("generate status=%d body=%s", w.Code, w.Body.String())
	}
	if got := openWorkbook(t, w).GetSheetList()[1]; got != "Line 1 (night)" {
		t.Fatalf("plan sheet=%q", got)
	}

	w = env.do(t, http.MethodGet, "/api/generations?projectId="+rec.ID, nil)
	var gens struct {
		Items []store.GenerationRecord `json:"items"`
		Total int                      `json:"total"`
	}
	decode(t, w, &gens)
	if gens.Total != 1 || gens.Items[0].ProjectID != rec.ID || gens.Items[0].Rows != 8 {
		t.Fatalf("generations=%+v", gens)
	}

	w = env.do(t, http.MethodDelete, "/api/projects/"+rec.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", w.Code)
	}
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w = env.do(t, method, "/api/projects/"+rec.ID, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s after delete status=%d", method, w.Code)
		}
	}
	w = env.do(t, http.MethodPut, "/api/projects/"+rec.ID, projectJSON())
	if w.Code != http.StatusNotFound {
		t.Fatalf("PUT missing status=%d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/generations?limit=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status=%d", w.Code)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(t, http.MethodPost, "/api/projects", projectJSON()); w.Code != http.StatusCreated {
		t.Fatalf("create status=%d", w.Code)
	}
	w := env.do(t, http.MethodGet, "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp StatusResponse
	decode(t, w, &resp)
	if resp.Status != "ok" || resp.Projects != 1 || !resp.IncludeDashboard {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestContentDisposition(t *testing.T) {
	t.Parallel()

	got := contentDisposition("二号线_Production_Plan.xlsx")
	want := "attachment; filename=\"____Production_Plan.xlsx\"; filename*=UTF-8''%E4%BA%8C%E5%8F%B7%E7%BA%BF_Production_Plan.xlsx"
	if got != want {
		t.Fatalf("content-disposition mismatch:\n got: %s\nwant: %s", got, want)
	}
}
