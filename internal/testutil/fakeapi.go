package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Insert is one add-record call received by a FakeAPI.
type Insert struct {
	Table string
	Data  json.RawMessage
}

// FakeAPI is an in-process stand-in for the assistant service. Responses are
// configured per endpoint and every request is recorded for assertions.
type FakeAPI struct {
	*httptest.Server

	mu          sync.Mutex
	schemaBody  string
	schemaCode  int
	addCode     int
	addBody     string
	answerBody  string
	answerCode  int
	inserts     []Insert
	questions   []string
	requestIDs  []string
	apiKeys     []string
	schemaCalls int
	gate        chan struct{}
}

// NewFakeAPI starts a fake service that is closed with the test.
// Defaults: an empty schema, successful inserts and an empty answer.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		schemaBody: `{"tables":{}}`,
		schemaCode: http.StatusOK,
		addCode:    http.StatusOK,
		addBody:    `{"status":"success","message":"Record added."}`,
		answerBody: `{"sql_query":"","result":[]}`,
		answerCode: http.StatusOK,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(f.record)
	r.Get("/api/schema", f.handleSchema)
	r.Post("/api/add-record", f.handleAddRecord)
	r.Post("/api/nlq-to-sql", f.handleAsk)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// SetSchema sets the raw JSON served by GET /api/schema.
func (f *FakeAPI) SetSchema(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemaBody = body
	f.schemaCode = http.StatusOK
}

// FailSchema makes GET /api/schema answer with code and body.
func (f *FakeAPI) FailSchema(code int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemaBody = body
	f.schemaCode = code
}

// FailAddRecord makes POST /api/add-record answer with code and body.
func (f *FakeAPI) FailAddRecord(code int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCode = code
	f.addBody = body
}

// SetAnswer sets the raw JSON served by POST /api/nlq-to-sql.
func (f *FakeAPI) SetAnswer(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answerBody = body
	f.answerCode = http.StatusOK
}

// FailAsk makes POST /api/nlq-to-sql answer with code and body.
func (f *FakeAPI) FailAsk(code int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answerCode = code
	f.answerBody = body
}

// Hold blocks every handler until the returned release func is called.
func (f *FakeAPI) Hold() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Inserts returns the add-record calls received so far.
func (f *FakeAPI) Inserts() []Insert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Insert(nil), f.inserts...)
}

// Questions returns the questions received so far.
func (f *FakeAPI) Questions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.questions...)
}

// RequestIDs returns the X-Request-ID header of every request.
func (f *FakeAPI) RequestIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requestIDs...)
}

// APIKeys returns the X-API-Key header of every request.
func (f *FakeAPI) APIKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.apiKeys...)
}

// SchemaCalls returns how many times the schema was fetched.
func (f *FakeAPI) SchemaCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schemaCalls
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requestIDs = append(f.requestIDs, r.Header.Get("X-Request-ID"))
		f.apiKeys = append(f.apiKeys, r.Header.Get("X-API-Key"))
		gate := f.gate
		f.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) handleSchema(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	f.schemaCalls++
	code, body := f.schemaCode, f.schemaBody
	f.mu.Unlock()
	writeJSON(w, code, body)
}

func (f *FakeAPI) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Table string          `json:"table"`
		Data  json.RawMessage `json:"data"`
	}
	raw, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(raw, &req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, `{"detail":"invalid body"}`)
		return
	}

	f.mu.Lock()
	f.inserts = append(f.inserts, Insert{Table: req.Table, Data: req.Data})
	code, body := f.addCode, f.addBody
	f.mu.Unlock()
	writeJSON(w, code, body)
}

func (f *FakeAPI) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, `{"detail":"invalid body"}`)
		return
	}

	f.mu.Lock()
	f.questions = append(f.questions, req.Question)
	code, body := f.answerCode, f.answerBody
	f.mu.Unlock()
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}
