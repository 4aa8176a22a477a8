package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"retiro/internal/relationship/service"
	"retiro/internal/relationship/store/memory"
	"retiro/pkg/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Runs against the real service over the memory store; the handler layer is
// thin enough that stubbing the service would test nothing.
func newRelationshipRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, err := service.New(memory.New())
	if err != nil {
		t.Fatalf("failed to build relationship service: %v", err)
	}
	r := chi.NewRouter()
	New(svc, testLogger()).Register(r)
	return r
}

func TestDeclareAndRevoke(t *testing.T) {
	router := newRelationshipRouter(t)
	a, b := uuid.NewString(), uuid.NewString()

	pair := map[string]string{"person_a": a, "person_b": b, "kind": "spouse"}
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/relationships", pair))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	// Declaring the same bond twice is idempotent.
	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/relationships", pair))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodDelete, "/relationships", pair))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	// Revoking a bond that no longer exists is a not-found.
	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodDelete, "/relationships", pair))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestDeclareRejectsBadInput(t *testing.T) {
	router := newRelationshipRouter(t)
	a, b := uuid.NewString(), uuid.NewString()

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/relationships",
		map[string]string{"person_a": "not-a-uuid", "person_b": b, "kind": "spouse"}))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/relationships",
		map[string]string{"person_a": a, "person_b": b, "kind": "cousin"}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	// Self-pairs are meaningless.
	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/relationships",
		map[string]string{"person_a": a, "person_b": a, "kind": "spouse"}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/relationships", "{broken"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}
