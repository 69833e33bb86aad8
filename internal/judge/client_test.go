package judge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"codearena/internal/common"
)

func respond(t *testing.T, w http.ResponseWriter, errTag *string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal test response: %v", err)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"err": errTag, "data": json.RawMessage(raw)})
}

func bundleRequest() JudgeRequest {
	id := "bundle-1"
	return JudgeRequest{
		Src:        "print(1)",
		MaxCPUTime: 1000,
		MaxMemory:  256 * 1024 * 1024,
		TestCaseID: &id,
	}
}

func TestJudgeSendsHashedToken(t *testing.T) {
	const token = "top-secret"
	sum := sha256.Sum256([]byte(token))
	wantHeader := hex.EncodeToString(sum[:])

	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Judge-Server-Token")
		respond(t, w, nil, []CaseOutcome{{TestCase: "1", Result: 0}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, token)
	if _, err := client.Judge(context.Background(), bundleRequest()); err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if gotHeader != wantHeader {
		t.Errorf("token header = %q, want %q", gotHeader, wantHeader)
	}
}

func TestJudgeRequiresExactlyOneTestCaseSource(t *testing.T) {
	client := NewClient("http://unused", "t")

	// Neither set.
	if _, err := client.Judge(context.Background(), JudgeRequest{MaxCPUTime: 1000}); !errors.Is(err, common.ErrBadRequest) {
		t.Errorf("neither source: err = %v, want ErrBadRequest", err)
	}

	// Both set.
	req := bundleRequest()
	req.TestCase = []InlineTestCase{{Input: "1", Output: "1"}}
	if _, err := client.Judge(context.Background(), req); !errors.Is(err, common.ErrBadRequest) {
		t.Errorf("both sources: err = %v, want ErrBadRequest", err)
	}
}

func TestJudgeCompileFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := "CompileError"
		respond(t, w, &tag, "main.c:1: expected ';'")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t")
	_, err := client.Judge(context.Background(), bundleRequest())

	var compileErr *CompileFailure
	if !errors.As(err, &compileErr) {
		t.Fatalf("err = %v, want CompileFailure", err)
	}
	if compileErr.Output != "main.c:1: expected ';'" {
		t.Errorf("Output = %q", compileErr.Output)
	}
}

func TestJudgeServerErrorTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := "JudgeClientError"
		respond(t, w, &tag, "no such test case bundle")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t")
	if _, err := client.Judge(context.Background(), bundleRequest()); !errors.Is(err, ErrJudgeClient) {
		t.Errorf("err = %v, want ErrJudgeClient", err)
	}
}

func TestJudgeMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t")
	if _, err := client.Judge(context.Background(), bundleRequest()); !errors.Is(err, ErrJudgeClient) {
		t.Errorf("err = %v, want ErrJudgeClient", err)
	}
}

func TestJudgeUnreachableServer(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "t")
	if _, err := client.Judge(context.Background(), bundleRequest()); !errors.Is(err, ErrJudgeClient) {
		t.Errorf("err = %v, want ErrJudgeClient", err)
	}
}

func TestJudgeReturnsOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req JudgeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.TestCaseID == nil || *req.TestCaseID != "bundle-1" {
			t.Errorf("test_case_id not forwarded: %+v", req.TestCaseID)
		}
		respond(t, w, nil, []CaseOutcome{
			{TestCase: "2", Result: -1, CPUTime: 30, Memory: 2048},
			{TestCase: "1", Result: 0, CPUTime: 10, Memory: 1024},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t")
	outcomes, err := client.Judge(context.Background(), bundleRequest())
	if err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("len(outcomes) = %d, want 2", len(outcomes))
	}
	// Order is passed through as received; sorting is the dispatcher's job.
	if outcomes[0].TestCase != "2" || outcomes[1].TestCase != "1" {
		t.Errorf("outcomes reordered: %+v", outcomes)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Errorf("path = %s, want /ping", r.URL.Path)
		}
		respond(t, w, nil, map[string]string{"hostname": "judge-1"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t")
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestCompileSPJFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/compile_spj" {
			t.Errorf("path = %s, want /compile_spj", r.URL.Path)
		}
		tag := "SPJCompileError"
		respond(t, w, &tag, "spj.c:3: undefined reference")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t")
	compileCfg, _, err := SPJConfigsFor("C")
	if err != nil {
		t.Fatalf("SPJConfigsFor: %v", err)
	}
	if err := client.CompileSPJ(context.Background(), "int main(){}", "v1", compileCfg); !errors.Is(err, ErrJudgeClient) {
		t.Errorf("err = %v, want ErrJudgeClient", err)
	}
}
