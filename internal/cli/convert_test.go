package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newADOStub serves just enough of the Azure DevOps API for a conversion run.
func newADOStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/contoso/Shop/_apis/build/definitions/42/yaml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("trigger:\n- main\n"))
	})
	mux.HandleFunc("/contoso/Shop/_apis/git/repositories", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]string{{"id": "repo-1", "name": "Shop"}},
		})
	})
	mux.HandleFunc("/contoso/Shop/_apis/git/repositories/repo-1/refs", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]string{{"objectId": "abc"}},
		})
	})
	mux.HandleFunc("/contoso/Shop/_apis/git/repositories/repo-1/pushes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	return httptest.NewServer(mux)
}

func writeInputFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunConversion(t *testing.T) {
	srv := newADOStub(t)
	defer srv.Close()

	t.Setenv("TEST_PAT", "super-secret-token")
	input := writeInputFile(t,
		"https://dev.azure.com/contoso/Shop/_build?definitionId=42",
		"some noise line",
	)

	var out bytes.Buffer
	err := runConversion(context.Background(), "TEST_PAT", input, srv.URL, &out)
	if err != nil {
		t.Fatalf("conversion failed: %v\noutput: %s", err, out.String())
	}

	if !strings.Contains(out.String(), "1/1 pipelines processed successfully") {
		t.Errorf("unexpected summary: %s", out.String())
	}
	if !strings.Contains(out.String(), "converted-pipeline-42") {
		t.Errorf("expected branch name in output: %s", out.String())
	}
	// the token value must never appear in any output
	if strings.Contains(out.String(), "super-secret-token") {
		t.Errorf("token leaked into output: %s", out.String())
	}
}

func TestRunConversion_MissingToken(t *testing.T) {
	input := writeInputFile(t, "https://dev.azure.com/contoso/Shop/_build?definitionId=42")

	var out bytes.Buffer
	err := runConversion(context.Background(), "MIGACCEL_TEST_UNSET_VAR", input, "", &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "MIGACCEL_TEST_UNSET_VAR") {
		t.Errorf("error should name the variable, got: %v", err)
	}
}

func TestRunConversion_NoValidURLs(t *testing.T) {
	t.Setenv("TEST_PAT", "tok")
	input := writeInputFile(t, "not a pipeline url")

	var out bytes.Buffer
	if err := runConversion(context.Background(), "TEST_PAT", input, "", &out); err == nil {
		t.Error("expected error when no line parses")
	}
}

func TestRunConversion_PartialFailure(t *testing.T) {
	srv := newADOStub(t)
	defer srv.Close()

	t.Setenv("TEST_PAT", "tok")
	// definition 99 has no stub route, so its yaml fetch 404s
	input := writeInputFile(t,
		"https://dev.azure.com/contoso/Shop/_build?definitionId=42",
		"https://dev.azure.com/contoso/Shop/_build?definitionId=99",
	)

	var out bytes.Buffer
	err := runConversion(context.Background(), "TEST_PAT", input, srv.URL, &out)
	if err == nil {
		t.Fatal("expected error when a pipeline fails")
	}
	if !strings.Contains(out.String(), "1/2 pipelines processed successfully") {
		t.Errorf("unexpected summary: %s", out.String())
	}
}
