package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kebapps/pagesmith/internal/core"
	"github.com/kebapps/pagesmith/internal/pipeline"
	"github.com/kebapps/pagesmith/internal/publish"
	"github.com/kebapps/pagesmith/internal/registry"
)

type fakeBuilder struct {
	buildFn   func(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
	outputDir string
}

func (f *fakeBuilder) Build(ctx context.Context, req pipeline.Request) (pipeline.Response, error) {
	if f.buildFn != nil {
		return f.buildFn(ctx, req)
	}
	return pipeline.Response{ProjectID: req.ProjectID}, nil
}

func (f *fakeBuilder) OutputDir(projectID string) (string, error) {
	if err := core.ValidateProjectID(projectID); err != nil {
		return "", core.WrapError(core.ErrCodeInvalidProjectID, err, "project id %q", projectID)
	}
	if f.outputDir == "" {
		return "", core.NewError(core.ErrCodeProjectNotFound, "no build output for project %q", projectID)
	}
	return f.outputDir, nil
}

func emptyRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Load(t.TempDir())
	require.NoError(t, err)
	return reg
}

func newTestServer(t *testing.T, builder Builder) *Server {
	t.Helper()
	return New(zap.NewNop(), builder, emptyRegistry(t), []string{"*"})
}

func postBuild(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/build", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestBuildEndpoint(t *testing.T) {
	builder := &fakeBuilder{
		buildFn: func(ctx context.Context, req pipeline.Request) (pipeline.Response, error) {
			return pipeline.Response{
				ProjectID: "demo-1",
				Locations: []publish.Location{{Key: "demo-1/index.html", URL: "/api/preview/demo-1/index.html"}},
			}, nil
		},
	}
	srv := newTestServer(t, builder)

	rec := postBuild(t, srv, `{"templateId":"band","templateConfig":{"title":"Hi"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Build completed successfully", body["message"])
	assert.Equal(t, "demo-1", body["projectId"])
	assert.NotEmpty(t, body["urls"])
}

func TestBuildEndpointRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, &fakeBuilder{})

	rec := postBuild(t, srv, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(core.ErrCodeInvalidRequest), decodeBody(t, rec)["code"])

	rec = postBuild(t, srv, `{"templateConfig":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuildEndpointMapsErrorCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown template", core.NewError(core.ErrCodeInvalidTemplate, "unknown template"), http.StatusBadRequest},
		{"bad config", core.NewError(core.ErrCodeInvalidConfig, "config rejected"), http.StatusBadRequest},
		{"bundle failure", core.NewError(core.ErrCodeBuildFailed, "transform error"), http.StatusInternalServerError},
		{"publish failure", core.NewError(core.ErrCodePublishFailed, "upload failed"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			builder := &fakeBuilder{
				buildFn: func(ctx context.Context, req pipeline.Request) (pipeline.Response, error) {
					return pipeline.Response{}, tc.err
				},
			}
			srv := newTestServer(t, builder)

			rec := postBuild(t, srv, `{"templateId":"band"}`)
			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["code"])
		})
	}
}

func TestPreviewServesBuiltFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>hi</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bundle.js"), []byte("export {};"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.bin"), []byte{0x01}, 0o644))
	srv := newTestServer(t, &fakeBuilder{outputDir: dir})

	cases := []struct {
		path        string
		contentType string
	}{
		{"/api/preview/demo-1", "text/html"},
		{"/api/preview/demo-1/index.html", "text/html"},
		{"/api/preview/demo-1/bundle.js", "application/javascript"},
		{"/api/preview/demo-1/logo.bin", "application/octet-stream"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		require.Equal(t, http.StatusOK, rec.Code, tc.path)
		assert.Equal(t, tc.contentType, rec.Header().Get("Content-Type"), tc.path)
	}
}

func TestPreviewUnknownProject(t *testing.T) {
	srv := newTestServer(t, &fakeBuilder{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/preview/missing/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(core.ErrCodeProjectNotFound), decodeBody(t, rec)["code"])
}

func TestPreviewRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	srv := newTestServer(t, &fakeBuilder{outputDir: dir})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/preview/demo-1/ignored", nil)
	req = mux.SetURLVars(req, map[string]string{"projectId": "demo-1", "path": "../../etc/passwd"})
	srv.handlePreview(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadStreamsZip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>hi</html>"), 0o644))
	srv := newTestServer(t, &fakeBuilder{outputDir: dir})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download?projectId=demo-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "build.zip")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "index.html", zr.File[0].Name)
}

func TestDownloadRequiresProjectID(t *testing.T) {
	srv := newTestServer(t, &fakeBuilder{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeBuilder{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}
