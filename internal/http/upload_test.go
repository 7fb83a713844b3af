package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func uploadRequest(t *testing.T, token string, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestUpload_SavesAndServesImage(t *testing.T) {
	env := newTestEnv(t)
	u := env.user("Ada")

	resp, res := env.do(uploadRequest(t, u.Token, map[string][]byte{"lamp.png": pngHeader}))
	require.Equal(t, http.StatusCreated, resp.StatusCode, res.Message)
	out := decode[struct {
		URLs []string `json:"urls"`
	}](t, res.Data)
	require.Len(t, out.URLs, 1)
	require.True(t, strings.HasPrefix(out.URLs[0], "http://localhost/media/"))
	assert.True(t, strings.HasSuffix(out.URLs[0], ".png"))

	path := strings.TrimPrefix(out.URLs[0], "http://localhost")
	resp, _ = env.do(httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpload_Rejects(t *testing.T) {
	env := newTestEnv(t)
	u := env.user("Ada")

	resp, res := env.do(uploadRequest(t, u.Token, map[string][]byte{"notes.txt": []byte("plain text, not an image")}))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", res.errCode())

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 1<<20)...)
	resp, res = env.do(uploadRequest(t, u.Token, map[string][]byte{"big.png": big}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "FILE_TOO_LARGE", res.errCode())

	resp, _ = env.do(uploadRequest(t, u.Token, map[string][]byte{}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(uploadRequest(t, "", map[string][]byte{"lamp.png": pngHeader}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMedia_BlocksTraversal(t *testing.T) {
	env := newTestEnv(t)
	for _, p := range []string{"/media/..%2f..%2fetc/passwd", "/media/%2e%2e/secret"} {
		resp, _ := env.do(httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
	}
}
