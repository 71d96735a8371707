package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/PixelVault/pkg/config"
	"github.com/xob0t/PixelVault/pkg/generator"
	"github.com/xob0t/PixelVault/pkg/stegerr"
	"github.com/xob0t/PixelVault/pkg/stego"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg, err := config.Parse([]byte("password_iterations: 10\nkey_iterations: 10\n"))
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)

	h, err := newHandler(cfg, log, t.TempDir())
	require.NoError(t, err)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func coverPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, generator.GenerateToWriter(&buf, "png", generator.Config{Width: 64, Height: 64, Pattern: generator.Noise}))
	return buf.Bytes()
}

type part struct {
	name, filename string
	data           []byte
}

func postForm(t *testing.T, url string, fields map[string]string, files ...part) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.name, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHideThenExtract(t *testing.T) {
	ts := testServer(t)
	cover := coverPNG(t)

	resp := postForm(t, ts.URL+"/api/hide",
		map[string]string{"password": "pw", "format": "bmp"},
		part{"medium", "cover.png", cover},
		part{"secret", "Plan.TXT", []byte("launch at noon")},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/bmp", resp.Header.Get("Content-Type"))
	hidden, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	resp = postForm(t, ts.URL+"/api/extract",
		map[string]string{"password": "pw"},
		part{"medium", "hidden.bmp", hidden},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="secret.txt"`)
	secret, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "launch at noon", string(secret))

	resp = postForm(t, ts.URL+"/api/extract",
		map[string]string{"password": "bad"},
		part{"medium", "hidden.bmp", hidden},
	)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHideErrors(t *testing.T) {
	ts := testServer(t)
	cover := coverPNG(t)

	resp := postForm(t, ts.URL+"/api/hide",
		map[string]string{"password": "pw", "format": "jpg"},
		part{"medium", "cover.png", cover},
		part{"secret", "a.txt", []byte("x")},
	)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp = postForm(t, ts.URL+"/api/hide",
		map[string]string{"password": "pw"},
		part{"medium", "cover.png", cover},
	)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postForm(t, ts.URL+"/api/hide",
		map[string]string{"password": "pw"},
		part{"medium", "cover.png", cover},
		part{"secret", "big.bin", bytes.Repeat([]byte{1}, len(cover))},
	)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp = postForm(t, ts.URL+"/api/hide",
		map[string]string{"password": "pw", "encryption": "rot13"},
		part{"medium", "cover.png", cover},
		part{"secret", "a.txt", []byte("x")},
	)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInspect(t *testing.T) {
	ts := testServer(t)
	cover := coverPNG(t)

	resp := postForm(t, ts.URL+"/api/inspect", nil, part{"medium", "cover.png", cover})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info stego.MediumInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, 64, info.Width)
	assert.Equal(t, len(cover)/8, info.Budget)

	resp = postForm(t, ts.URL+"/api/inspect", nil, part{"medium", "x.gif", []byte("GIF89a....")})
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestCover(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/api/cover", "application/json",
		bytes.NewBufferString(`{"width":32,"height":16,"color":"#102030","pattern":"solid","format":"png"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	info, err := stego.Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, 32, info.Width)

	resp2, err := http.Post(ts.URL+"/api/cover", "application/json", bytes.NewBufferString(`{"color":"nope"}`))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestFontAssets(t *testing.T) {
	ts := testServer(t)

	resp := postForm(t, ts.URL+"/api/upload/font", nil, part{"file", "my font.ttf", []byte("not really a font")})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var up map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&up))
	require.NotEmpty(t, up["id"])

	// A broken font fails the caption.
	body := fmt.Sprintf(`{"width":64,"height":64,"color":"#000000","text":"hi","font":%q}`, up["id"])
	r, err := http.Post(ts.URL+"/api/cover", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/assets/"+up["id"], nil)
	require.NoError(t, err)
	r, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)

	r, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestIndexPage(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "PixelVault")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, statusFor(stegerr.ErrUnauthorized))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(fmt.Errorf("x: %w", stegerr.ErrDecryption)))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(stegerr.ErrOutOfRange))
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("disk full")))
}

func TestCoverRejectsOversize(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Post(ts.URL+"/api/cover", "application/json",
		bytes.NewBufferString(`{"width":100000,"height":100000,"color":"#000000"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRandomID(t *testing.T) {
	a, b := randomID(), randomID()
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
