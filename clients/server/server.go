// Package server provides the PixelVault web UI and HTTP API.
package server

import (
	"bytes"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/tink-crypto/tink-go/v2/subtle/random"

	"github.com/xob0t/PixelVault/pkg/config"
	"github.com/xob0t/PixelVault/pkg/crypt"
	"github.com/xob0t/PixelVault/pkg/generator"
	"github.com/xob0t/PixelVault/pkg/medium"
	"github.com/xob0t/PixelVault/pkg/stegerr"
	"github.com/xob0t/PixelVault/pkg/stego"
)

//go:embed web/*
var webContent embed.FS

// ── Asset Manager ──

// asset is an uploaded caption font.
type asset struct {
	Name string
	Data []byte
}

type assetManager struct {
	mu     sync.RWMutex
	assets map[string]*asset
}

func newAssetManager() *assetManager {
	return &assetManager{assets: make(map[string]*asset)}
}

func (am *assetManager) add(name string, data []byte) string {
	id := randomID()
	am.mu.Lock()
	am.assets[id] = &asset{Name: name, Data: data}
	am.mu.Unlock()
	return id
}

func (am *assetManager) get(id string) (*asset, bool) {
	am.mu.RLock()
	a, ok := am.assets[id]
	am.mu.RUnlock()
	return a, ok
}

func (am *assetManager) listAll() []map[string]interface{} {
	am.mu.RLock()
	defer am.mu.RUnlock()
	result := make([]map[string]interface{}, 0, len(am.assets))
	for id, a := range am.assets {
		result = append(result, map[string]interface{}{
			"id":   id,
			"name": a.Name,
			"size": humanize.Bytes(uint64(len(a.Data))),
		})
	}
	return result
}

func (am *assetManager) remove(id string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	if _, ok := am.assets[id]; !ok {
		return false
	}
	delete(am.assets, id)
	return true
}

func randomID() string {
	return hex.EncodeToString(random.GetRandomBytes(8))
}

// ── Server ──

type srv struct {
	cfg       *config.Config
	log       *logrus.Logger
	assets    *assetManager
	tmpDir    string
	maxUpload int64

	mu     sync.Mutex
	codecs map[crypt.Mode]*stego.Codec
}

// RunServe starts the web UI server.
func RunServe(args []string) error {
	fset := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		port       int
		configPath string
		noBrowser  bool
	)
	fset.IntVar(&port, "port", 0, "Port to listen on (default: from config, 8080)")
	fset.IntVar(&port, "p", 0, "Port to listen on")
	fset.StringVar(&configPath, "config", "", "Config file (default: $"+config.EnvConfig+")")
	fset.BoolVar(&noBrowser, "no-browser", false, "Do not open a browser")
	if err := fset.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	log := cfg.NewLogger(os.Stderr)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	tmpDir, err := os.MkdirTemp("", "pixelvault-serve-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	handler, err := newHandler(cfg, log, tmpDir)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.WithField("url", "http://localhost"+addr).Info("PixelVault UI listening")

	if !noBrowser {
		go openBrowser("http://localhost" + addr)
	}

	return http.ListenAndServe(addr, handler)
}

// newHandler builds the API and static file routes.
func newHandler(cfg *config.Config, log *logrus.Logger, tmpDir string) (http.Handler, error) {
	s := &srv{
		cfg:       cfg,
		log:       log,
		assets:    newAssetManager(),
		tmpDir:    tmpDir,
		maxUpload: cfg.Server.MaxUploadMB << 20,
		codecs:    make(map[crypt.Mode]*stego.Codec),
	}

	webFS, err := fs.Sub(webContent, "web")
	if err != nil {
		return nil, fmt.Errorf("embed web: %w", err)
	}

	mux := http.NewServeMux()

	// API routes.
	mux.HandleFunc("POST /api/hide", s.handleHide)
	mux.HandleFunc("POST /api/extract", s.handleExtract)
	mux.HandleFunc("POST /api/inspect", s.handleInspect)
	mux.HandleFunc("POST /api/cover", s.handleCover)
	mux.HandleFunc("POST /api/upload/font", s.handleUploadFont)
	mux.HandleFunc("GET /api/assets", s.handleListAssets)
	mux.HandleFunc("DELETE /api/assets/{id}", s.handleDeleteAsset)

	// Static files.
	mux.Handle("/", http.FileServer(http.FS(webFS)))
	return mux, nil
}

// codec returns the cached codec for the requested mode, falling back to the
// configured one.
func (s *srv) codec(requested string) (*stego.Codec, error) {
	if requested == "" {
		requested = s.cfg.Encryption
	}
	mode, err := crypt.ParseMode(requested)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.codecs[mode]; ok {
		return c, nil
	}
	opts, err := s.cfg.Options(s.log)
	if err != nil {
		return nil, err
	}
	opts.Encryption = mode
	c, err := stego.NewCodec(opts)
	if err != nil {
		return nil, err
	}
	s.codecs[mode] = c
	return c, nil
}

// ── Hide / Extract ──

func (s *srv) handleHide(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		writeError(w, err)
		return
	}
	carrier, _, err := formFile(r, "medium")
	if err != nil {
		writeError(w, err)
		return
	}
	secret, secretName, err := formFile(r, "secret")
	if err != nil {
		writeError(w, err)
		return
	}

	format := r.FormValue("format")
	if format == "" {
		format = s.cfg.OutputFormat
	}
	outFmt, err := medium.ParseFormat(format)
	if err != nil {
		writeError(w, err)
		return
	}
	codec, err := s.codec(r.FormValue("encryption"))
	if err != nil {
		writeError(w, err)
		return
	}

	out, err := codec.Hide(carrier, secret, stego.ExtensionOf(secretName), r.FormValue("password"), string(outFmt))
	if err != nil {
		s.log.WithError(err).Warn("hide failed")
		writeError(w, err)
		return
	}
	s.log.WithFields(logrus.Fields{"secret": secretName, "size": humanize.Bytes(uint64(len(secret)))}).Info("secret hidden")

	w.Header().Set("Content-Type", outFmt.MimeType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="hidden.%s"`, outFmt))
	w.Write(out)
}

func (s *srv) handleExtract(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		writeError(w, err)
		return
	}
	carrier, _, err := formFile(r, "medium")
	if err != nil {
		writeError(w, err)
		return
	}
	codec, err := s.codec(r.FormValue("encryption"))
	if err != nil {
		writeError(w, err)
		return
	}

	secret, err := codec.Extract(carrier, r.FormValue("password"))
	if err != nil {
		s.log.WithError(err).Warn("extract failed")
		writeError(w, err)
		return
	}
	s.log.WithField("extension", secret.Extension).Info("secret extracted")

	filename := "secret"
	if secret.Extension != "" {
		filename += "." + secret.Extension
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(filename)))
	w.Write(secret.Data)
}

func (s *srv) handleInspect(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		writeError(w, err)
		return
	}
	carrier, _, err := formFile(r, "medium")
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := stego.Inspect(carrier)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// ── Cover ──

func (s *srv) handleCover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		generator.Config
		Format string `json:"format"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "decode request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Format == "" {
		req.Format = s.cfg.OutputFormat
	}
	outFmt, err := medium.ParseFormat(req.Format)
	if err != nil {
		writeError(w, err)
		return
	}

	cfg := req.Config
	cfg.Font = s.resolveAssetPath(cfg.Font)
	var buf bytes.Buffer
	if err := generator.GenerateToWriter(&buf, string(outFmt), cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", outFmt.MimeType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="cover.%s"`, outFmt))
	w.Write(buf.Bytes())
}

// ── Upload ──

func (s *srv) handleUploadFont(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		writeError(w, err)
		return
	}
	data, name, err := formFile(r, "file")
	if err != nil {
		writeError(w, err)
		return
	}
	id := s.assets.add(name, data)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"id":   id,
		"name": name,
	})
}

func (s *srv) handleListAssets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.assets.listAll())
}

func (s *srv) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.assets.remove(id) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted", "id": id})
}

// ── Helpers ──

var errMissingFile = errors.New("missing form file")

func (s *srv) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return fmt.Errorf("%w: %v", stegerr.ErrInvalidInput, err)
	}
	return nil
}

func formFile(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", stegerr.ErrInvalidInput, field, errMissingFile)
	}
	defer file.Close()
	return readPart(file, header)
}

func readPart(file multipart.File, header *multipart.FileHeader) ([]byte, string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", header.Filename, err)
	}
	return data, header.Filename, nil
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch stegerr.KindOf(err) {
	case stegerr.ErrFormat:
		return http.StatusUnsupportedMediaType
	case stegerr.ErrCapacity:
		return http.StatusRequestEntityTooLarge
	case stegerr.ErrUnauthorized:
		return http.StatusUnauthorized
	case stegerr.ErrInvalidInput:
		return http.StatusBadRequest
	case stegerr.ErrDecryption, stegerr.ErrOutOfRange:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

// resolveAssetPath writes an uploaded font to the temp dir and returns its
// path. Values that are not asset IDs are dropped so clients cannot name
// server files.
func (s *srv) resolveAssetPath(id string) string {
	if id == "" {
		return ""
	}
	a, ok := s.assets.get(id)
	if !ok {
		return ""
	}
	tmpPath := filepath.Join(s.tmpDir, id+"_"+sanitizeFilename(a.Name))
	if err := os.WriteFile(tmpPath, a.Data, 0o644); err != nil {
		s.log.WithError(err).Warn("write font asset")
		return ""
	}
	return tmpPath
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, `"`, "_")
	return name
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Start()
}
