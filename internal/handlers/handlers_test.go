package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/digit-sketchpad/internal/features"
	"github.com/Brownie44l1/digit-sketchpad/internal/predict"
	"github.com/Brownie44l1/digit-sketchpad/internal/sketchpad"
	"github.com/Brownie44l1/digit-sketchpad/internal/view"
)

type stubClassifier struct {
	mu     sync.Mutex
	result *predict.Result
	err    error
	grid   features.Grid
}

func (s *stubClassifier) Predict(_ context.Context, grid features.Grid) (*predict.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = grid
	return s.result, s.err
}

func (s *stubClassifier) lastGrid() features.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}

type stubHealth struct{ err error }

func (s stubHealth) Health(context.Context) error { return s.err }

func newServer(t *testing.T, c predict.Classifier, opts ...Option) *httptest.Server {
	t.Helper()
	h := NewHandler(sketchpad.New(c, zerolog.Nop()), "http", opts...)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func decodeState(t *testing.T, resp *http.Response) view.State {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var s view.State
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return s
}

func post(t *testing.T, url, contentType string, body io.Reader) *http.Response {
	t.Helper()
	resp, err := http.Post(url, contentType, body)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestDrawPredictClear(t *testing.T) {
	c := &stubClassifier{result: &predict.Result{
		Prediction:    7,
		Probabilities: []float64{0, 0, 0, 0, 0, 0, 0, 1, 0, 0},
	}}
	srv := newServer(t, c)

	events := `[{"type":"down","x":120,"y":120,"left":100,"top":100},{"type":"up"}]`
	resp := post(t, srv.URL+"/api/pointer", "application/json", strings.NewReader(events))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("pointer status = %d", resp.StatusCode)
	}

	state := decodeState(t, post(t, srv.URL+"/api/predict", "", nil))
	if !state.HasPrediction || state.Prediction != 7 {
		t.Errorf("state = %+v", state)
	}
	if c.lastGrid()[0] == 0 {
		t.Error("classifier did not see the stroke")
	}

	resp, err := http.Get(srv.URL + "/api/view")
	if err != nil {
		t.Fatal(err)
	}
	html, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(html), "100.0%") {
		t.Errorf("view missing 100.0%%:\n%s", html)
	}

	state = decodeState(t, post(t, srv.URL+"/api/clear", "", nil))
	if state.HasPrediction || len(state.Probabilities) != predict.NumClasses {
		t.Errorf("state after clear = %+v", state)
	}
}

func TestPredictErrorInState(t *testing.T) {
	c := &stubClassifier{err: &predict.APIError{StatusCode: 400, Message: "bad input"}}
	srv := newServer(t, c)

	state := decodeState(t, post(t, srv.URL+"/api/predict", "", nil))
	if state.Error != "bad input" || state.HasPrediction {
		t.Errorf("state = %+v", state)
	}
}

func TestPredictAppliesPendingEvents(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantInk    bool
	}{
		{
			name:       "stroke in body",
			body:       `[{"type":"down","x":120,"y":120,"left":100,"top":100},{"type":"up"}]`,
			wantStatus: http.StatusOK,
			wantInk:    true,
		},
		{
			name:       "empty batch",
			body:       `[]`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "no body",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown event",
			body:       `[{"type":"down","x":120,"y":120},{"type":"wiggle"}]`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not json",
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &stubClassifier{result: &predict.Result{
				Prediction:    2,
				Probabilities: []float64{0, 0, 1, 0, 0, 0, 0, 0, 0, 0},
			}}
			srv := newServer(t, c)

			resp := post(t, srv.URL+"/api/predict", "application/json", strings.NewReader(tt.body))
			if resp.StatusCode != tt.wantStatus {
				resp.Body.Close()
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				resp.Body.Close()
				state := decodeState(t, mustGet(t, srv.URL+"/api/state"))
				if state.Pending || state.HasPrediction {
					t.Errorf("rejected request changed the state: %+v", state)
				}
				return
			}

			state := decodeState(t, resp)
			if state.Prediction != 2 {
				t.Errorf("state = %+v", state)
			}
			if inked := c.lastGrid()[0] > 0; inked != tt.wantInk {
				t.Errorf("classifier saw ink = %v, want %v", inked, tt.wantInk)
			}
		})
	}
}

func mustGet(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

func TestPointerRejectsBadInput(t *testing.T) {
	srv := newServer(t, &stubClassifier{})

	for _, body := range []string{`{"type":"down"}`, `[{"type":"wiggle"}]`, `not json`} {
		resp := post(t, srv.URL+"/api/pointer", "application/json", strings.NewReader(body))
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestPredictFromImage(t *testing.T) {
	c := &stubClassifier{result: &predict.Result{
		Prediction:    1,
		Probabilities: []float64{0, 1, 0, 0, 0, 0, 0, 0, 0, 0},
	}}
	srv := newServer(t, c)

	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatal(err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("image", "digit.png")
	part.Write(pngBuf.Bytes())
	mw.Close()

	state := decodeState(t, post(t, srv.URL+"/api/predict/image", mw.FormDataContentType(), &body))
	if state.Prediction != 1 {
		t.Errorf("state = %+v", state)
	}
	for i, v := range c.lastGrid() {
		if v < features.MaxValue-0.5 {
			t.Errorf("cell %d = %v, want near %v", i, v, features.MaxValue)
			break
		}
	}
}

func TestPredictFromImageMissingFile(t *testing.T) {
	srv := newServer(t, &stubClassifier{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("invert", "1")
	mw.Close()

	resp := post(t, srv.URL+"/api/predict/image", mw.FormDataContentType(), &body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		upstream string
	}{
		{"no upstream", nil, ""},
		{"upstream ok", []Option{WithUpstream(stubHealth{})}, "ok"},
		{"upstream down", []Option{WithUpstream(stubHealth{err: errors.New("refused")})}, "unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, &stubClassifier{}, tt.opts...)
			resp, err := http.Get(srv.URL + "/health")
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			var h healthResponse
			if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
				t.Fatal(err)
			}
			if h.Status != "healthy" || h.Backend != "http" || h.Upstream != tt.upstream {
				t.Errorf("health = %+v", h)
			}
		})
	}
}

func TestIndexAndRaster(t *testing.T) {
	srv := newServer(t, &stubClassifier{})

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{`width="280"`, "Predicted digit", "/api/predict"} {
		if !strings.Contains(string(page), want) {
			t.Errorf("page missing %q", want)
		}
	}

	resp, err = http.Get(srv.URL + "/api/raster.png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode raster: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 280 || b.Dy() != 280 {
		t.Errorf("raster bounds = %v", b)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t, &stubClassifier{})

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/predict", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight status = %d, headers = %v", resp.StatusCode, resp.Header)
	}
}
