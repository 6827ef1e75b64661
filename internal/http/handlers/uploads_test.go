package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harborview/homehub/internal/http/handlers"
)

type fakePresigner struct {
	presignFn func(ctx context.Context, contentType string) (string, string, string, error)
}

func (f *fakePresigner) PresignUpload(ctx context.Context, contentType string) (string, string, string, error) {
	if f.presignFn != nil {
		return f.presignFn(ctx, contentType)
	}

	return "listings/k", "https://bucket.example.com/put", "https://cdn.example.com/k", nil
}

func TestPresignHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		presignSetUp   func(*fakePresigner)
		wantStatusCode int
	}{
		{
			name:           "success",
			body:           `{"contentType": "image/jpeg"}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_content_type",
			body:           `{}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "non_image_rejected",
			body:           `{"contentType": "application/zip"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "storage_error",
			body: `{"contentType": "image/png"}`,
			presignSetUp: func(f *fakePresigner) {
				f.presignFn = func(ctx context.Context, contentType string) (string, string, string, error) {
					return "", "", "", errors.New("s3 down")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			presigner := &fakePresigner{}

			if tt.presignSetUp != nil {
				tt.presignSetUp(presigner)
			}

			h := handlers.NewUploadsHandler(presigner)

			r := setupRouter(http.MethodPost, "/api/upload/presign", h.Presign)

			req := httptest.NewRequest(http.MethodPost, "/api/upload/presign", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusOK {
				return
			}

			var resp struct {
				Key       string `json:"key"`
				UploadURL string `json:"uploadUrl"`
				PublicURL string `json:"publicUrl"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Key == "" || resp.UploadURL == "" || resp.PublicURL == "" {
				t.Fatalf("incomplete presign response: %+v", resp)
			}
		})
	}
}
