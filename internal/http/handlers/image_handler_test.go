package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/docentlabs/go-docent-backend/internal/domain"
	"github.com/docentlabs/go-docent-backend/internal/services"
)

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func uploadRequest(t *testing.T, h *Handlers, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.POST("/images", h.UploadImage)
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadImage_Success(t *testing.T) {
	var gotFilename, gotMIME string
	var gotBytes []byte
	h := New(nil, nil, nil, nil, stubImageSvc{save: func(ctx context.Context, src io.Reader, filename, contentType string) (*domain.Image, error) {
		gotFilename, gotMIME = filename, contentType
		gotBytes, _ = io.ReadAll(src)
		return &domain.Image{ID: "img-1", ContentType: contentType, Size: int64(len(gotBytes))}, nil
	}}, nil, nil)

	body, ct := multipartUpload(t, "file", "still.png", "image/png", []byte("png-data"))
	w := uploadRequest(t, h, body, ct)
	wantStatus(t, w, http.StatusCreated)

	if gotFilename != "still.png" || gotMIME != "image/png" || string(gotBytes) != "png-data" {
		t.Fatalf("save args = %q/%q/%q", gotFilename, gotMIME, gotBytes)
	}

	var resp ImageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if resp.ID != "img-1" || resp.Size != int64(len("png-data")) {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestUploadImage_MissingFilePart(t *testing.T) {
	h := New(nil, nil, nil, nil, stubImageSvc{save: func(ctx context.Context, src io.Reader, filename, contentType string) (*domain.Image, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}, nil, nil)

	body, ct := multipartUpload(t, "wrong_field", "x.png", "image/png", []byte("x"))
	w := uploadRequest(t, h, body, ct)
	wantStatus(t, w, http.StatusBadRequest)
}

func TestUploadImage_RejectsNonImage(t *testing.T) {
	h := New(nil, nil, nil, nil, stubImageSvc{save: func(ctx context.Context, src io.Reader, filename, contentType string) (*domain.Image, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}, nil, nil)

	body, ct := multipartUpload(t, "file", "notes.txt", "text/plain", []byte("hello"))
	w := uploadRequest(t, h, body, ct)
	wantStatus(t, w, http.StatusBadRequest)
}

func TestGetImage_SuccessAndNotFound(t *testing.T) {
	h := New(nil, nil, nil, nil, stubImageSvc{get: func(ctx context.Context, id string) (*domain.Image, error) {
		if id == "img-1" {
			return &domain.Image{ID: id, ContentType: "image/png", Size: 10}, nil
		}
		return nil, services.ErrImageNotFound
	}}, nil, nil)

	w := perform(t, http.MethodGet, "/images/img-1", "", h.GetImage)
	wantStatus(t, w, http.StatusOK)

	w = perform(t, http.MethodGet, "/images/missing", "", h.GetImage)
	wantStatus(t, w, http.StatusNotFound)
	if e := decodeErr(t, w); e.Code != ErrCodeNotFound {
		t.Fatalf("code = %q", e.Code)
	}
}
