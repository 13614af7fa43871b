package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hand.png")
	if err := os.WriteFile(path, []byte("fake-png-bytes"), 0o644); err != nil {
		t.Fatalf("write test image: %v", err)
	}
	return path
}

func floatPtr(v float64) *float64 { return &v }

func TestPredictSendsMultipartFields(t *testing.T) {
	var gotFields map[string]string
	var gotImage string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotFields = map[string]string{}
		for key, values := range r.MultipartForm.Value {
			gotFields[key] = values[0]
		}
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			gotImage = files[0].Filename
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"BoneAge":"12Y 8M","confidence":0.93}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	prediction, err := client.Predict(context.Background(), writeTestImage(t), PatientAttrs{
		Sex:          1,
		Height:       132.5,
		AgeMonths:    116,
		FatherHeight: floatPtr(175),
	})

	assert.NoError(t, err)
	assert.Equal(t, "12Y 8M", prediction.BoneAge)
	assert.Contains(t, string(prediction.Raw), "confidence")

	assert.Equal(t, "hand.png", gotImage)
	assert.Equal(t, "1", gotFields["sex"])
	assert.Equal(t, "132.5", gotFields["height"])
	assert.Equal(t, "116", gotFields["age_months"])
	assert.Equal(t, "175", gotFields["father_height"])
	_, motherSent := gotFields["mother_height"]
	assert.False(t, motherSent)
}

func TestPredictNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	_, err := client.Predict(context.Background(), writeTestImage(t), PatientAttrs{Sex: 1, Height: 120, AgeMonths: 90})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestPredictUnsuccessfulResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"message":"image unreadable"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	_, err := client.Predict(context.Background(), writeTestImage(t), PatientAttrs{Sex: 1, Height: 120, AgeMonths: 90})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "image unreadable")
}

func TestPredictUnreachableServer(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 0)
	_, err := client.Predict(context.Background(), writeTestImage(t), PatientAttrs{Sex: 1, Height: 120, AgeMonths: 90})
	assert.Error(t, err)
}

func TestPredictMissingImage(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 0)
	_, err := client.Predict(context.Background(), "/no/such/file.png", PatientAttrs{Sex: 1, Height: 120, AgeMonths: 90})
	assert.Error(t, err)
}
