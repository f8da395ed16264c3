package pkg

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteResponseBytes(t *testing.T) {
	w := httptest.NewRecorder()

	testJson := `{"key":"val"}`
	WriteResponseBytes(w, ContentType.JSON, []byte(testJson), http.StatusCreated)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, ContentType.JSON, w.Header().Get("Content-Type"))
	assert.Equal(t, testJson, w.Body.String())
}

func TestWriteJSONResponseOK(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONResponseOK(w, `{"ok":true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType.JSON, w.Header().Get("Content-Type"))
	assert.Equal(t, `{"ok":true}`, w.Body.String())
}

func TestWriteTextResponseOK(t *testing.T) {
	w := httptest.NewRecorder()
	WriteTextResponseOK(w, "I'm OK, thanks ;)")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType.Text, w.Header().Get("Content-Type"))
	assert.Equal(t, "I'm OK, thanks ;)", w.Body.String())
}
