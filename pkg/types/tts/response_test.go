package tts

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioResponseWriteTo(t *testing.T) {
	t.Parallel()

	t.Run("DefaultContentType", func(t *testing.T) {
		t.Parallel()

		recorder := httptest.NewRecorder()

		resp := NewAudioResponseFromBytes(http.StatusOK, "", "speech-02-hd", []byte("hello"))
		require.NoError(t, resp.WriteTo(recorder))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "audio/mpeg", recorder.Header().Get("Content-Type"))
		assert.Equal(t, "no-cache", recorder.Header().Get("Cache-Control"))
		assert.Equal(t, []byte("hello"), recorder.Body.Bytes())
	})

	t.Run("ZeroStatus", func(t *testing.T) {
		t.Parallel()

		recorder := httptest.NewRecorder()

		resp := &AudioResponse{BodyBytes: []byte{0x01}}
		require.NoError(t, resp.WriteTo(recorder))

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("Nil", func(t *testing.T) {
		t.Parallel()

		var resp *AudioResponse

		recorder := httptest.NewRecorder()
		require.NoError(t, resp.WriteTo(recorder))
		assert.Empty(t, recorder.Body.Bytes())
	})
}
