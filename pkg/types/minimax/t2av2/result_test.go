package t2av2

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/nekomeowww/xo"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speechgate.dev/pkg/object"
)

func TestClassifyResponse(t *testing.T) {
	t.Parallel()

	t.Run("TransportFailureWithJSONMessage", func(t *testing.T) {
		t.Parallel()

		result := ClassifyResponse(http.StatusInternalServerError, []byte(`{"base_resp":{"message":"quota exceeded"}}`))

		failure, ok := result.(TransportFailure)
		require.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, failure.StatusCode)
		assert.Equal(t, "quota exceeded", failure.Message)
	})

	t.Run("TransportFailureWithRawBody", func(t *testing.T) {
		t.Parallel()

		result := ClassifyResponse(http.StatusBadGateway, []byte(`<html>bad gateway</html>`))

		failure, ok := result.(TransportFailure)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadGateway, failure.StatusCode)
		assert.Equal(t, "<html>bad gateway</html>", failure.Message)
	})

	t.Run("TransportFailureWithJSONWithoutMessage", func(t *testing.T) {
		t.Parallel()

		result := ClassifyResponse(http.StatusUnauthorized, []byte(`{"base_resp":{"status_code":1004}}`))

		failure, ok := result.(TransportFailure)
		require.True(t, ok)
		assert.Equal(t, `{"base_resp":{"status_code":1004}}`, failure.Message)
	})

	t.Run("BackendFailure", func(t *testing.T) {
		t.Parallel()

		result := ClassifyResponse(http.StatusOK, []byte(`{"trace_id":"t-1","base_resp":{"status_code":1004,"status_msg":"authorization not match"}}`))

		failure, ok := result.(BackendFailure)
		require.True(t, ok)
		require.NotNil(t, failure.StatusCode)
		assert.Equal(t, 1004, *failure.StatusCode)
		assert.Equal(t, "authorization not match", failure.Message)
		assert.Equal(t, "t-1", failure.TraceID)
	})

	t.Run("TransportFailureMessageKeepsLiteralText", func(t *testing.T) {
		t.Parallel()

		type testCase struct {
			name     string
			body     string
			expected string
		}

		testCases := []testCase{
			{name: "Null", body: `{"base_resp":{"message":"null"}}`, expected: "null"},
			{name: "Nil", body: `{"base_resp":{"message":"<nil>"}}`, expected: "<nil>"},
			{name: "Empty", body: `{"base_resp":{"message":""}}`, expected: ""},
			{name: "JSONNull", body: `{"base_resp":{"message":null}}`, expected: `{"base_resp":{"message":null}}`},
			{name: "Number", body: `{"base_resp":{"message":0}}`, expected: `{"base_resp":{"message":0}}`},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				result := ClassifyResponse(http.StatusTooManyRequests, []byte(tc.body))

				failure, ok := result.(TransportFailure)
				require.True(t, ok)
				assert.Equal(t, tc.expected, failure.Message)
			})
		}
	})

	t.Run("BackendFailureStatusMessage", func(t *testing.T) {
		t.Parallel()

		type testCase struct {
			name     string
			body     string
			expected string
		}

		testCases := []testCase{
			{name: "Absent", body: `{"base_resp":{"status_code":2013}}`, expected: object.MessageUnknownError},
			{name: "JSONNull", body: `{"base_resp":{"status_code":2013,"status_msg":null}}`, expected: object.MessageUnknownError},
			{name: "Empty", body: `{"base_resp":{"status_code":2013,"status_msg":""}}`, expected: ""},
			{name: "LiteralNull", body: `{"base_resp":{"status_code":2013,"status_msg":"null"}}`, expected: "null"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				result := ClassifyResponse(http.StatusOK, []byte(tc.body))

				failure, ok := result.(BackendFailure)
				require.True(t, ok)
				require.NotNil(t, failure.StatusCode)
				assert.Equal(t, 2013, *failure.StatusCode)
				assert.Equal(t, tc.expected, failure.Message)
			})
		}
	})

	t.Run("BackendFailureWithoutStatusCode", func(t *testing.T) {
		t.Parallel()

		result := ClassifyResponse(http.StatusOK, []byte(`{"base_resp":{}}`))

		failure, ok := result.(BackendFailure)
		require.True(t, ok)
		assert.Nil(t, failure.StatusCode)
		assert.Equal(t, object.MessageUnknownError, failure.Message)
	})

	t.Run("SuccessWithoutAudio", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{
			`{"base_resp":{"status_code":0,"status_msg":"success"}}`,
			`{"data":{"audio":""},"base_resp":{"status_code":0}}`,
			`{"data":null}`,
		} {
			result := ClassifyResponse(http.StatusOK, []byte(body))

			success, ok := result.(Success)
			require.True(t, ok, body)
			assert.Empty(t, success.Audio, body)
		}
	})

	t.Run("SuccessWithAudio", func(t *testing.T) {
		t.Parallel()

		result := ClassifyResponse(http.StatusOK, []byte(`{"data":{"audio":"68656c6c6f","status":2},"trace_id":"t-2","base_resp":{"status_code":0,"status_msg":"success"}}`))

		success, ok := result.(Success)
		require.True(t, ok)
		assert.Equal(t, []byte("hello"), success.Audio)
		assert.Equal(t, "t-2", success.TraceID)
	})

	t.Run("SuccessWithoutBaseResp", func(t *testing.T) {
		t.Parallel()

		result := ClassifyResponse(http.StatusOK, []byte(`{"data":{"audio":"68656c6c6f"}}`))

		success, ok := result.(Success)
		require.True(t, ok)
		assert.Equal(t, []byte("hello"), success.Audio)
	})

	t.Run("SuccessWithWhitespaceInAudio", func(t *testing.T) {
		t.Parallel()

		result := ClassifyResponse(http.StatusOK, []byte(`{"data":{"audio":" 68 65 6c\n6c\t6f\r\n"},"base_resp":{"status_code":0}}`))

		success, ok := result.(Success)
		require.True(t, ok)
		assert.Equal(t, []byte("hello"), success.Audio)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		t.Parallel()

		result := ClassifyResponse(http.StatusOK, []byte(`not json`))

		failure, ok := result.(TransportFailure)
		require.True(t, ok)
		assert.Equal(t, http.StatusOK, failure.StatusCode)
		require.Error(t, failure.Cause)
	})

	t.Run("InvalidHex", func(t *testing.T) {
		t.Parallel()

		result := ClassifyResponse(http.StatusOK, []byte(`{"data":{"audio":"zz"},"base_resp":{"status_code":0}}`))

		failure, ok := result.(TransportFailure)
		require.True(t, ok)
		assert.Equal(t, http.StatusOK, failure.StatusCode)
		assert.Contains(t, failure.Message, "failed to decode audio hex string")
	})
}

func TestToAudioResponse(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()

		resp, err := ToAudioResponse(Success{Audio: []byte("hello"), TraceID: "t-1"}, "speech-02-hd")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.GetStatus())
		assert.Equal(t, "audio/mpeg", resp.ContentType)
		assert.Equal(t, "speech-02-hd", resp.Model)
		assert.Equal(t, "t-1", resp.RequestID)
		assert.Equal(t, []byte("hello"), resp.BodyBytes)
	})

	t.Run("MissingAudio", func(t *testing.T) {
		t.Parallel()

		_, err := ToAudioResponse(Success{}, "speech-02-hd")
		require.Error(t, err)
		assert.Equal(t, object.SpeechErrorKindMissingAudio, object.AsSpeechError(err).GetKind())
		assert.Equal(t, http.StatusInternalServerError, object.AsSpeechError(err).GetStatus())
	})

	t.Run("BackendFailure", func(t *testing.T) {
		t.Parallel()

		_, err := ToAudioResponse(BackendFailure{StatusCode: lo.ToPtr(2013), Message: "invalid params"}, "speech-02-hd")
		require.Error(t, err)

		bs, marshalErr := json.Marshal(object.AsSpeechError(err))
		require.NoError(t, marshalErr)
		assert.JSONEq(t, `{"error":"invalid params","status_code":2013,"status_msg":"invalid params"}`, string(bs))
		assert.Equal(t, http.StatusInternalServerError, object.AsSpeechError(err).GetStatus())
	})

	t.Run("TransportFailure", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection refused")

		_, err := ToAudioResponse(NewTransportFailure(http.StatusBadGateway, cause), "speech-02-hd")
		require.Error(t, err)
		require.ErrorIs(t, err, cause)

		bs, marshalErr := json.Marshal(object.AsSpeechError(err))
		require.NoError(t, marshalErr)
		assert.JSONEq(t, `{"error":"调用 Minimax 接口失败","status_code":502,"message":"connection refused"}`, string(bs))
	})

	t.Run("Unknown", func(t *testing.T) {
		t.Parallel()

		_, err := ToAudioResponse(nil, "speech-02-hd")
		require.Error(t, err)
		assert.Equal(t, object.SpeechErrorKindInternalError, object.AsSpeechError(err).GetKind())
	})
}

func TestClassifyResponseFixtures(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()

		body, err := os.ReadFile(xo.RelativePathOf("testdata/t2a_v2_success.json"))
		require.NoError(t, err)

		result, ok := ClassifyResponse(http.StatusOK, body).(Success)
		require.True(t, ok)

		assert.Equal(t, "01b8bf9bb7433cc75c18eee6cfa8fe21", result.TraceID)
		assert.Len(t, result.Audio, 14)
		assert.Equal(t, []byte("ID3"), result.Audio[:3])
	})

	t.Run("InvalidAPIKey", func(t *testing.T) {
		t.Parallel()

		body, err := os.ReadFile(xo.RelativePathOf("testdata/t2a_v2_invalid_api_key.json"))
		require.NoError(t, err)

		result, ok := ClassifyResponse(http.StatusOK, body).(BackendFailure)
		require.True(t, ok)

		assert.Equal(t, 2049, lo.FromPtr(result.StatusCode))
		assert.Equal(t, "invalid api key", result.Message)
		assert.Equal(t, "04a1f0c8d7e3b2a19f8e7d6c5b4a3928", result.TraceID)
	})
}
