package remote

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxsift/voxsift-core/internal/audio"
	"github.com/voxsift/voxsift-core/internal/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.RemoteConfig{
		BaseURL:          server.URL,
		ProbeTimeoutMS:   500,
		UploadTimeoutMS:  2000,
		ProcessTimeoutMS: 2000,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestReachableHealthyServer(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	assert.True(t, c.Reachable(context.Background()))
}

func TestReachableErrorStatus(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	assert.False(t, c.Reachable(context.Background()))
}

func TestReachableConnectionRefused(t *testing.T) {
	c := NewClient(config.RemoteConfig{
		BaseURL:        "http://127.0.0.1:1",
		ProbeTimeoutMS: 200,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.False(t, c.Reachable(context.Background()))
}

func TestUploadSendsMultipartAudio(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/upload", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "meeting.wav", header.Filename)

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte("RIFF payload"), data)

		json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"filename": "20240101_120000_meeting.wav",
			"filepath": "/uploads/20240101_120000_meeting.wav",
			"size":     len(data),
		})
	}))

	src, err := audio.NewUploaded("meeting.wav", "audio/wav", []byte("RIFF payload"))
	require.NoError(t, err)

	ref, err := c.Upload(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "20240101_120000_meeting.wav", ref)
}

func TestUploadRejectedByServer(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "unsupported file type"})
	}))

	src, err := audio.NewUploaded("meeting.wav", "audio/wav", []byte("x"))
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), src)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestUploadResponseWithoutFilename(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))

	src, err := audio.NewUploaded("meeting.wav", "audio/wav", []byte("x"))
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), src)
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestProcessRoundTrip(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/process", r.URL.Path)

		var req ProcessRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "20240101_meeting.wav", req.AudioFile)
		assert.Equal(t, []string{"小狼", "开心"}, req.SensitiveWords)
		assert.Equal(t, "DFA", req.FilterMethod)

		json.NewEncoder(w).Encode(ProcessResponse{
			Success:      true,
			AudioFile:    "meeting.wav",
			Language:     "zh",
			FilteredText: "今天***来了",
			Segments: []SegmentPayload{
				{Start: 0, End: 2.5, Original: "今天小狼来了", Filtered: "今天***来了"},
			},
			Stats:      StatsPayload{SegmentCount: 1, SensitiveWordCount: 1},
			ResultFile: "result_20240101.json",
		})
	}))

	resp, err := c.Process(context.Background(), ProcessRequest{
		AudioFile:      "20240101_meeting.wav",
		SensitiveWords: []string{"小狼", "开心"},
		FilterMethod:   "DFA",
	})
	require.NoError(t, err)

	assert.Equal(t, "今天***来了", resp.FilteredText)
	assert.Equal(t, "result_20240101.json", resp.ResultFile)
	assert.Equal(t, 1, resp.Stats.SensitiveWordCount)
}

func TestProcessServerErrorParsesMessage(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "model not loaded"})
	}))

	_, err := c.Process(context.Background(), ProcessRequest{AudioFile: "x.wav"})
	require.Error(t, err)

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusInternalServerError, serverErr.StatusCode)
	assert.Equal(t, "model not loaded", serverErr.Message)
}

func TestProcessServerErrorPlainBody(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusBadGateway)
	}))

	_, err := c.Process(context.Background(), ProcessRequest{AudioFile: "x.wav"})

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "gateway timeout", serverErr.Message)
}

func TestFetchTextSwapsExtension(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/download/txt/result_20240101.txt", r.URL.Path)
		io.WriteString(w, "exported document")
	}))

	data, err := c.FetchText(context.Background(), "result_20240101.json")
	require.NoError(t, err)
	assert.Equal(t, "exported document", string(data))
}

func TestFetchTextMissingArtifact(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.FetchText(context.Background(), "missing.json")

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusNotFound, serverErr.StatusCode)
}
