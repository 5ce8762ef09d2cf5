package instance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tillkruss/ruddarr/internal/arr"
	"github.com/tillkruss/ruddarr/internal/domain"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"HTTP://10.0.1.5:8310/api", "http://10.0.1.5:8310"},
		{" https://Radarr.Example.com/ ", "https://radarr.example.com"},
		{"http://host:7878", "http://host:7878"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeURL(tt.in), tt.in)
	}
}

// statusServer answers /api/v3/system/status with handler
func statusServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/api/v3/system/status", handler).Methods(http.MethodGet)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server.URL
}

func appName(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"appName": name, "version": "5.0.0"})
	}
}

func TestValidate(t *testing.T) {
	client := arr.NewClient(arr.Options{}, nil)
	url := statusServer(t, appName("Radarr"))

	inst := domain.NewInstance(domain.InstanceTypeRadarr, "Home", url+"/some/path", "key")
	validated, err := Validate(context.Background(), client, inst)
	require.NoError(t, err)
	assert.Equal(t, url, validated.URL)
	assert.Equal(t, inst.ID, validated.ID)
}

func TestValidateFailures(t *testing.T) {
	client := arr.NewClient(arr.Options{}, nil)

	offline := httptest.NewServer(http.NotFoundHandler())
	offline.Close()

	tests := []struct {
		name       string
		instType   domain.InstanceType
		url        string
		kind       ValidationKind
		suggestion string
	}{
		{
			name:       "bad scheme",
			instType:   domain.InstanceTypeRadarr,
			url:        "ftp://10.0.1.1",
			kind:       URLNotValid,
			suggestion: "Enter a valid URL.",
		},
		{
			name:       "unauthorized",
			instType:   domain.InstanceTypeRadarr,
			url:        statusServer(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) }),
			kind:       BadStatusCode,
			suggestion: "URL returned status 401.",
		},
		{
			name:     "not json",
			instType: domain.InstanceTypeRadarr,
			url:      statusServer(t, func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<html>")) }),
			kind:     BadResponse,
		},
		{
			name:       "wrong app",
			instType:   domain.InstanceTypeRadarr,
			url:        statusServer(t, appName("Sonarr")),
			kind:       BadAppName,
			suggestion: "URL returned a Sonarr instance.",
		},
		{
			name:     "offline",
			instType: domain.InstanceTypeSonarr,
			url:      offline.URL,
			kind:     URLNotReachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := domain.NewInstance(tt.instType, "Test", tt.url, "key")
			_, err := Validate(context.Background(), client, inst)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.kind, validationErr.Kind)
			assert.NotEmpty(t, validationErr.Title())
			if tt.suggestion != "" {
				assert.Equal(t, tt.suggestion, validationErr.RecoverySuggestion())
			}
		})
	}
}

func TestValidateSentinels(t *testing.T) {
	client := arr.NewClient(arr.Options{}, nil)

	_, err := Validate(context.Background(), client, domain.NewInstance(domain.InstanceTypeRadarr, "x", "ftp://h", "k"))
	assert.ErrorIs(t, err, domain.ErrInvalidURL)

	_, err = Validate(context.Background(), client, domain.NewInstance(domain.InstanceTypeSonarr, "x", statusServer(t, appName("Radarr")), "k"))
	assert.ErrorIs(t, err, domain.ErrWrongAppName)

	_, err = Validate(context.Background(), client, domain.Instance{Label: "x"})
	assert.ErrorIs(t, err, ErrEmptyFields)
}
