package messages

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOrigin(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://Example.com", want: "https://example.com"},
		{in: "https://example.com:443", want: "https://example.com"},
		{in: "http://example.com:80/", want: "http://example.com"},
		{in: "http://localhost:5173", want: "http://localhost:5173"},
		{in: "null", wantErr: true},
		{in: "", wantErr: true},
		{in: "ftp://example.com", wantErr: true},
		{in: "https://example.com/path", wantErr: true},
		{in: "https://user@example.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeOrigin(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewValidatorRejectsBadAllowList(t *testing.T) {
	_, err := NewValidator([]string{"https://ok.example", "*"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	v, err := NewValidator([]string{"https://host.example"})
	require.NoError(t, err)

	img := base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'})
	tests := []struct {
		name    string
		origin  string
		payload string
		wantErr error
	}{
		{"text", "https://host.example", `{"type":"content","text":"hi"}`, nil},
		{"image", "https://HOST.example:443", `{"type":"content","image":"` + img + `"}`, nil},
		{"foreign origin", "https://evil.example", `{"type":"content","text":"hi"}`, ErrOriginNotAllowed},
		{"missing origin", "", `{"type":"content","text":"hi"}`, ErrOriginNotAllowed},
		{"not json", "https://host.example", `hello`, ErrMalformedPayload},
		{"wrong type", "https://host.example", `{"type":"resize","text":"hi"}`, ErrMalformedPayload},
		{"both fields", "https://host.example", `{"type":"content","text":"a","image":"` + img + `"}`, ErrMalformedPayload},
		{"neither field", "https://host.example", `{"type":"content"}`, ErrMalformedPayload},
		{"unknown field", "https://host.example", `{"type":"content","text":"a","html":"<b>"}`, ErrMalformedPayload},
		{"bad base64", "https://host.example", `{"type":"content","image":"!!"}`, ErrMalformedPayload},
		{"bad font size", "https://host.example", `{"type":"content","text":"a","fontSize":-3}`, ErrMalformedPayload},
		{"trailing data", "https://host.example", `{"type":"content","text":"a"} {}`, ErrMalformedPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(NewMessage(tt.origin, []byte(tt.payload)))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestParsePayloadFields(t *testing.T) {
	r, err := ParsePayload([]byte(`{"type":"content","text":"","fontSize":48,"foreground":"#fff"}`))
	require.NoError(t, err)
	assert.True(t, r.HasText)
	assert.Equal(t, "", r.Text)
	assert.Equal(t, 48.0, r.FontSize)
	assert.Equal(t, "#fff", r.Foreground)
}
