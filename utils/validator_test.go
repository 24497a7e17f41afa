package utils

import (
	"testing"
)

func TestValidateTargetURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{
			name:    "Valid HTTP URL",
			url:     "http://example.com",
			wantErr: nil,
		},
		{
			name:    "Valid HTTPS URL",
			url:     "https://www.example.com/path?query=value",
			wantErr: nil,
		},
		{
			name:    "Empty URL",
			url:     "",
			wantErr: ErrEmptyURL,
		},
		{
			name:    "Invalid URL format",
			url:     "not a url",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "Invalid scheme - FTP",
			url:     "ftp://example.com",
			wantErr: ErrInvalidScheme,
		},
		{
			name:    "Invalid scheme - JavaScript",
			url:     "javascript:alert('xss')",
			wantErr: ErrInvalidScheme,
		},
		{
			name:    "Localhost - hostname",
			url:     "http://localhost:8080",
			wantErr: ErrLocalhostNotAllowed,
		},
		{
			name:    "Localhost - 127.0.0.1",
			url:     "http://127.0.0.1",
			wantErr: ErrLocalhostNotAllowed,
		},
		{
			name:    "Localhost - IPv6 loopback",
			url:     "http://[::1]",
			wantErr: ErrLocalhostNotAllowed,
		},
		{
			name:    "Private IP - 10.x.x.x",
			url:     "http://10.0.0.1",
			wantErr: ErrPrivateIPNotAllowed,
		},
		{
			name:    "Private IP - 192.168.x.x",
			url:     "http://192.168.1.1",
			wantErr: ErrPrivateIPNotAllowed,
		},
		{
			name:    "Private IP - 172.16-31.x.x",
			url:     "http://172.16.0.1",
			wantErr: ErrPrivateIPNotAllowed,
		},
		{
			name:    "Link-local IP",
			url:     "http://169.254.1.1",
			wantErr: ErrPrivateIPNotAllowed,
		},
		{
			name:    "Public IP is allowed",
			url:     "http://203.0.113.7",
			wantErr: nil,
		},
		{
			name:    "Private hostname is not resolved",
			url:     "http://intranet.corp",
			wantErr: nil,
		},
		{
			name:    "Valid URL with port",
			url:     "https://example.com:8443/hook",
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTargetURL(tt.url)
			if err != tt.wantErr {
				t.Errorf("ValidateTargetURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
