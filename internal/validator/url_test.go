package validator

import "testing"

func TestValidateServerURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid rtmp URL with host", url: "rtmp://example.com/app/stream", wantErr: false},
		{name: "valid rtmp URL with port", url: "rtmp://example.com:1935/app/stream", wantErr: false},
		{name: "valid rtmps URL", url: "rtmps://example.com/app/stream", wantErr: false},
		{name: "loopback is fine for a client dialing a local server", url: "rtmp://127.0.0.1/live", wantErr: false},
		{name: "localhost is fine for a client dialing a local server", url: "rtmp://localhost/live", wantErr: false},
		{name: "private IP is fine for a client dialing an internal server", url: "rtmp://192.168.1.1/live", wantErr: false},

		{name: "invalid scheme http", url: "http://example.com/app", wantErr: true},
		{name: "invalid scheme https", url: "https://example.com/app", wantErr: true},
		{name: "invalid scheme rtsp", url: "rtsp://example.com/stream", wantErr: true},
		{name: "missing scheme", url: "example.com:1935", wantErr: true},
		{name: "missing host", url: "rtmp:///app", wantErr: true},
		{name: "empty URL", url: "", wantErr: true},
		{name: "port 0", url: "rtmp://example.com:0/app", wantErr: true},
		{name: "port out of range", url: "rtmp://example.com:65536/app", wantErr: true},
		{name: "invalid port string", url: "rtmp://example.com:abc/app", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServerURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateServerURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
