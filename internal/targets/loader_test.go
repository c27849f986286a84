package targets

import (
	"os"
	"path/filepath"
	"testing"

	"connprobe/internal/probe"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		version  probe.IPVersion
		wantHost string
		wantPort uint16
		wantErr  bool
	}{
		{
			name:     "host and port",
			input:    "example.com:8080",
			wantHost: "example.com",
			wantPort: 8080,
		},
		{
			name:     "bare hostname gets default port",
			input:    "example.com",
			wantHost: "example.com",
			wantPort: 80,
		},
		{
			name:     "ipv4 literal",
			input:    "192.0.2.1:443",
			wantHost: "192.0.2.1",
			wantPort: 443,
		},
		{
			name:     "bracketed ipv6 literal",
			input:    "[2001:db8::1]:443",
			version:  probe.IPv6,
			wantHost: "2001:db8::1",
			wantPort: 443,
		},
		{
			name:     "surrounding whitespace",
			input:    "  example.com:22  ",
			wantHost: "example.com",
			wantPort: 22,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "port zero",
			input:   "example.com:0",
			wantErr: true,
		},
		{
			name:    "port out of range",
			input:   "example.com:70000",
			wantErr: true,
		},
		{
			name:    "non numeric port",
			input:   "example.com:https",
			wantErr: true,
		},
		{
			name:    "missing host",
			input:   ":443",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := ParseEndpoint(tt.input, tt.version)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseEndpoint(%q) = %+v, want error", tt.input, ep)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEndpoint(%q): %v", tt.input, err)
			}
			if ep.Host != tt.wantHost || ep.Port != tt.wantPort {
				t.Errorf("got %s:%d, want %s:%d", ep.Host, ep.Port, tt.wantHost, tt.wantPort)
			}
			if ep.IPVersion != tt.version {
				t.Errorf("ip version = %v, want %v", ep.IPVersion, tt.version)
			}
		})
	}
}

func TestFromArgs(t *testing.T) {
	endpoints, err := FromArgs([]string{"a.example:443", "b.example"}, probe.IPAuto)
	if err != nil {
		t.Fatalf("FromArgs: %v", err)
	}
	if len(endpoints) != 2 {
		t.Fatalf("got %d endpoints, want 2", len(endpoints))
	}
	if endpoints[1].Port != 80 {
		t.Errorf("bare hostname port = %d, want 80", endpoints[1].Port)
	}

	if _, err := FromArgs([]string{"a.example:443", "bad:0"}, probe.IPAuto); err == nil {
		t.Error("expected error for invalid argument")
	}
}

func TestLoadFile(t *testing.T) {
	content := `# production endpoints
example.com:443

  # staging
staging.example.com:8443
plain.example.com
`
	path := filepath.Join(t.TempDir(), "endpoints.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	endpoints, err := LoadFile(path, probe.IPAuto)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(endpoints) != 3 {
		t.Fatalf("got %d endpoints, want 3", len(endpoints))
	}
	if endpoints[0].Key() != "example.com:443" {
		t.Errorf("first = %s", endpoints[0].Key())
	}
	if endpoints[2].Key() != "plain.example.com:80" {
		t.Errorf("third = %s", endpoints[2].Key())
	}
}

func TestLoadFileReportsLineNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoints.txt")
	if err := os.WriteFile(path, []byte("good.example:443\nbad.example:0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path, probe.IPAuto); err == nil {
		t.Fatal("expected error for invalid line")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.txt"), probe.IPAuto); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefaultEndpoints(t *testing.T) {
	endpoints := DefaultEndpoints()
	if len(endpoints) == 0 {
		t.Fatal("no default endpoints")
	}
	for _, ep := range endpoints {
		if ep.Host == "" || ep.Port == 0 {
			t.Errorf("malformed default endpoint %+v", ep)
		}
	}
}
