package constants

import "testing"

func TestMapMediaType(t *testing.T) {
	tests := []struct {
		mediaType string
		want      string
	}{
		{"application/pdf", PDF},
		{"APPLICATION/PDF", PDF},
		{"image/png", IMAGE},
		{"image/jpeg", IMAGE},
		{"image/heic", IMAGE},
		{"text/plain", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MapMediaType(tt.mediaType); got != tt.want {
			t.Errorf("MapMediaType(%q) = %q, want %q", tt.mediaType, got, tt.want)
		}
	}
}

func TestMapExtToFormat(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".pdf", PDF},
		{"PDF", PDF},
		{".JPG", IMAGE},
		{"heic", IMAGE},
		{".txt", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MapExtToFormat(tt.ext); got != tt.want {
			t.Errorf("MapExtToFormat(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestIsHEICExt(t *testing.T) {
	if !IsHEICExt(".HEIC") || !IsHEICExt("heif") {
		t.Error("heic variants not recognized")
	}
	if IsHEICExt(".png") {
		t.Error("png misclassified as heic")
	}
}
