package errors

import (
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple file", "drawing.svg", false},
		{"nested", "assets/icons/logo.svg", false},
		{"absolute", "/tmp/logo.svg", false},
		{"with spaces", "my drawings/logo.svg", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 5000)), true},
		{"null byte", "foo\x00bar.svg", true},
		{"control char", "foo\x01bar.svg", true},
		{"newline", "foo\nbar.svg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		wantCode Code
	}{
		{"png", "out.png", false, ""},
		{"jpg", "out.jpg", false, ""},
		{"jpeg uppercase", "OUT.JPEG", false, ""},
		{"no extension", "out", false, ""},

		{"gif", "out.gif", true, ErrCodeInvalidFormat},
		{"svg", "out.svg", true, ErrCodeInvalidFormat},
		{"directory", "out/", true, ErrCodeInvalidPath},
		{"empty", "", true, ErrCodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && GetCode(err) != tt.wantCode {
				t.Errorf("ValidateOutputPath(%q) code = %v, want %v", tt.input, GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestValidateInputPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"file", "logo.svg", false},
		{"glob", "icons/**/*.svg", false},
		{"directory", "icons/", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
