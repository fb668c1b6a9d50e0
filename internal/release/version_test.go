package release

import (
	"testing"

	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr bool
	}{
		{name: "typical k3s tag", version: "v1.29.4+k3s1"},
		{name: "release candidate", version: "v1.30.0-rc1+k3s1"},
		{name: "plain semver", version: "1.29.4"},
		{name: "dots allowed", version: "v1.2.3"},
		{name: "empty", version: "", wantErr: true},
		{name: "forward slash", version: "v1/evil", wantErr: true},
		{name: "backslash", version: `v1\evil`, wantErr: true},
		{name: "traversal", version: "../../etc", wantErr: true},
		{name: "dotdot embedded", version: "v1..2", wantErr: true},
		{name: "null byte", version: "v1\x00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.version)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Validate(%q) expected error, got nil", tt.version)
				}
				appErr, ok := apperrors.As(err)
				if !ok {
					t.Fatalf("Validate(%q) error type = %T, want *AppError", tt.version, err)
				}
				if appErr.Category != apperrors.ErrCategoryValidation {
					t.Errorf("category = %s, want %s", appErr.Category, apperrors.ErrCategoryValidation)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate(%q) unexpected error: %v", tt.version, err)
			}
		})
	}
}
