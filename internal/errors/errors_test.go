package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestAppErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  ValidationError(CodeValidationVersion, "version must not be empty", nil),
			want: "[VALIDATION:VAL-001] version must not be empty",
		},
		{
			name: "wrapped cause",
			err:  NetworkError(CodeNetworkRefused, "connection refused", stderrors.New("dial tcp: refused")),
			want: "[NETWORK:NET-001] connection refused: dial tcp: refused",
		},
		{
			name: "nil receiver",
			err:  nil,
			want: "<nil>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuilderChain(t *testing.T) {
	err := SystemError(CodeSystemGeneric, "failed to create cache directory", nil).
		WithModule("cache").
		WithOperation("Populate").
		WithField("dir", "/tmp/k3s").
		WithRecoverable(true)

	if err.Module != "cache" {
		t.Errorf("Module = %s, want cache", err.Module)
	}
	if err.Operation != "Populate" {
		t.Errorf("Operation = %s, want Populate", err.Operation)
	}
	if err.Metadata["dir"] != "/tmp/k3s" {
		t.Errorf("Metadata[dir] = %v, want /tmp/k3s", err.Metadata["dir"])
	}
	if !err.Recoverable {
		t.Error("Recoverable = false, want true")
	}
}

func TestAs(t *testing.T) {
	appErr := ConfigError(CodeConfigGeneric, "bad config", nil)
	wrapped := stderrors.Join(stderrors.New("outer"), appErr)

	got, ok := As(wrapped)
	if !ok {
		t.Fatal("As() failed to find AppError in wrapped chain")
	}
	if got.Code != CodeConfigGeneric {
		t.Errorf("Code = %s, want %s", got.Code, CodeConfigGeneric)
	}

	if _, ok := As(stderrors.New("plain")); ok {
		t.Error("As() found AppError in a plain error")
	}
	if _, ok := As(nil); ok {
		t.Error("As(nil) = true, want false")
	}
}

func TestIsCategory(t *testing.T) {
	err := IntegrityNotFound("k3s")

	if !IsCategory(err, ErrCategoryIntegrity) {
		t.Error("IsCategory(INTEGRITY) = false, want true")
	}
	if IsCategory(err, ErrCategoryNetwork) {
		t.Error("IsCategory(NETWORK) = true, want false")
	}
	if IsCategory(nil, ErrCategoryNetwork) {
		t.Error("IsCategory(nil) = true, want false")
	}
}

func TestCertificateErrorMetadata(t *testing.T) {
	err := CertificateError("github.com", "Self-signed certificate in chain", nil)

	if !err.Recoverable {
		t.Error("certificate errors must be recoverable")
	}
	if err.Metadata["domain"] != "github.com" {
		t.Errorf("Metadata[domain] = %v, want github.com", err.Metadata["domain"])
	}
	if !strings.Contains(err.Message, "github.com") {
		t.Errorf("Message %q does not name the domain", err.Message)
	}
}

func TestMetadataClone(t *testing.T) {
	original := Metadata{"a": 1}
	cloned := original.Clone()
	cloned["b"] = 2

	if _, ok := original["b"]; ok {
		t.Error("Clone() shares storage with the original")
	}
}
