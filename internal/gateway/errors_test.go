package gateway

import (
	"errors"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want int
	}{
		{kind: KindInternal, want: http.StatusInternalServerError},
		{kind: KindValidation, want: http.StatusBadRequest},
		{kind: KindAuth, want: http.StatusUnauthorized},
		{kind: KindNotFound, want: http.StatusNotFound},
		{kind: KindUnavailable, want: http.StatusServiceUnavailable},
		{kind: Kind(99), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("Kind(%d).Status() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("原因がある場合はメッセージに含めてUnwrapできる", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("boom")
		err := newError(KindInternal, msgInternal, cause)

		if got := err.Error(); got != "internal server error: boom" {
			t.Errorf("Error() = %q", got)
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Isで原因を辿れない")
		}
	})

	t.Run("原因がない場合はメッセージのみ", func(t *testing.T) {
		t.Parallel()

		err := newError(KindValidation, msgFIDRequired, nil)
		if got := err.Error(); got != msgFIDRequired {
			t.Errorf("Error() = %q, want %q", got, msgFIDRequired)
		}
	})
}
