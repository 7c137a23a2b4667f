package blob

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "source not found",
			err:  ErrNotFound,
			want: true,
		},
		{
			name: "content conflict",
			err:  ErrConflict,
			want: true,
		},
		{
			name: "wrapped conflict",
			err:  fmt.Errorf("move: %w", fmt.Errorf("%w: processed/x.txt", ErrConflict)),
			want: true,
		},
		{
			name: "failed copy is transient",
			err:  fmt.Errorf("%w: copy finished with status aborted", ErrCopyFailed),
			want: false,
		},
		{
			name: "network error is transient",
			err:  errors.New("connection refused"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestContentMatches(t *testing.T) {
	md5a := []byte{0x01, 0x02, 0x03}
	md5b := []byte{0x09, 0x08, 0x07}
	size := func(n int64) *int64 { return &n }

	// Совпадающие MD5 — то же содержимое
	if !contentMatches(md5a, md5a, nil, nil) {
		t.Error("equal md5 must match")
	}

	// Разные MD5 — конфликт, даже при равной длине
	if contentMatches(md5a, md5b, size(3), size(3)) {
		t.Error("different md5 must not match")
	}

	// Без MD5 сравниваем по длине
	if !contentMatches(nil, nil, size(42), size(42)) {
		t.Error("equal length must match when md5 is absent")
	}
	if contentMatches(nil, nil, size(42), size(43)) {
		t.Error("different length must not match")
	}

	// Ничего не известно — считаем содержимое разным
	if contentMatches(nil, nil, nil, nil) {
		t.Error("unknown content must not match")
	}
}
