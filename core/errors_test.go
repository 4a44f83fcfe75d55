package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainErrorMatching(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{name: "schema mismatch sentinel", err: ErrSchemaMismatch, check: IsSchemaMismatch, want: true},
		{name: "wrapped schema mismatch", err: fmt.Errorf("columns 10 vs 12: %w", ErrSchemaMismatch), check: IsSchemaMismatch, want: true},
		{name: "not fitted sentinel", err: ErrNotFitted, check: IsNotFitted, want: true},
		{name: "artifact load wrapped twice", err: fmt.Errorf("load: %w", fmt.Errorf("read manifest: %w", ErrArtifactLoad)), check: IsArtifactLoad, want: true},
		{name: "unrelated error", err: errors.New("boom"), check: IsSchemaMismatch, want: false},
		{name: "cross matcher does not fire", err: ErrNotFitted, check: IsArtifactLoad, want: false},
		{name: "nil error", err: nil, check: IsNotFitted, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("check(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStoreErrorMatching(t *testing.T) {
	if !IsStoreNotFound(ErrStoreNotFound) {
		t.Error("IsStoreNotFound(ErrStoreNotFound) = false")
	}
	if !IsStoreNotSupported(ErrStoreNotSupported) {
		t.Error("IsStoreNotSupported(ErrStoreNotSupported) = false")
	}
	if IsStoreNotFound(ErrNotFitted) {
		t.Error("feature error matched store matcher")
	}
}
