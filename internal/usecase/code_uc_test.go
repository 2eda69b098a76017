// File: internal/usecase/code_uc_test.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"telegram-vip-subscription/internal/domain"
	"telegram-vip-subscription/internal/domain/model"
)

func newCodeUC(codes *memCodeRepo) *CodeUseCase {
	return NewCodeUseCase(codes, SingleAdmin(testAdmin), nopLogger())
}

func TestCodeCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("requires admin", func(t *testing.T) {
		uc := newCodeUC(newMemCodeRepo())
		if _, err := uc.Create(ctx, 42, 30); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("rejects out-of-range durations", func(t *testing.T) {
		uc := newCodeUC(newMemCodeRepo())
		for _, days := range []int{0, -5, model.MaxCodeDays + 1, 5000} {
			if _, err := uc.Create(ctx, testAdmin, days); !errors.Is(err, domain.ErrInvalidDuration) {
				t.Fatalf("days=%d: err = %v, want ErrInvalidDuration", days, err)
			}
		}
	})

	t.Run("accepts boundary durations", func(t *testing.T) {
		uc := newCodeUC(newMemCodeRepo())
		for _, days := range []int{model.MinCodeDays, model.MaxCodeDays} {
			code, err := uc.Create(ctx, testAdmin, days)
			if err != nil {
				t.Fatalf("days=%d: %v", days, err)
			}
			if code.Days != days {
				t.Fatalf("days = %d, want %d", code.Days, days)
			}
		}
	})

	t.Run("generates a 24-character alphanumeric token", func(t *testing.T) {
		uc := newCodeUC(newMemCodeRepo())
		code, err := uc.Create(ctx, testAdmin, 30)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if len(code.Code) != 24 {
			t.Fatalf("token length = %d, want 24", len(code.Code))
		}
		const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
		for _, ch := range code.Code {
			if !strings.ContainsRune(alphabet, ch) {
				t.Fatalf("token contains %q outside the alphabet", ch)
			}
		}
	})

	t.Run("regenerates on token collision", func(t *testing.T) {
		codes := newMemCodeRepo()
		codes.createErrs = []error{domain.ErrAlreadyExists, domain.ErrAlreadyExists, nil}
		uc := newCodeUC(codes)
		if _, err := uc.Create(ctx, testAdmin, 30); err != nil {
			t.Fatalf("Create should succeed on the third attempt: %v", err)
		}
	})

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		codes := newMemCodeRepo()
		codes.createErrs = []error{domain.ErrAlreadyExists, domain.ErrAlreadyExists, domain.ErrAlreadyExists}
		uc := newCodeUC(codes)
		if _, err := uc.Create(ctx, testAdmin, 30); !errors.Is(err, domain.ErrOperationFailed) {
			t.Fatalf("err = %v, want ErrOperationFailed", err)
		}
	})

	t.Run("propagates store failures", func(t *testing.T) {
		codes := newMemCodeRepo()
		storeErr := errors.New("store down")
		codes.createErrs = []error{storeErr}
		uc := newCodeUC(codes)
		if _, err := uc.Create(ctx, testAdmin, 30); !errors.Is(err, storeErr) {
			t.Fatalf("err = %v, want store error", err)
		}
	})
}

func TestCodeListUnconsumed(t *testing.T) {
	ctx := context.Background()

	t.Run("requires admin", func(t *testing.T) {
		uc := newCodeUC(newMemCodeRepo())
		if _, err := uc.ListUnconsumed(ctx, 42); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("skips consumed codes", func(t *testing.T) {
		codes := newMemCodeRepo()
		uc := newCodeUC(codes)
		fresh, err := uc.Create(ctx, testAdmin, 30)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		used, err := uc.Create(ctx, testAdmin, 60)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if ok, _ := codes.MarkConsumed(ctx, nil, used.Code, 42, fresh.CreatedAt); !ok {
			t.Fatal("MarkConsumed failed")
		}

		list, err := uc.ListUnconsumed(ctx, testAdmin)
		if err != nil {
			t.Fatalf("ListUnconsumed: %v", err)
		}
		if len(list) != 1 || list[0].Code != fresh.Code {
			t.Fatalf("list = %v, want only %s", list, fresh.Code)
		}
	})
}

func TestCodeDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("requires admin", func(t *testing.T) {
		uc := newCodeUC(newMemCodeRepo())
		if err := uc.Delete(ctx, 42, "CODE"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("rejects an empty token", func(t *testing.T) {
		uc := newCodeUC(newMemCodeRepo())
		if err := uc.Delete(ctx, testAdmin, "  "); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("removes an unconsumed code, no-op otherwise", func(t *testing.T) {
		codes := newMemCodeRepo()
		uc := newCodeUC(codes)
		code, err := uc.Create(ctx, testAdmin, 30)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := uc.Delete(ctx, testAdmin, code.Code); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, ok := codes.store[code.Code]; ok {
			t.Fatal("code still present")
		}
		// absent token is not an error
		if err := uc.Delete(ctx, testAdmin, code.Code); err != nil {
			t.Fatalf("second delete: %v", err)
		}
	})
}
