package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsRetryableTxError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, true},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("connection reset"), false},
		{"nil", nil, false},
		{"wrapped deadlock", fmt.Errorf("failed to update rank: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"wrapped non-retryable", fmt.Errorf("failed to insert: %w", &pgconn.PgError{Code: "23505"}), false},
	}
	for _, tc := range cases {
		if got := IsRetryableTxError(tc.err); got != tc.want {
			t.Errorf("%s: IsRetryableTxError = %v, want %v", tc.name, got, tc.want)
		}
	}
}
