package db

import (
	"context"
	"os"
	"testing"
)

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestOpenIntegration(t *testing.T) {
	dsn := os.Getenv("TCG_TEST_DSN")
	if dsn == "" {
		t.Skip("TCG_TEST_DSN not set")
	}
	conn, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
}
