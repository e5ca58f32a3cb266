package store

import "testing"

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 3306, Name: "gateway", User: "gw", Password: "secret"}
	want := "gw:secret@tcp(db:3306)/gateway?parseTime=true"
	if got := cfg.dsn(); got != want {
		t.Errorf("dsn() = %q, want %q", got, want)
	}
}

func TestDBErrorsBeforeConnect(t *testing.T) {
	mu.Lock()
	db = nil
	mu.Unlock()

	if _, err := DB(); err == nil {
		t.Fatal("expected an error calling DB() before Connect")
	}
}
