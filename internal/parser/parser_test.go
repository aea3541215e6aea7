package parser

import (
	"errors"
	"testing"
)

func TestMockParser_Success(t *testing.T) {
	p := NewMockParser()
	bundle, err := p.Parse([]byte("MOCKv1.2.3-mock"), "MOCK")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := bundle.GetDataManager().GetDataVersion(); got != "v1.2.3-mock" {
		t.Errorf("GetDataVersion() = %q, want %q", got, "v1.2.3-mock")
	}
}

func TestMockParser_MagicMismatch(t *testing.T) {
	p := NewMockParser()
	_, err := p.Parse([]byte("NOPEv1.2.3"), "MOCK")
	if err == nil {
		t.Fatal("expected magic mismatch error")
	}
	var mismatch *ErrMagicMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("error is not ErrMagicMismatch: %v", err)
	}
}

func TestMockParser_TooShort(t *testing.T) {
	p := NewMockParser()
	if _, err := p.Parse([]byte("MO"), "MOCK"); err == nil {
		t.Fatal("expected error for undersized buffer")
	}
}

func TestMockParser_EmptyVersion(t *testing.T) {
	p := NewMockParser()
	if _, err := p.Parse([]byte("MOCK"), "MOCK"); err == nil {
		t.Fatal("expected error for empty version payload")
	}
}
