package redis

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

func TestKeyIsStableAndModelScoped(t *testing.T) {
	a := Key("text-embedding-3-small", "hello")
	if a != Key("text-embedding-3-small", "hello") {
		t.Fatalf("Key not stable")
	}
	if a == Key("other-model", "hello") {
		t.Fatalf("Key must differ across models")
	}
	if !strings.HasPrefix(a, "emb:text-embedding-3-small:") || len(a) != len("emb:text-embedding-3-small:")+64 {
		t.Fatalf("Key shape: got=%q", a)
	}
}

func TestNewEmbeddingCacheRequiresAddr(t *testing.T) {
	if _, err := NewEmbeddingCache(context.Background(), logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected error for missing addr")
	}
}
