package idgen_test

import (
	"regexp"
	"sync"
	"testing"

	"github.com/artpar/shapegen/adapters/idgen"
)

func TestUUID_New(t *testing.T) {
	id := idgen.UUID{}.New()

	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	if !uuidRegex.MatchString(id) {
		t.Errorf("ID %s doesn't match UUID v4 format", id)
	}
	if !idgen.Valid(id) {
		t.Errorf("expected %s to be valid", id)
	}
}

func TestUUID_New_Unique(t *testing.T) {
	g := idgen.UUID{}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.New()
		if seen[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestSequential(t *testing.T) {
	g := idgen.NewSequential("batch_")

	for _, want := range []string{"batch_1", "batch_2", "batch_3"} {
		if got := g.New(); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	}

	g.Reset()
	if got := g.New(); got != "batch_1" {
		t.Errorf("after reset got %s, want batch_1", got)
	}
}

func TestSequential_Concurrent(t *testing.T) {
	g := idgen.NewSequential("")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.New()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != 50 {
		t.Errorf("expected 50 unique IDs, got %d", len(seen))
	}
}

func TestValid(t *testing.T) {
	if idgen.Valid("not-a-uuid") {
		t.Error("expected invalid")
	}
}
