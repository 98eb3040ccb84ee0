package registry

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegisterAndGet(t *testing.T) {
	r := NewBaseRegistry[int]()

	if err := r.Register("a", 1); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, ok := r.Get("a")
	if !ok {
		t.Fatal("expected item to exist")
	}
	if got != 1 {
		t.Errorf("Get() = %d, want 1", got)
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing item to not exist")
	}
}

func TestRegisterErrors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *BaseRegistry[string])
		regName  string
		wantErr  bool
	}{
		{
			name:    "empty name rejected",
			setup:   func(r *BaseRegistry[string]) {},
			regName: "",
			wantErr: true,
		},
		{
			name: "duplicate rejected",
			setup: func(r *BaseRegistry[string]) {
				_ = r.Register("dup", "first")
			},
			regName: "dup",
			wantErr: true,
		},
		{
			name:    "fresh name accepted",
			setup:   func(r *BaseRegistry[string]) {},
			regName: "fresh",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewBaseRegistry[string]()
			tt.setup(r)

			err := r.Register(tt.regName, "value")
			if (err != nil) != tt.wantErr {
				t.Errorf("Register(%q) error = %v, wantErr %v", tt.regName, err, tt.wantErr)
			}
		})
	}
}

func TestNamesSorted(t *testing.T) {
	r := NewBaseRegistry[int]()
	for i, name := range []string{"zebra", "alpha", "mango"} {
		if err := r.Register(name, i); err != nil {
			t.Fatalf("Register(%q) failed: %v", name, err)
		}
	}

	names := r.Names()
	want := []string{"alpha", "mango", "zebra"}
	if len(names) != len(want) {
		t.Fatalf("Names() returned %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRemoveAndCount(t *testing.T) {
	r := NewBaseRegistry[int]()
	_ = r.Register("a", 1)
	_ = r.Register("b", 2)

	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}

	if err := r.Remove("a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := r.Remove("a"); err == nil {
		t.Error("expected error removing missing item")
	}
	if r.Count() != 1 {
		t.Errorf("Count() after remove = %d, want 1", r.Count())
	}

	r.Clear()
	if r.Count() != 0 {
		t.Errorf("Count() after clear = %d, want 0", r.Count())
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := NewBaseRegistry[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = r.Register(fmt.Sprintf("item-%d", n), n)
			r.Get(fmt.Sprintf("item-%d", n%10))
			r.Count()
		}(i)
	}
	wg.Wait()

	if r.Count() != 50 {
		t.Errorf("Count() = %d, want 50", r.Count())
	}
}
