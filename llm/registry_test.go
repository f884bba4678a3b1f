package llm

import "testing"

func TestRegistryRegisterDuplicate(t *testing.T) {
	reg := &ProviderRegistry{providers: make(map[string]ProviderFactory)}
	f := staticFactory{p: &mockProvider{name: "dup", descriptor: ProviderDescriptor{Name: "dup"}}}

	if err := reg.Register(f); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.Register(f); err == nil {
		t.Error("expected error registering duplicate provider name")
	}
}

func TestRegistryRegisterRejectsEmptyName(t *testing.T) {
	reg := &ProviderRegistry{providers: make(map[string]ProviderFactory)}
	f := staticFactory{p: &mockProvider{name: "", descriptor: ProviderDescriptor{}}}
	if err := reg.Register(f); err == nil {
		t.Error("expected error for empty provider name")
	}
}

func TestFallbackChainOrdersByTier(t *testing.T) {
	reg := &ProviderRegistry{providers: make(map[string]ProviderFactory)}
	cheap := staticFactory{p: &mockProvider{name: "cheap", descriptor: ProviderDescriptor{Name: "cheap", Tier: 0}}}
	premium := staticFactory{p: &mockProvider{name: "premium", descriptor: ProviderDescriptor{Name: "premium", Tier: 3}}}

	_ = reg.Register(premium)
	_ = reg.Register(cheap)

	chain := reg.FallbackChain()
	if len(chain) != 2 {
		t.Fatalf("len(chain) = %d, want 2", len(chain))
	}
	if chain[0].Name() != "cheap" || chain[1].Name() != "premium" {
		t.Errorf("chain order = [%s, %s], want [cheap, premium]", chain[0].Name(), chain[1].Name())
	}
}

func TestDefaultRegistryHasBuiltinTiers(t *testing.T) {
	names := DefaultRegistry().Names()
	want := []string{"balanced", "fast-cheap", "mock-bulk", "premium"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], n)
		}
	}
}
