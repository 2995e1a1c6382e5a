package cache

import "testing"

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "simple keyword",
			key:  Key{Keyword: "dune", Page: 1},
			want: "catalog:search:dune:page=1",
		},
		{
			name: "later page",
			key:  Key{Keyword: "dune", Page: 17},
			want: "catalog:search:dune:page=17",
		},
		{
			name: "keyword with spaces",
			key:  Key{Keyword: "blade runner", Page: 2},
			want: "catalog:search:blade runner:page=2",
		},
		{
			name: "colons escaped",
			key:  Key{Keyword: "re:zero", Page: 1},
			want: "catalog:search:re_zero:page=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	k1 := Key{Keyword: "dune", Page: 3}
	k2 := Key{Keyword: "dune", Page: 3}

	if k1.String() != k2.String() {
		t.Errorf("Equal keys produced different strings: %q vs %q", k1.String(), k2.String())
	}
}

func TestKey_DistinctPagesDistinctKeys(t *testing.T) {
	k1 := Key{Keyword: "dune", Page: 1}
	k2 := Key{Keyword: "dune", Page: 2}

	if k1.String() == k2.String() {
		t.Error("Different pages produced the same key")
	}
}
