package db

import "testing"

func TestKNNQueryValidate(t *testing.T) {
	valid := KNNQuery{
		IndexName: "gani:website:idx",
		Vector:    []float32{0.1, 0.2},
		K:         12,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	cases := []struct {
		name   string
		mutate func(*KNNQuery)
	}{
		{"missing index", func(q *KNNQuery) { q.IndexName = "" }},
		{"missing vector", func(q *KNNQuery) { q.Vector = nil }},
		{"zero k", func(q *KNNQuery) { q.K = 0 }},
		{"negative k", func(q *KNNQuery) { q.K = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := valid
			tc.mutate(&q)
			if err := q.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
