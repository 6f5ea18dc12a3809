package pgvectore

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Abraxas-365/papernotes/vectorstore"
)

func TestWhereClause(t *testing.T) {
	where, args := whereClause(nil, []interface{}{"v", 5})
	if where != "" || len(args) != 2 {
		t.Errorf("empty filter = %q, %v", where, args)
	}

	where, args = whereClause(vectorstore.Filter{"source": "https://arxiv.org/pdf/1.pdf"}, []interface{}{"v", 5})
	if where != "WHERE metadata->>$3 = $4" {
		t.Errorf("where = %q", where)
	}
	if !reflect.DeepEqual(args, []interface{}{"v", 5, "source", "https://arxiv.org/pdf/1.pdf"}) {
		t.Errorf("args = %v", args)
	}

	where, args = whereClause(vectorstore.Filter{"a": 1, "b": 2}, nil)
	if strings.Count(where, " AND ") != 1 || len(args) != 4 {
		t.Errorf("two conditions: %q %v", where, args)
	}
}

func TestIsIdentifier(t *testing.T) {
	for _, ok := range []string{"arxiv_embeddings", "Docs2", "_x"} {
		if !isIdentifier(ok) {
			t.Errorf("isIdentifier(%q) = false", ok)
		}
	}
	for _, bad := range []string{"", "2docs", "docs; drop table x", "a-b"} {
		if isIdentifier(bad) {
			t.Errorf("isIdentifier(%q) = true", bad)
		}
	}
}

func TestNewPGVectorStoreWithPoolDefaults(t *testing.T) {
	s, err := NewPGVectorStoreWithPool(nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if s.tableName != vectorstore.DefaultCollection || s.dimension != 1536 || s.distance != Cosine {
		t.Errorf("defaults = %+v", s)
	}
	if op, class := s.getOperatorAndFunction(); op != "<=>" || class != "vector_cosine_ops" {
		t.Errorf("operator = %s %s", op, class)
	}

	if _, err := NewPGVectorStoreWithPool(nil, Options{Distance: "manhattan"}); err == nil {
		t.Error("expected invalid distance error")
	}
	if _, err := NewPGVectorStoreWithPool(nil, Options{TableName: "x; drop"}); err == nil {
		t.Error("expected invalid table name error")
	}
}
