package repository

import "testing"

// Compile-time check that the postgres implementation provides the full
// store surface, including the single-session finder.
var _ Repository = (*PostgresRepository)(nil)

func TestPostgresRepositoryImplementsRepository(t *testing.T) {
	var r interface{} = NewPostgresRepository(nil)
	if _, ok := r.(Repository); !ok {
		t.Fatal("PostgresRepository does not satisfy Repository")
	}
}
