package domain

import (
	"errors"
	"testing"
)

func TestSyncOrder_ParentsFirst(t *testing.T) {
	pos := make(map[EntityKind]int)
	for i, k := range SyncOrder {
		pos[k] = i
	}

	deps := map[EntityKind][]EntityKind{
		KindManhwaGenres:    {KindManhwas, KindGenres},
		KindManhwaAuthors:   {KindManhwas, KindAuthors},
		KindChapters:        {KindManhwas},
		KindCollectionItems: {KindCollections, KindManhwas},
		KindSourceLinks:     {KindManhwas},
	}

	for child, parents := range deps {
		for _, parent := range parents {
			if pos[parent] >= pos[child] {
				t.Errorf("%s must sync before %s", parent, child)
			}
		}
	}
}

func TestEntityKind_Valid(t *testing.T) {
	if !KindChapters.Valid() {
		t.Error("chapters should be valid")
	}
	if EntityKind("pages").Valid() {
		t.Error("pages should not be valid")
	}
}

func TestBatch_Len(t *testing.T) {
	b := &Batch{
		Kind:     KindChapters,
		Chapters: []Chapter{{ID: 1}, {ID: 2}},
		Genres:   []Genre{{ID: 1}},
	}
	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}

	b.Kind = KindGenres
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
}

func TestParseReadStatus(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"reading", false},
		{"completed", false},
		{"dropped", false},
		{"plan_to_read", false},
		{"on_hold", false},
		{"rereading", false},
		{"Reading", true},
		{"", true},
		{"favourite", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseReadStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseReadStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidStatus) {
				t.Errorf("expected ErrInvalidStatus, got %v", err)
			}
			if err == nil && string(got) != tt.input {
				t.Errorf("ParseReadStatus(%q) = %q", tt.input, got)
			}
		})
	}
}

func TestErrors_Unwrap(t *testing.T) {
	base := errors.New("boom")

	var syncErr error = &SyncError{Kind: KindChapters, Err: base}
	if !errors.Is(syncErr, base) {
		t.Error("SyncError should unwrap to its cause")
	}
	var se *SyncError
	if !errors.As(syncErr, &se) || se.Kind != KindChapters {
		t.Errorf("errors.As SyncError failed: %v", syncErr)
	}

	if !errors.Is(&SchemaError{Version: 2, Err: base}, base) {
		t.Error("SchemaError should unwrap to its cause")
	}
	if !errors.Is(&QueryError{Op: "latest", Err: base}, base) {
		t.Error("QueryError should unwrap to its cause")
	}
}

func TestValidatePage(t *testing.T) {
	tests := []struct {
		offset, limit int
		wantErr       bool
	}{
		{0, 10, false},
		{20, 1, false},
		{-1, 10, true},
		{0, 0, true},
		{0, -5, true},
	}

	for _, tt := range tests {
		err := ValidatePage(tt.offset, tt.limit)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePage(%d, %d) error = %v, wantErr %v", tt.offset, tt.limit, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidPage) {
			t.Errorf("expected ErrInvalidPage, got %v", err)
		}
	}
}
