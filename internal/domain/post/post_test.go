package post

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/feedrank/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	tags := []string{"#food", "#pizza"}
	p, err := New("p1", "u1", "Pizza night", tags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID() != "p1" || p.AuthorID() != "u1" || p.Caption() != "Pizza night" {
		t.Errorf("unexpected post %+v", p.Snapshot())
	}
	if p.HasVector() {
		t.Error("new post must not have a vector")
	}
	if _, ok := p.EngagementScore(); ok {
		t.Error("new post must not have a score")
	}

	tags[0] = "mutated"
	if p.Tags()[0] != "#food" {
		t.Error("tags mutation leaked into post")
	}
}

func TestNew_InvalidID(t *testing.T) {
	for _, id := range []string{"", strings.Repeat("x", MaxIDLength+1)} {
		if _, err := New(id, "u1", "c", nil); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("New(%q): expected ErrInvalidInput, got %v", id, err)
		}
	}
}

func TestEmbeddingText(t *testing.T) {
	p, _ := New("p1", "u1", "Sunset walk", []string{"#beach", "#summer"})
	if got := p.EmbeddingText(); got != "Sunset walk #beach #summer" {
		t.Errorf("EmbeddingText() = %q", got)
	}

	bare, _ := New("p2", "u1", "Just words", nil)
	if got := bare.EmbeddingText(); got != "Just words" {
		t.Errorf("EmbeddingText() without tags = %q", got)
	}
}

func TestReconstruct_DeduplicatesSets(t *testing.T) {
	score := 2.5
	p := Reconstruct(Snapshot{
		ID:       "p1",
		Likes:    []string{"u1", "u2", "u1"},
		Views:    []string{"u3", "u3", ""},
		Comments: []Comment{{AuthorID: "u2", Text: "nice"}},
		Vector:   []float32{1, 0, 0},
		Score:    &score,
	})

	if len(p.Likes()) != 2 {
		t.Errorf("Likes() = %v, want 2 distinct", p.Likes())
	}
	if len(p.Views()) != 1 {
		t.Errorf("Views() = %v, want 1 distinct", p.Views())
	}
	if p.Saves() == nil || p.Tags() == nil {
		t.Error("absent lists must resolve to empty, not nil")
	}
	c := p.Counts()
	if c.Likes != 2 || c.Views != 1 || c.Comments != 1 {
		t.Errorf("Counts() = %+v", c)
	}
	if got, ok := p.EngagementScore(); !ok || got != 2.5 {
		t.Errorf("EngagementScore() = %v, %v", got, ok)
	}
	if !p.HasVector() {
		t.Error("expected vector")
	}
}
